// internal/form/http.go
//
// simpleform – net/http adapter for the Request contract.
//
// Context
//   http.Request.ParseForm stores values in url.Values, which loses the
//   submission order that sequence/mapping markers depend on.  The adapter
//   therefore reads the body itself: urlencoded bodies through
//   params.ParseQuery, multipart bodies part by part, and JSON bodies with
//   UseNumber so large integers survive.  The body is read once, in
//   NewHTTPRequest, and capped at MaxMemory bytes.
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	ut "github.com/go-playground/universal-translator"

	"github.com/yanizio/simpleform/internal/params"
)

// DefaultMaxMemory caps request bodies read by NewHTTPRequest.
const DefaultMaxMemory int64 = 10 << 20

// ErrBody is returned when the request body cannot be decoded.
var ErrBody = errors.New("form: unreadable request body")

// HTTPOptions configure NewHTTPRequest.
type HTTPOptions struct {
	Session    Session
	Translator ut.Translator
	MaxMemory  int64 // 0 means DefaultMaxMemory
}

// File is an uploaded multipart file held in memory.
type File struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// HTTPRequest implements Request, and Localizer when a translator is set.
type HTTPRequest struct {
	r          *http.Request
	get        params.Values
	post       params.Values
	json       map[string]any
	hasJSON    bool
	files      []File
	session    Session
	translator ut.Translator
}

// NewHTTPRequest reads r's query and body.
func NewHTTPRequest(r *http.Request, opts HTTPOptions) (*HTTPRequest, error) {
	limit := opts.MaxMemory
	if limit <= 0 {
		limit = DefaultMaxMemory
	}
	hr := &HTTPRequest{
		r:          r,
		get:        params.ParseQuery(r.URL.RawQuery),
		session:    opts.Session,
		translator: opts.Translator,
	}
	if r.Body == nil || r.Body == http.NoBody {
		return hr, nil
	}

	ct, ctParams, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	body := http.MaxBytesReader(nil, r.Body, limit)
	defer body.Close()

	switch {
	case ct == "application/x-www-form-urlencoded":
		raw, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBody, err)
		}
		hr.post = params.ParseQuery(string(raw))

	case ct == "application/json" || strings.HasSuffix(ct, "+json"):
		raw, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBody, err)
		}
		if len(bytes.TrimSpace(raw)) == 0 {
			break
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("%w: json: %v", ErrBody, err)
		}
		if m == nil {
			m = map[string]any{}
		}
		hr.json, hr.hasJSON = m, true

	case ct == "multipart/form-data":
		if err := hr.readMultipart(body, ctParams["boundary"]); err != nil {
			return nil, err
		}
	}
	return hr, nil
}

func (hr *HTTPRequest) readMultipart(body io.Reader, boundary string) error {
	if boundary == "" {
		return fmt.Errorf("%w: multipart boundary missing", ErrBody)
	}
	mr := multipart.NewReader(body, boundary)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: multipart: %v", ErrBody, err)
		}
		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return fmt.Errorf("%w: multipart: %v", ErrBody, err)
		}

		name := part.FormName()
		if name == "" {
			continue
		}
		if fn := part.FileName(); fn != "" {
			hr.files = append(hr.files, File{
				Field:       name,
				Filename:    fn,
				ContentType: part.Header.Get("Content-Type"),
				Data:        data,
			})
			hr.post.Add(name, fn)
			continue
		}
		hr.post.Add(name, string(data))
	}
}

func (hr *HTTPRequest) Method() string { return hr.r.Method }
func (hr *HTTPRequest) POST() params.Values { return hr.post }
func (hr *HTTPRequest) GET() params.Values { return hr.get }
func (hr *HTTPRequest) Path() string { return hr.r.URL.Path }
func (hr *HTTPRequest) Session() Session { return hr.session }

// Params returns query values followed by body values.
func (hr *HTTPRequest) Params() params.Values {
	var out params.Values
	out.Extend(hr.get)
	out.Extend(hr.post)
	return out
}

// JSONBody returns the decoded JSON object, if the body was JSON.
func (hr *HTTPRequest) JSONBody() (map[string]any, bool) { return hr.json, hr.hasJSON }

// Files returns uploaded files in submission order.
func (hr *HTTPRequest) Files() []File { return hr.files }

// Translator returns the configured translator, or nil.
func (hr *HTTPRequest) Translator() ut.Translator { return hr.translator }

// HTTP returns the wrapped request.
func (hr *HTTPRequest) HTTP() *http.Request { return hr.r }
