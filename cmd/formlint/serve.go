// cmd/formlint/serve.go
//
// serve – preview server for form definitions.
//
// Handler chain
// -------------
//
//	Recoverer → Security headers → ForceHTTPS (optional)
//	  ├─ /metrics            promhttp
//	  └─ /                   CSRF → preview routes
//
// Templates are looked up in forms.template_dirs first, then in the
// built-in set, so a site can override a single page or supply markup for
// one definition (templates/<id>.html).
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanizio/simpleform/internal/config"
	"github.com/yanizio/simpleform/internal/htmlfill"
	"github.com/yanizio/simpleform/internal/logger"
	"github.com/yanizio/simpleform/internal/middleware"
	"github.com/yanizio/simpleform/internal/preview"
	"github.com/yanizio/simpleform/internal/renderer"
	"github.com/yanizio/simpleform/internal/schema"
	"github.com/yanizio/simpleform/internal/server"
	"github.com/yanizio/simpleform/internal/session"
	"github.com/yanizio/simpleform/internal/view"
)

// builtinDir names the embedded templates inside the view file system.
const builtinDir = "builtin"

func serveCmd(a *app) *cobra.Command {
	var (
		addr string
		dev  bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the preview server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			if addr != "" {
				cfg.HTTP.ListenAddr = addr
			}
			log, err := serveLogger(cfg.Log, a.logLevel)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			h, err := buildHandler(cfg, dev, log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx, server.New(cfg.HTTP.ListenAddr, h), nil, cfg.HTTP.ShutdownTimeout, log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "override http.listen_addr")
	cmd.Flags().BoolVar(&dev, "dev", false, "re-parse templates on every request")
	return cmd
}

func serveLogger(c config.Log, override string) (*zap.SugaredLogger, error) {
	level := c.Level
	if override != "" {
		level = override
	}
	if c.Dir == "" {
		return logger.Console(level)
	}
	return logger.New(logger.Options{Dir: c.Dir, Level: level, Tee: c.Tee})
}

// buildHandler wires registry, session store, views, and middleware.
func buildHandler(cfg *config.Config, dev bool, log *zap.SugaredLogger) (*chi.Mux, error) {
	reg := schema.NewRegistry(log)
	if err := reg.LoadDirs(cfg.Forms.Dirs...); err != nil {
		return nil, err
	}
	log.Infow("form definitions loaded", "count", len(reg.IDs()))

	key := []byte(cfg.CSRF.Secret)
	if len(key) == 0 {
		var err error
		if key, err = session.RandomKey(); err != nil {
			return nil, err
		}
		log.Warnw("csrf.secret not set, tokens will not survive a restart")
	}
	signer, err := session.NewSigner(key, cfg.CSRF.MaxAge)
	if err != nil {
		return nil, err
	}
	store := session.NewStore(signer, session.CookieOptions{Name: cfg.CSRF.Cookie, Secure: cfg.HTTP.ForceHTTPS})

	mounts := mountFS{builtinDir: preview.Templates()}
	dirs := make([]string, 0, len(cfg.Forms.TemplateDirs)+1)
	for i, d := range cfg.Forms.TemplateDirs {
		if _, err := os.Stat(d); err != nil {
			log.Debugw("template dir skipped", "dir", d, "err", err)
			continue
		}
		name := fmt.Sprintf("site%d", i)
		mounts[name] = os.DirFS(d)
		dirs = append(dirs, name)
	}
	views := view.New(view.Options{
		FS:       mounts,
		Dirs:     append(dirs, builtinDir),
		NoCache:  dev,
		Renderer: renderer.Config{CSRFField: cfg.CSRF.Field},
		Logger:   log,
	})

	pv := preview.New(preview.Options{
		Registry: reg,
		Views:    views,
		Filler:   htmlfill.New(htmlfill.Options{SkipPasswords: true}),
		MaxBody:  cfg.Forms.MaxBody,
		Logger:   log,
	})

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityWith(middleware.SecurityPolicy{
		CSP:            cfg.HTTP.CSP,
		HSTSMaxAge:     cfg.HTTP.HSTSMaxAge,
		HSTSSubdomains: cfg.HTTP.HSTSSubdomains,
	}))
	if cfg.HTTP.ForceHTTPS {
		r.Use(middleware.ForceHTTPS)
	}
	r.Handle("/metrics", promhttp.Handler())
	r.Group(func(g chi.Router) {
		g.Use(middleware.CSRF(store, middleware.CSRFOptions{Field: cfg.CSRF.Field, MaxBody: cfg.Forms.MaxBody, Logger: log}))
		g.Mount("/", pv.Routes())
	})
	return r, nil
}

/*──────────────────────────── mountFS ────────────────────────────*/

// mountFS joins file systems under top-level names, so one view engine can
// search site directories on disk and the embedded set in order.
type mountFS map[string]fs.FS

func (m mountFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) || name == "." {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	top, rest, _ := strings.Cut(name, "/")
	sub, ok := m[top]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	if rest == "" {
		rest = "."
	}
	f, err := sub.Open(path.Clean(rest))
	if err != nil {
		var pe *fs.PathError
		if errors.As(err, &pe) {
			pe.Path = name
		}
		return nil, err
	}
	return f, nil
}

