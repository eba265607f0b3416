// cmd/formlint/main.go
//
// formlint – command-line companion for simpleform.
//
// Commands
// --------
//
//  1. lint   – parse every YAML form definition and report structural errors.
//
//  2. check  – validate one submission (a query string) against a definition
//     and print the cleaned data or the errors.
//
//  3. serve  – preview server: every definition rendered as a live form with
//     CSRF protection, security headers, and Prometheus /metrics.
//
// Boot order (shared by every command)
// ------------------------------------
//
//   - config.Load  – defaults → conf/.env → conf/simpleform.yaml → SIMPLEFORM_ env.
//   - logger       – console for lint and check, rotating files for serve
//     when log.dir is set.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanizio/simpleform/internal/config"
	"github.com/yanizio/simpleform/internal/logger"
)

// errInvalid makes check exit non-zero without an extra error line.
var errInvalid = errors.New("submission is invalid")

// app carries state built by the persistent pre-run.
type app struct {
	root     string
	logLevel string
	cfg      *config.Config
}

func main() {
	if err := newRoot().ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errInvalid) {
			fmt.Fprintf(os.Stderr, "formlint: %s\n", err)
		}
		os.Exit(1)
	}
}

func newRoot() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "formlint",
		Short: "Lint, check, and preview simpleform definitions",
		Long: `formlint works with the YAML form definitions read by simpleform.

Configuration comes from conf/simpleform.yaml under the project root and
SIMPLEFORM_ environment variables (SIMPLEFORM_FORMS__DIRS, …).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Context(), config.Options{Root: a.root})
			if err != nil {
				return err
			}
			a.cfg = cfg

			level := a.logLevel
			if level == "" {
				level = cfg.Log.Level
			}
			if cmd.Name() == "serve" {
				return nil // serve builds its own logger
			}
			log, err := logger.Console(level)
			if err != nil {
				return err
			}
			cmd.SetContext(logger.WithContext(cmd.Context(), log))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.root, "root", "", "project root (default: SIMPLEFORM_ROOT or discovered)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log.level")

	root.AddCommand(lintCmd(a), checkCmd(a), serveCmd(a))
	return root
}

// formDirs prefers explicit arguments over configured directories.
func (a *app) formDirs(args []string) []string {
	if len(args) > 0 {
		return args
	}
	return a.cfg.Forms.Dirs
}

func logFrom(cmd *cobra.Command) *zap.SugaredLogger {
	return logger.FromContext(cmd.Context())
}
