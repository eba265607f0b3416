// cmd/formlint/lint.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yanizio/simpleform/internal/schema"
)

func lintCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lint [dir...]",
		Short: "Parse form definitions and report errors",
		Long: `Parse every .yaml and .yml file in the given directories (default:
forms.dirs) and report structural errors.  Earlier directories shadow later
ones, matching the order used by serve.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := schema.NewRegistry(logFrom(cmd))
			if err := reg.LoadDirs(a.formDirs(args)...); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, id := range reg.IDs() {
				def, _ := reg.Get(id)
				fmt.Fprintf(out, "ok  %-24s %d field(s), %d step(s)\n", id, len(def.AllFields()), len(def.Steps))
			}
			fmt.Fprintf(out, "%d definition(s)\n", len(reg.IDs()))
			return nil
		},
	}
}
