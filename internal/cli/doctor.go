package cli

import (
	"errors"
	"os"

	"nestdo/internal/store"

	"github.com/spf13/cobra"
)

func newDoctorCmd(app *App) *cobra.Command {
	var fail bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the task file for skipped lines and broken tree links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.cfg.TasksFile
			var report store.DoctorReport
			doc := store.NewDocument()

			f, err := os.Open(path)
			switch {
			case errors.Is(err, os.ErrNotExist):
			case err != nil:
				return writeErr(cmd, err)
			default:
				var dec store.DecodeReport
				doc, dec, err = store.Decode(f)
				_ = f.Close()
				if err != nil {
					return writeErr(cmd, err)
				}
				store.DoctorDecode(&report, dec)
			}
			report.Issues = append(report.Issues, store.Doctor(doc).Issues...)

			meta := map[string]any{
				"path":      path,
				"tasks":     doc.Len(),
				"issues":    len(report.Issues),
				"hasErrors": report.HasErrors(),
			}
			hints := []string{
				"nestdo list --all",
			}

			if err := writeOut(cmd, app, map[string]any{
				"data":   report,
				"meta":   meta,
				"_hints": hints,
			}); err != nil {
				return err
			}

			if fail && report.HasErrors() {
				return store.ErrDoctorIssuesFound
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fail, "fail", false, "Exit with non-zero status if errors are found")
	return cmd
}
