package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"leadprep/models"
)

func newProcessCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "process <file>",
		Short: "Explode a lead export into one cleaned row per contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.reshaper().Process(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printReport(cmd, report)
			return nil
		},
	}
}

func printReport(cmd *cobra.Command, r *models.ProcessReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s → %s\n", r.SourceKey, r.OutputKey)
	fmt.Fprintf(out, "  source rows : %d\n", r.SourceRows)
	fmt.Fprintf(out, "  contacts    : %d\n", r.Exploded)
	fmt.Fprintf(out, "  written     : %d\n", r.Written)

	reasons := make([]string, 0, len(r.Dropped))
	for reason := range r.Dropped {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		fmt.Fprintf(out, "  dropped %-18s: %d\n", reason, r.Dropped[models.DropReason(reason)])
	}
}
