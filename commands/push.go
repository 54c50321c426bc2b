package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"leadprep/models"
)

func newPushCmd(a *app) *cobra.Command {
	var webhook string

	cmd := &cobra.Command{
		Use:   "push <file> --webhook URL",
		Short: "POST every row of a cleaned file to a webhook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if webhook == "" {
				return errors.New("--webhook is required")
			}

			errOut := cmd.ErrOrStderr()
			res, err := a.pusher().Push(cmd.Context(), args[0], webhook, func(f models.PushFailure) {
				fmt.Fprintf(errOut, "row %d (%s): %v\n", f.Line, f.Row[models.ColEmail], f.Err)
			})
			if res != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Pushed %d of %d rows to %s (%d failed, run %s)\n",
					res.Succeeded, res.Attempted, webhook, res.Failed(), res.RunID)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&webhook, "webhook", "", "webhook URL receiving one JSON object per row")
	return cmd
}
