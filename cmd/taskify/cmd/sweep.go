package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Check for overdue tasks now and notify",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.tasks.CheckNow(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d overdue task(s)\n", len(result.Overdue))
		for _, task := range result.Overdue {
			fmt.Fprintf(out, "  #%d %s\n", task.ID, task.DisplayTitle())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
