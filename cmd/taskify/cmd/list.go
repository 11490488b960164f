package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"taskify/internal/model"
	"taskify/internal/timeutil"
)

var (
	listGroup string
	listSort  string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print tasks grouped by status",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := model.ParseGroupMode(listGroup)
		if err != nil {
			return err
		}
		sortType, err := model.ParseSortType(listSort)
		if err != nil {
			return err
		}

		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		groups, err := a.tasks.Groups(cmd.Context(), mode, sortType)
		if err != nil {
			return err
		}
		writeGroups(cmd.OutOrStdout(), groups)
		return nil
	},
}

func writeGroups(w io.Writer, groups []model.TaskGroup) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}
	for i, group := range groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%d)\n", group.Name, len(group.Tasks))
		for _, task := range group.Tasks {
			fmt.Fprintf(w, "  #%-4d %s\n", task.ID, describe(task))
		}
	}
}

func describe(task model.Task) string {
	parts := []string{task.DisplayTitle()}
	if task.Date != nil {
		when := timeutil.StoredDate(*task.Date).String()
		if task.Time != nil {
			when += " " + timeutil.FormatMinutes(*task.Time)
		}
		parts = append(parts, when)
	}
	if task.Priority != model.NoPriority {
		parts = append(parts, "priority:"+task.Priority.String())
	}
	if len(task.Tags) > 0 {
		parts = append(parts, "#"+strings.Join(task.Tags, " #"))
	}
	return strings.Join(parts, "  ")
}

func init() {
	listCmd.Flags().StringVar(&listGroup, "group", "all", "all, today, planned or completed")
	listCmd.Flags().StringVar(&listSort, "sort", "date", "date, title or priority")
	rootCmd.AddCommand(listCmd)
}
