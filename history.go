package main

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"findidentical/database"
	"findidentical/logging"
	"findidentical/types"
)

func newHistoryCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [RUN_ID]",
		Short: "List past runs or show the sets found by one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			defer logging.CloseLogger()

			db, err := database.OpenDatabase(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer db.Close()

			if len(args) == 1 {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid run id %q", args[0])
				}
				return showRun(cmd, db, id)
			}
			return listRuns(cmd, db, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to list (0 for all)")
	return cmd
}

func listRuns(cmd *cobra.Command, db *sql.DB, limit int) error {
	w := cmd.OutOrStdout()
	runs, err := database.ListRuns(db, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	gray := color.New(color.FgHiBlack).SprintFunc()
	for _, r := range runs {
		dirs := r.Dir1
		if r.Dir2 != "" {
			dirs += " <-> " + r.Dir2
		}
		fmt.Fprintf(w, "%4d  %s  %s\n", r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), dirs)
		fmt.Fprintf(w, "      %s\n", gray(fmt.Sprintf("%d identical in %d sets, %d images, %d malformed, %v",
			r.IdenticalCount, r.GroupCount, r.ImageCount1+r.ImageCount2, r.MalformedCount, r.Elapsed)))
	}
	return nil
}

func showRun(cmd *cobra.Command, db *sql.DB, id int64) error {
	w := cmd.OutOrStdout()
	run, err := database.GetRun(db, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("no run with id %d", id)
	}
	if err != nil {
		return err
	}
	members, err := database.GetRunGroups(db, id)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintf(w, "%s\n", cyan(fmt.Sprintf("=== Run %d (%s) ===", run.ID, run.StartedAt.Local().Format("2006-01-02 15:04:05"))))
	roots := map[types.Collection]string{types.CollectionA: run.Dir1, types.CollectionB: run.Dir2}

	var bucket types.BucketKey
	group := -1
	for _, m := range members {
		if m.Bucket != bucket || m.GroupID != group {
			bucket, group = m.Bucket, m.GroupID
			fmt.Fprintf(w, "[%s] set %d:\n", bucket, group)
		}
		fmt.Fprintf(w, "    %s/%s\n", roots[m.Collection], m.Path)
	}
	fmt.Fprintf(w, "%d identical images in %d sets\n", run.IdenticalCount, run.GroupCount)
	return nil
}
