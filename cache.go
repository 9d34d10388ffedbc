package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"findidentical/database"
	"findidentical/logging"
	"findidentical/utils"
)

func newClearCacheCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-cache [DIR]",
		Short: "Remove the cached exports and dimensions of one folder, or of all folders",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			defer logging.CloseLogger()
			w := cmd.OutOrStdout()

			db, err := database.OpenDatabase(cfg.DatabasePath)
			if err != nil {
				logging.DebugLog("No database to clear: %v", err)
			} else {
				defer db.Close()
			}

			if len(args) == 1 {
				abs, err := filepath.Abs(args[0])
				if err != nil {
					return err
				}
				if err := utils.RemoveCache(cfg.CacheDir, abs); err != nil {
					return err
				}
				if db != nil {
					n, err := database.ForgetDimensions(db, abs)
					if err != nil {
						return err
					}
					logging.LogInfo("Forgot %d cached dimensions below %s", n, abs)
				}
				fmt.Fprintf(w, "Cleared cache of %s\n", abs)
				return nil
			}

			n, err := utils.ClearAllCache(cfg.CacheDir)
			if err != nil {
				return err
			}
			if db != nil {
				if _, err := database.ClearDimensions(db); err != nil {
					return err
				}
			}
			fmt.Fprintf(w, "Cleared %d cache directories in %s\n", n, cfg.CacheDir)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "findidentical %s\n", version)
		},
	}
}
