package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"oxbow/internal/driver"
	"oxbow/internal/project"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the export cache",
}

var cacheDirCmd = &cobra.Command{
	Use:   "dir",
	Short: "Print the cache directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := openCache(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), c.Dir())
		return nil
	},
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove every cached export",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := openCache(cmd)
		if err != nil {
			return err
		}
		if err := c.DropAll(); err != nil {
			return err
		}
		if quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet"); !quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "cleared %s\n", c.Dir())
		}
		return nil
	},
}

func init() {
	cacheCmd.PersistentFlags().String("dir", "", "cache directory (default: from oxbow.toml, else the user cache)")
	cacheCmd.AddCommand(cacheDirCmd, cacheCleanCmd)
}

// openCache picks --dir, then the manifest's cache, then the user cache.
func openCache(cmd *cobra.Command) (*driver.DiskCache, error) {
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		if m, ok, err := project.Discover(wd); err != nil {
			return nil, err
		} else if ok {
			dir = m.CacheDir()
		}
	}
	return driver.OpenDiskCache(dir, "oxbow")
}
