// histdump inspects and maintains history files
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kjk/history/history"
	"github.com/kjk/history/log"
)

var (
	flgLogDir  string
	flgVerbose bool
)

var rootCmd = &cobra.Command{
	Use:           "histdump",
	Short:         "Inspect and maintain history files",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Verbose = flgVerbose
		log.Init(&log.Config{Dir: flgLogDir})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flgLogDir, "log-dir", "", "directory for log files, logs only go to stdout if empty")
	rootCmd.PersistentFlags().BoolVarP(&flgVerbose, "verbose", "v", false, "verbose logging")
}

// loadItems reads history file, returning read errors instead of
// swallowing them like Store.Load does
func loadItems(path string) ([]*history.Item, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	s := history.NewStore(path)
	return s.ReadFile()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
