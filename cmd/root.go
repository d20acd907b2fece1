// Package cmd provides the suichan command-line surface: serve (run the
// bridge as a long-lived service), send (post a one-off message), and
// version.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags; "dev" otherwise.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "suichan",
	Short: "suichan bridges a streaming LLM reply to Slack's rich-text blocks",
}

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the suichan version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("suichan " + Version)
		},
	})
}

// Execute runs the root command, exiting the process on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
