/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tunebox",
	Short: "The tunebox backend API server",
	Long: `The tunebox backend API server and its companion commands.

	tunebox server      starts the HTTP API
	tunebox migrate up  applies database migrations
	tunebox sms-worker  drains the SMS dispatch queue
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
