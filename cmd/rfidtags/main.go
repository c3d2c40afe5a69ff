// @title RFID Tag Management API
// @version 1.0.0
// @description CRUD and batch ingestion for RFID tags read by UHF readers.
// @BasePath /
package main

import (
	"fmt"
	"os"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	_ "rfidtags/docs"
)

const envFileFlag = "env-file"

var rootFlags = map[string]cobraflags.Flag{
	envFileFlag: &cobraflags.StringFlag{
		Name:  envFileFlag,
		Value: "",
		Usage: "Path to a .env file loaded outside production (default .env)",
	},
}

var rootCmd = &cobra.Command{
	Use:   "rfidtags",
	Short: "RFID tag management API",
	Long: `HTTP API for creating, listing, updating and deleting RFID tags.

Default behavior (no subcommand): serve the API.

Available subcommands:
  serve        - Run the HTTP server
  healthcheck  - Ping the database and exit non-zero on failure`,
	SilenceUsage: true,
	RunE:         serveCommand,
}

func newRootCommand() *cobra.Command {
	cobraflags.RegisterMap(rootCmd, rootFlags)
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newHealthcheckCommand())
	return rootCmd
}

func envFiles() []string {
	if f := rootFlags[envFileFlag].GetString(); f != "" {
		return []string{f}
	}
	return nil
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
