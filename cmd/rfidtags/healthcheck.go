package main

import (
	"context"
	"fmt"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"rfidtags/config"
	"rfidtags/internal/repository/postgres"
)

func newHealthcheckCommand() *cobra.Command {
	healthcheckCmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Ping the database and exit non-zero on failure",
		RunE:  healthcheckCommand,
	}
	cobraflags.RegisterMap(healthcheckCmd, rootFlags)
	return healthcheckCmd
}

func healthcheckCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(envFiles()...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
	defer cancel()

	// Open pings before returning.
	db, err := postgres.Open(ctx, cfg.DBUrl, postgres.PoolConfig{MaxOpenConns: 1})
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return nil
}
