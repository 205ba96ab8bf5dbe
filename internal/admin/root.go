// Package admin implements the operator command line: schema migrations and
// account management against the same database the API uses.
package admin

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/finwise/internal/logging"
	"github.com/dmitrijs2005/finwise/internal/server/config"
	"github.com/dmitrijs2005/finwise/internal/server/repositories/repomanager"
	"github.com/spf13/cobra"
)

var openDB = repomanager.Open

var newRepositoryManager = repomanager.NewPostgresRepositoryManager

// NewRootCmd creates the root command of the admin CLI.
func NewRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:           "finwise-admin",
		Short:         "FinWise operator tools",
		Long:          `Operator tools for the FinWise API: run migrations and manage user accounts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")

	cmd.AddCommand(newMigrateCmd(&configFile))
	cmd.AddCommand(newCreateUserCmd(&configFile))
	cmd.AddCommand(newSetActiveCmd(&configFile))

	return cmd
}

// env is what every subcommand needs from the configuration.
type env struct {
	db     *sql.DB
	rm     repomanager.RepositoryManager
	logger logging.Logger
}

func openEnv(ctx context.Context, cmd *cobra.Command, configFile string) (*env, error) {
	var args []string
	if configFile != "" {
		args = []string{"-c", configFile}
	}

	cfg, err := config.LoadConfig(args)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger, err := logging.New(cfg.LogBackend, cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	db, err := openDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return &env{db: db, rm: newRepositoryManager(), logger: logger}, nil
}
