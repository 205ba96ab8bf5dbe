package admin

import (
	"bufio"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/finwise/internal/server/auth"
	"github.com/dmitrijs2005/finwise/internal/server/models"
	"github.com/dmitrijs2005/finwise/internal/server/services"
	"github.com/spf13/cobra"
)

func newMigrateCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending migrations to the PostgreSQL database.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			e, err := openEnv(ctx, cmd, *configFile)
			if err != nil {
				return err
			}
			defer e.db.Close()

			cmd.Println("Running migrations...")
			if err := e.rm.RunMigrations(ctx, e.db); err != nil {
				return err
			}

			cmd.Println("Migrations completed successfully")
			return nil
		},
	}
}

func newCreateUserCmd(configFile *string) *cobra.Command {
	var (
		email, firstName, lastName, birthday string
		passwordStdin, inactive              bool
	)

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user account",
		Long: `Create a user account. The password is prompted for twice on the
terminal, or read as one line from stdin with --password-stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			n := models.NewUser{Email: email, FirstName: firstName, LastName: lastName}
			if birthday != "" {
				b, err := time.Parse(models.DateLayout, birthday)
				if err != nil {
					return fmt.Errorf("birthday must be YYYY-MM-DD: %w", err)
				}
				n.Birthday = &b
			}

			var err error
			if passwordStdin {
				n.Password, err = readLine(bufio.NewReader(cmd.InOrStdin()))
			} else {
				n.Password, err = newPassword(cmd.OutOrStdout())
			}
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}

			e, err := openEnv(ctx, cmd, *configFile)
			if err != nil {
				return err
			}
			defer e.db.Close()

			us := services.NewUserService(e.db, e.rm, auth.NewArgon2idHasher(auth.DefaultArgon2Params), e.logger)

			u, err := us.Register(ctx, n)
			if err != nil {
				return err
			}
			if inactive {
				if u, err = us.SetActive(ctx, u.Email, false); err != nil {
					return err
				}
			}

			cmd.Printf("Created user %s (%s), active=%t\n", u.Email, u.ID, u.IsActive)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address (login)")
	cmd.Flags().StringVar(&firstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&birthday, "birthday", "", "birthday, YYYY-MM-DD")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "create the account deactivated")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("first-name")
	_ = cmd.MarkFlagRequired("last-name")

	return cmd
}

func newSetActiveCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "set-active <email> <true|false>",
		Short: "Activate or deactivate a user account",
		Long: `Activate or deactivate a user account. Tokens of a deactivated
user stop resolving immediately.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			active, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("active must be true or false: %w", err)
			}

			e, err := openEnv(ctx, cmd, *configFile)
			if err != nil {
				return err
			}
			defer e.db.Close()

			us := services.NewUserService(e.db, e.rm, auth.NewArgon2idHasher(auth.DefaultArgon2Params), e.logger)
			u, err := us.SetActive(ctx, args[0], active)
			if err != nil {
				return err
			}

			cmd.Printf("User %s active=%t\n", u.Email, u.IsActive)
			return nil
		},
	}
}
