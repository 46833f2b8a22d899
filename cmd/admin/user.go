package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"txaudit/internal/domain/user"
	"txaudit/internal/infrastructure/sqlstore"
)

type createUserOptions struct {
	Username string
	Password string
	Role     string
}

// NewCreateUserCommand creates the create-user command.
func NewCreateUserCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &createUserOptions{}

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Register a user with the auditor or transactor role",
		Example: `  admin create-user --username alice --password s3cretpass --role auditor
  admin create-user --username bob --password s3cretpass --role transactor`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := rootOpts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			users := user.NewService(sqlstore.NewUserRepository(db))
			u, err := users.Register(cmd.Context(), opts.Username, opts.Password, user.Role(opts.Role))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s, %s)\n", u.ID, u.Username, u.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Username, "username", "", "login name (required)")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password, at least 8 characters (required)")
	cmd.Flags().StringVar(&opts.Role, "role", "", "auditor or transactor (required)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("role")

	return cmd
}
