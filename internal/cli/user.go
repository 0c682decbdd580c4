package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/todolist/internal/domain/user"
	"github.com/geocoder89/todolist/internal/service/accounts"
	"github.com/spf13/cobra"
)

func newUserCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	var req user.CreateUserRequest

	create := &cobra.Command{
		Use:   "create",
		Short: "Create an account with an explicit role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.Role != user.RoleAdmin && req.Role != user.RoleUser {
				return fmt.Errorf("--role must be %s or %s", user.RoleAdmin, user.RoleUser)
			}

			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			u, err := a.Accounts.CreateUser(cmd.Context(), req)
			if err != nil {
				var policy *accounts.PasswordPolicyError
				if errors.As(err, &policy) {
					return fmt.Errorf("password rejected:\n  %s", strings.Join(policy.Problems, "\n  "))
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", req.Role, u.Email, u.ID)
			return nil
		},
	}

	create.Flags().StringVar(&req.Email, "email", "", "email address, also the user name")
	create.Flags().StringVar(&req.Password, "password", "", "initial password")
	create.Flags().StringVar(&req.FirstName, "first-name", "", "first name")
	create.Flags().StringVar(&req.LastName, "last-name", "", "last name")
	create.Flags().StringVar(&req.Role, "role", user.RoleUser, "Admin or User")
	for _, f := range []string{"email", "password", "first-name", "last-name"} {
		_ = create.MarkFlagRequired(f)
	}

	cmd.AddCommand(create)
	return cmd
}
