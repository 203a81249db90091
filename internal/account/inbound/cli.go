package inbound

import (
	"context"

	"github.com/shandysiswandi/margamflow/internal/account/usecase"
	"github.com/spf13/cobra"
)

type uc interface {
	CheckUsername(ctx context.Context, in usecase.CheckUsernameInput) (*usecase.CheckUsernameOutput, error)
	SignUp(ctx context.Context, in usecase.SignUpInput) error
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)

	SetupRecovery(ctx context.Context, in usecase.SetupRecoveryInput) error
	VerifyRecovery(ctx context.Context, in usecase.VerifyRecoveryInput) (*usecase.VerifyRecoveryOutput, error)
	ResetPassword(ctx context.Context, in usecase.ResetPasswordInput) error
}

// RegisterCLICommand attaches the "account" command tree to root. load runs
// once, before any account subcommand, so commands outside the tree never
// touch the account store.
func RegisterCLICommand[U uc](root *cobra.Command, load func(ctx context.Context) (U, error)) {
	end := &CLIEndpoint{}

	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage user accounts and their credentials",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if end.uc != nil {
				return nil
			}

			u, err := load(cmd.Context())
			if err != nil {
				return err
			}
			end.uc = u

			return nil
		},
	}

	cmd.AddCommand(
		end.checkUsernameCommand(),
		end.signUpCommand(),
		end.loginCommand(),
		end.setupRecoveryCommand(),
		end.verifyRecoveryCommand(),
		end.resetPasswordCommand(),
	)

	root.AddCommand(cmd)
}
