package inbound

import (
	"fmt"

	"github.com/shandysiswandi/margamflow/internal/account/entity"
	"github.com/shandysiswandi/margamflow/internal/account/usecase"
	"github.com/shandysiswandi/margamflow/internal/pkg/goerror"
	"github.com/spf13/cobra"
)

// CLIEndpoint exposes the account usecases as cobra commands.
type CLIEndpoint struct {
	uc uc
}

func (h *CLIEndpoint) checkUsernameCommand() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "check-username",
		Short: "Report whether a username is still available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := h.uc.CheckUsername(cmd.Context(), usecase.CheckUsernameInput{Username: username})
			if err != nil {
				return err
			}

			status := "taken"
			if out.Available {
				status = "available"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", username, status)
			return err
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "username to check")

	return cmd
}

func (h *CLIEndpoint) signUpCommand() *cobra.Command {
	var in usecase.SignUpInput

	cmd := &cobra.Command{
		Use:   "sign-up",
		Short: "Register a new account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := h.uc.SignUp(cmd.Context(), in); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "account %s registered\n", in.Username)
			return err
		},
	}
	cmd.Flags().StringVar(&in.Username, "username", "", "unique username")
	cmd.Flags().StringVar(&in.Password, "password", "", "account password")
	cmd.Flags().StringVar(&in.ConfirmPassword, "confirm-password", "", "password confirmation")
	cmd.Flags().StringVar(&in.Name, "name", "", "display name (optional)")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address (optional)")

	return cmd
}

func (h *CLIEndpoint) loginCommand() *cobra.Command {
	var in usecase.LoginInput

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Check a username and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := h.uc.Login(cmd.Context(), in)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(w, "welcome %s\n", displayName(out)); err != nil {
				return err
			}
			if out.Email != "" {
				_, err = fmt.Fprintf(w, "email: %s\n", out.Email)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&in.Username, "username", "", "username")
	cmd.Flags().StringVar(&in.Password, "password", "", "password")

	return cmd
}

func (h *CLIEndpoint) setupRecoveryCommand() *cobra.Command {
	var (
		in      usecase.SetupRecoveryInput
		answers []string
	)

	cmd := &cobra.Command{
		Use:   "setup-recovery",
		Short: "Store answers to the three recovery questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if in.Answers, err = toAnswers(answers); err != nil {
				return err
			}

			if err := h.uc.SetupRecovery(cmd.Context(), in); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "recovery answers saved for %s\n", in.Username)
			return err
		},
	}
	cmd.Flags().StringVar(&in.Username, "username", "", "username")
	cmd.Flags().StringVar(&in.Password, "password", "", "current password")
	cmd.Flags().StringArrayVar(&answers, "answer", nil, "recovery answer, repeat three times in question order")

	return cmd
}

func (h *CLIEndpoint) verifyRecoveryCommand() *cobra.Command {
	var (
		in      usecase.VerifyRecoveryInput
		answers []string
	)

	cmd := &cobra.Command{
		Use:   "verify-recovery",
		Short: "Check recovery answers without changing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if in.Answers, err = toAnswers(answers); err != nil {
				return err
			}

			out, err := h.uc.VerifyRecovery(cmd.Context(), in)
			if err != nil {
				return err
			}

			verdict := "passed"
			if !out.Passed {
				verdict = "failed"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d of %d answers correct (%d required): %s\n",
				out.Correct, entity.RecoveryQuestionCount, out.Required, verdict)
			return err
		},
	}
	cmd.Flags().StringVar(&in.Username, "username", "", "username")
	cmd.Flags().StringArrayVar(&answers, "answer", nil, "recovery answer, repeat three times in question order")

	return cmd
}

func (h *CLIEndpoint) resetPasswordCommand() *cobra.Command {
	var (
		in      usecase.ResetPasswordInput
		answers []string
	)

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password after answering the recovery questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if in.Answers, err = toAnswers(answers); err != nil {
				return err
			}

			if err := h.uc.ResetPassword(cmd.Context(), in); err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), "password reset successful")
			return err
		},
	}
	cmd.Flags().StringVar(&in.Username, "username", "", "username")
	cmd.Flags().StringArrayVar(&answers, "answer", nil, "recovery answer, repeat three times in question order")
	cmd.Flags().StringVar(&in.NewPassword, "new-password", "", "new password")

	return cmd
}

func toAnswers(answers []string) ([entity.RecoveryQuestionCount]string, error) {
	var out [entity.RecoveryQuestionCount]string
	if len(answers) != entity.RecoveryQuestionCount {
		return out, goerror.NewInvalidFormat(
			fmt.Sprintf("exactly %d --answer flags are required, got %d", entity.RecoveryQuestionCount, len(answers)))
	}

	copy(out[:], answers)
	return out, nil
}

func displayName(out *usecase.LoginOutput) string {
	if out.Name != "" {
		return out.Name
	}
	return out.Username
}
