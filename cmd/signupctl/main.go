package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dhawalhost/signupgate/internal/signup"
	"github.com/dhawalhost/signupgate/pkg/client"
	"github.com/spf13/cobra"
)

const defaultBaseURL = "http://localhost:8080"

// errInvalidEmail makes check-email exit non-zero without a second message.
var errInvalidEmail = errors.New("invalid email")

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		if !errors.Is(err, errInvalidEmail) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "signupctl",
		Short:         "Check emails and create accounts against signupsvc",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.AddCommand(newCheckEmailCmd(), newSignUpCmd())
	return root
}

func newCheckEmailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-email <email>",
		Short: "Validate an email address locally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !signup.IsValidEmail(args[0]) {
				fmt.Fprintln(cmd.OutOrStdout(), signup.MessageInvalidEmail)
				return errInvalidEmail
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func newSignUpCmd() *cobra.Command {
	var (
		baseURL  string
		email    string
		password string
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account through the sign-up API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("SIGNUP_PASSWORD")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			identity, err := client.New(client.Config{BaseURL: baseURL}).SignUp(ctx, email, password)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(identity)
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", defaultBaseURL, "signupsvc base URL")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (or SIGNUP_PASSWORD)")
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "request timeout")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
