package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/squadcart/core/session"
)

func newLoginCmd(rt *runtime) *cobra.Command {
	var (
		email    string
		password string
		remember bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the admin API",
		Long: "Sign in with email and password. Missing values are read from stdin.\n" +
			"With --remember the session survives new shells; otherwise it ends with the current one.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			var err error
			if email == "" {
				if email, err = prompt(in, out, "Email: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = prompt(in, out, "Password: "); err != nil {
					return err
				}
			}

			sess, err := rt.app.client.Login(cmd.Context(), email, password, remember)
			if err != nil && !errors.Is(err, session.ErrPersist) {
				return fmt.Errorf("login: %w", err)
			}
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: signed in, but credentials could not be saved")
			}

			fmt.Fprintf(out, "Logged in as %s", displayName(sess.User))
			if role := sess.User.Role(); role != "" {
				fmt.Fprintf(out, " (%s)", role)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	cmd.Flags().BoolVar(&remember, "remember", false, "Keep the session across shells")

	return cmd
}

func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimSpace(line), nil
}

func displayName(user session.Claims) string {
	for _, key := range []string{"email", "name", "username"} {
		if v := user.String(key); v != "" {
			return v
		}
	}
	if sub := user.Subject(); sub != "" {
		return sub
	}
	return "unknown user"
}
