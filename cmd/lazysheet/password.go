package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newPasswordCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pg-password",
		Short: "Store the PostgreSQL export password in the OS keyring",
		Long: `Store or remove the password for the configured PostgreSQL DSN.
The password is read from the first line of standard input and used
whenever the DSN itself has no password.`,
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "Read a password from stdin and store it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dsn := o.cfg.Postgres.DSN
			if dsn == "" {
				return withCode(ExitValidationError, errors.New("no PostgreSQL DSN configured (set postgres.dsn or LAZYSHEET_POSTGRES_DSN)"))
			}
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return withCode(ExitValidationError, errors.New("no password on standard input"))
			}
			password := strings.TrimRight(line, "\r\n")
			if password == "" {
				return withCode(ExitValidationError, errors.New("password is empty"))
			}
			target, err := o.sess.Passwords().SaveFor(dsn, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Stored password for %s\n", target)
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete",
		Short: "Remove the stored password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dsn := o.cfg.Postgres.DSN
			if dsn == "" {
				return withCode(ExitValidationError, errors.New("no PostgreSQL DSN configured (set postgres.dsn or LAZYSHEET_POSTGRES_DSN)"))
			}
			target, err := o.sess.Passwords().DeleteFor(dsn)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed password for %s\n", target)
			return nil
		},
	}

	cmd.AddCommand(set, del)
	return cmd
}
