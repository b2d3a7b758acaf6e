package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/rebeliceyang/lazysheet/internal/secrets"
)

func runWithInput(t *testing.T, input string, args ...string) (int, string) {
	t.Helper()
	root, opts := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetArgs(args)
	root.SetIn(strings.NewReader(input))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.Execute()
	opts.teardown()
	return exitCode(err), stdout.String()
}

func TestPasswordCommand_SetAndDelete(t *testing.T) {
	sandbox(t)
	keyring.MockInit()
	t.Setenv("LAZYSHEET_POSTGRES_DSN", "postgres://loader@db.local:5433/warehouse")

	code, stdout := runWithInput(t, "hunter2\n", "pg-password", "set")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "Stored password for loader@db.local:5433/warehouse")

	got, err := secrets.NewPasswordStore().Get("db.local", 5433, "warehouse", "loader")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got)

	code, stdout = runWithInput(t, "", "pg-password", "delete")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "Removed password")

	_, err = secrets.NewPasswordStore().Get("db.local", 5433, "warehouse", "loader")
	assert.ErrorIs(t, err, secrets.ErrPasswordNotFound)
}

func TestPasswordCommand_Errors(t *testing.T) {
	sandbox(t)
	keyring.MockInit()

	code, _ := runWithInput(t, "pw\n", "pg-password", "set")
	assert.Equal(t, ExitValidationError, code, "no DSN configured")

	t.Setenv("LAZYSHEET_POSTGRES_DSN", "postgres://loader@db.local/warehouse")
	code, _ = runWithInput(t, "", "pg-password", "set")
	assert.Equal(t, ExitValidationError, code, "empty stdin")
}
