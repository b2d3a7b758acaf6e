// Package secrets keeps PostgreSQL passwords in the OS keyring so the
// configured DSN does not have to carry them.
package secrets

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/zalando/go-keyring"
)

const serviceName = "lazysheet"

// ErrPasswordNotFound is returned when no password is stored for a key
var ErrPasswordNotFound = errors.New("password not found in keyring")

// PasswordStore reads and writes passwords in the OS keyring
type PasswordStore struct {
	service string
}

// NewPasswordStore creates a store under the lazysheet service name
func NewPasswordStore() *PasswordStore {
	return &PasswordStore{service: serviceName}
}

// Save stores a password. Empty passwords are not saved.
func (ps *PasswordStore) Save(host string, port uint16, database, user, password string) error {
	if password == "" {
		return nil
	}
	if err := keyring.Set(ps.service, makeKey(host, port, database, user), password); err != nil {
		return fmt.Errorf("failed to save password to keyring: %w", err)
	}
	return nil
}

// Get returns the stored password
func (ps *PasswordStore) Get(host string, port uint16, database, user string) (string, error) {
	password, err := keyring.Get(ps.service, makeKey(host, port, database, user))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrPasswordNotFound
		}
		return "", fmt.Errorf("failed to read password from keyring: %w", err)
	}
	return password, nil
}

// Delete removes a stored password; a missing one is not an error
func (ps *PasswordStore) Delete(host string, port uint16, database, user string) error {
	err := keyring.Delete(ps.service, makeKey(host, port, database, user))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete password from keyring: %w", err)
	}
	return nil
}

// Target identifies the server, database and role a DSN connects as
type Target struct {
	Host     string
	Port     uint16
	Database string
	User     string
	// HasPassword is true when the DSN itself carries a password
	HasPassword bool
}

func (t Target) String() string {
	return fmt.Sprintf("%s@%s:%d/%s", t.User, t.Host, t.Port, t.Database)
}

// ParseTarget reads the connection target out of a DSN or URL
func ParseTarget(dsn string) (Target, error) {
	cfg, err := pgconn.ParseConfig(dsn)
	if err != nil {
		return Target{}, fmt.Errorf("failed to parse connection string: %w", err)
	}
	return Target{
		Host:        cfg.Host,
		Port:        cfg.Port,
		Database:    cfg.Database,
		User:        cfg.User,
		HasPassword: cfg.Password != "",
	}, nil
}

// SaveFor stores password for the target of dsn
func (ps *PasswordStore) SaveFor(dsn, password string) (Target, error) {
	t, err := ParseTarget(dsn)
	if err != nil {
		return Target{}, err
	}
	return t, ps.Save(t.Host, t.Port, t.Database, t.User, password)
}

// DeleteFor removes the password stored for the target of dsn
func (ps *PasswordStore) DeleteFor(dsn string) (Target, error) {
	t, err := ParseTarget(dsn)
	if err != nil {
		return Target{}, err
	}
	return t, ps.Delete(t.Host, t.Port, t.Database, t.User)
}

// makeKey creates a unique key: "host:port:database:user"
func makeKey(host string, port uint16, database, user string) string {
	return fmt.Sprintf("%s:%d:%s:%s", host, port, database, user)
}
