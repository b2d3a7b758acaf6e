package secrets

import (
	"errors"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestPasswordStore_RoundTrip(t *testing.T) {
	keyring.MockInit()
	ps := NewPasswordStore()

	if _, err := ps.Get("db", 5432, "sales", "alice"); !errors.Is(err, ErrPasswordNotFound) {
		t.Fatalf("Get() on empty store error = %v, want ErrPasswordNotFound", err)
	}

	if err := ps.Save("db", 5432, "sales", "alice", "s3cret"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := ps.Get("db", 5432, "sales", "alice")
	if err != nil || got != "s3cret" {
		t.Errorf("Get() = %q, %v", got, err)
	}

	// Other users on the same database are separate entries
	if _, err := ps.Get("db", 5432, "sales", "bob"); !errors.Is(err, ErrPasswordNotFound) {
		t.Errorf("Get() for another user error = %v", err)
	}

	if err := ps.Delete("db", 5432, "sales", "alice"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := ps.Delete("db", 5432, "sales", "alice"); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestPasswordStore_EmptyPasswordIsNotSaved(t *testing.T) {
	keyring.MockInit()
	ps := NewPasswordStore()
	if err := ps.Save("db", 5432, "sales", "alice", ""); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := ps.Get("db", 5432, "sales", "alice"); !errors.Is(err, ErrPasswordNotFound) {
		t.Errorf("empty password was stored")
	}
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		dsn  string
		want Target
	}{
		{
			dsn:  "postgres://alice@db.example.com:6543/sales",
			want: Target{Host: "db.example.com", Port: 6543, Database: "sales", User: "alice"},
		},
		{
			dsn:  "host=localhost port=5432 dbname=crm user=bob password=x",
			want: Target{Host: "localhost", Port: 5432, Database: "crm", User: "bob", HasPassword: true},
		},
	}
	for _, tt := range tests {
		got, err := ParseTarget(tt.dsn)
		if err != nil {
			t.Fatalf("ParseTarget(%q) error = %v", tt.dsn, err)
		}
		if got != tt.want {
			t.Errorf("ParseTarget(%q) = %+v, want %+v", tt.dsn, got, tt.want)
		}
	}

	if _, err := ParseTarget("postgres://%zz"); err == nil {
		t.Error("expected error for malformed URL")
	}
}

func TestSaveForAndDeleteFor(t *testing.T) {
	keyring.MockInit()
	ps := NewPasswordStore()
	dsn := "postgres://carol@localhost:5432/ops"

	target, err := ps.SaveFor(dsn, "pw")
	if err != nil {
		t.Fatalf("SaveFor() error = %v", err)
	}
	if target.String() != "carol@localhost:5432/ops" {
		t.Errorf("target = %s", target)
	}
	if got, _ := ps.Get("localhost", 5432, "ops", "carol"); got != "pw" {
		t.Errorf("stored password = %q", got)
	}

	if _, err := ps.DeleteFor(dsn); err != nil {
		t.Fatalf("DeleteFor() error = %v", err)
	}
	if _, err := ps.Get("localhost", 5432, "ops", "carol"); !errors.Is(err, ErrPasswordNotFound) {
		t.Error("password should be gone")
	}
}
