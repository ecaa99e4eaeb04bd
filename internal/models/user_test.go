package models

import (
	"errors"
	"testing"
)

func TestCreateUser_AndAuthenticate(t *testing.T) {
	db := testDB(t)

	u, err := CreateUser(db, "coach", "secret123", "coach@example.com", true)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if !u.IsCoach || u.Username != "coach" || !u.Email.Valid {
		t.Errorf("user = %+v", u)
	}
	if u.PasswordHash == "secret123" {
		t.Error("password stored in plaintext")
	}

	got, err := Authenticate(db, "coach", "secret123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("authenticated id = %d, want %d", got.ID, u.ID)
	}

	if _, err := Authenticate(db, "coach", "wrong"); !errors.Is(err, ErrNotFound) {
		t.Errorf("bad password err = %v, want ErrNotFound", err)
	}
	if _, err := Authenticate(db, "nobody", "secret123"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown user err = %v, want ErrNotFound", err)
	}
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	db := testDB(t)

	if _, err := CreateUser(db, "coach", "secret123", "", true); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := CreateUser(db, "coach", "other456", "", false); !errors.Is(err, ErrDuplicateUsername) {
		t.Errorf("err = %v, want ErrDuplicateUsername", err)
	}
}

func TestCountUsers(t *testing.T) {
	db := testDB(t)

	n, err := CountUsers(db)
	if err != nil || n != 0 {
		t.Fatalf("empty count = %d, %v", n, err)
	}
	if _, err := CreateUser(db, "coach", "secret123", "", true); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if n, _ = CountUsers(db); n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}
