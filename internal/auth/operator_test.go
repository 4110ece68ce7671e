package auth

import (
	"errors"
	"testing"
)

func TestOperatorAuthenticateAcceptsCorrectPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	op := NewOperator("op1", hash)

	if err := op.Authenticate("correct horse battery staple"); err != nil {
		t.Fatalf("expected authentication to succeed, got %v", err)
	}
}

func TestOperatorAuthenticateRejectsWrongPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	op := NewOperator("op1", hash)

	if err := op.Authenticate("wrong password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestOperatorAuthenticateRejectsEmptyHash(t *testing.T) {
	op := NewOperator("op1", "")
	if err := op.Authenticate("anything"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for empty hash, got %v", err)
	}
}
