package core

import (
	"context"
	"testing"
)

func TestRegisterCreatesIdentity(t *testing.T) {
	fixture := newServiceFixture(t)

	identity, err := fixture.service.Register(context.Background(), RegisterInput{
		Username: "  ada  ",
		Email:    "ada@example.com",
		Secret:   "correct-horse",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if identity.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if identity.Username != "ada" {
		t.Fatalf("expected trimmed username, got %q", identity.Username)
	}
	if identity.SecretHash == "correct-horse" {
		t.Fatalf("secret stored without hashing")
	}

	registered := fixture.audit.byAction(AuditActionIdentityRegistered)
	if len(registered) != 1 {
		t.Fatalf("expected one registration audit event, got %d", len(registered))
	}
	if registered[0].IdentityID != identity.ID {
		t.Fatalf("audit event bound to wrong identity: %+v", registered[0])
	}
}

func TestRegisterValidation(t *testing.T) {
	fixture := newServiceFixture(t)

	cases := []struct {
		name  string
		input RegisterInput
		field string
	}{
		{name: "missing username", input: RegisterInput{Email: "a@b.com", Secret: "x"}, field: "username"},
		{name: "blank username", input: RegisterInput{Username: "   ", Email: "a@b.com", Secret: "x"}, field: "username"},
		{name: "missing email", input: RegisterInput{Username: "ada", Secret: "x"}, field: "email"},
		{name: "missing password", input: RegisterInput{Username: "ada", Email: "a@b.com"}, field: "password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fixture.service.Register(context.Background(), tc.input)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if ErrorField(err) != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, ErrorField(err))
			}
		})
	}
}

func TestRegisterDuplicateConflicts(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.register(t, "ada")

	_, err := fixture.service.Register(context.Background(), RegisterInput{
		Username: "ada",
		Email:    "other@example.com",
		Secret:   "correct-horse",
	})
	if err == nil {
		t.Fatalf("expected conflict for duplicate username")
	}
	if !IsConflict(err) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if ErrorField(err) != "username" {
		t.Fatalf("expected field username, got %q", ErrorField(err))
	}

	_, err = fixture.service.Register(context.Background(), RegisterInput{
		Username: "grace",
		Email:    "ada@example.com",
		Secret:   "correct-horse",
	})
	if !IsConflict(err) {
		t.Fatalf("expected conflict for duplicate email, got %v", err)
	}
	if ErrorField(err) != "email" {
		t.Fatalf("expected field email, got %q", ErrorField(err))
	}
}

func TestLoginIssuesToken(t *testing.T) {
	fixture := newServiceFixture(t)
	registered := fixture.register(t, "ada")

	result, err := fixture.service.Login(context.Background(), LoginInput{
		Username: "ada",
		Secret:   "correct-horse",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.IdentityID != registered.ID {
		t.Fatalf("expected identity %d, got %d", registered.ID, result.IdentityID)
	}
	if result.Token == "" {
		t.Fatalf("expected a token")
	}

	identity, err := fixture.service.Authorize(context.Background(), result.Token)
	if err != nil {
		t.Fatalf("authorize issued token: %v", err)
	}
	if identity.ID != registered.ID {
		t.Fatalf("issued token resolved to wrong identity")
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.register(t, "ada")

	_, unknownErr := fixture.service.Login(context.Background(), LoginInput{
		Username: "nobody",
		Secret:   "whatever",
	})
	_, wrongErr := fixture.service.Login(context.Background(), LoginInput{
		Username: "ada",
		Secret:   "wrong-password",
	})

	for _, err := range []error{unknownErr, wrongErr} {
		if err == nil {
			t.Fatalf("expected login failure")
		}
		if !IsAuthFailure(err) {
			t.Fatalf("expected auth failure, got %v", err)
		}
		if AuthReason(err) != AuthReasonBadCredentials {
			t.Fatalf("expected reason bad_credentials, got %q", AuthReason(err))
		}
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Fatalf("failure messages differ: %q vs %q", unknownErr.Error(), wrongErr.Error())
	}
}

func TestLoginUnknownUserStillVerifiesDigest(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.register(t, "ada")

	before := fixture.hasher.calls()
	_, _ = fixture.service.Login(context.Background(), LoginInput{
		Username: "nobody",
		Secret:   "whatever",
	})
	if fixture.hasher.calls() != before+1 {
		t.Fatalf("expected exactly one verify call on unknown username path")
	}

	before = fixture.hasher.calls()
	_, _ = fixture.service.Login(context.Background(), LoginInput{
		Username: "ada",
		Secret:   "wrong-password",
	})
	if fixture.hasher.calls() != before+1 {
		t.Fatalf("expected exactly one verify call on wrong password path")
	}
}
