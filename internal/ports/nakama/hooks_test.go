package nakama

import (
	"context"
	"testing"

	"github.com/form3tech-oss/jwt-go"
	"github.com/heroiclabs/nakama-common/api"
)

func sessionToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-key"))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestExtractUserIDFromToken(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		want    string
		wantErr bool
	}{
		{name: "Valid", token: sessionToken(t, jwt.MapClaims{"uid": "user-42", "usn": "player"}), want: "user-42"},
		{name: "MissingUID", token: sessionToken(t, jwt.MapClaims{"usn": "player"}), wantErr: true},
		{name: "Garbage", token: "not-a-token", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractUserIDFromToken(tt.token)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("uid = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAfterAuthenticateDevice(t *testing.T) {
	t.Run("ExistingAccount", func(t *testing.T) {
		nk := newFakeNakama()
		if err := AfterAuthenticateDevice(context.Background(), noopLogger{}, nil, nk, &api.Session{Created: false}, nil); err != nil {
			t.Fatal(err)
		}
		if len(nk.profileUpdates) != 0 {
			t.Fatal("existing account was renamed")
		}
	})

	t.Run("NewAccountFromToken", func(t *testing.T) {
		nk := newFakeNakama()
		nk.rejectProfiles = 1
		out := &api.Session{Created: true, Token: sessionToken(t, jwt.MapClaims{"uid": "user-7"})}
		if err := AfterAuthenticateDevice(context.Background(), noopLogger{}, nil, nk, out, nil); err != nil {
			t.Fatal(err)
		}
		if len(nk.profileUpdates) != 1 || nk.profileUpdates[0] == "" {
			t.Fatalf("profile updates = %v", nk.profileUpdates)
		}
	})

	t.Run("OnboardingFails", func(t *testing.T) {
		nk := newFakeNakama()
		nk.rejectProfiles = 10
		out := &api.Session{Created: true}
		if err := AfterAuthenticateDevice(userCtx("user-8"), noopLogger{}, nil, nk, out, nil); err == nil {
			t.Fatal("expected onboarding error")
		}
	})
}

func TestAccountAdapter_DisplayNames(t *testing.T) {
	nk := newFakeNakama()
	nk.users["alice"] = &api.User{Id: "alice", Username: "alice01", DisplayName: "Alice"}
	nk.users["bob"] = &api.User{Id: "bob", Username: "bob02"}

	names, err := NewNakamaAccountAdapter(nk).DisplayNames(context.Background(), []string{"alice", "bob", "ghost"})
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names["alice"] != "Alice" || names["bob"] != "bob02" {
		t.Fatalf("names = %v", names)
	}
}
