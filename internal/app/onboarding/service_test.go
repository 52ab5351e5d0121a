package onboarding

import (
	"context"
	"errors"
	"math/rand"
	"regexp"
	"testing"
)

type fakeAccountPort struct {
	failures int
	calls    []string
}

func (f *fakeAccountPort) UpdateProfile(ctx context.Context, userID, username, displayName string) error {
	f.calls = append(f.calls, username)
	if len(f.calls) <= f.failures {
		return errors.New("username taken")
	}
	return nil
}

func (f *fakeAccountPort) DisplayNames(ctx context.Context, userIDs []string) (map[string]string, error) {
	return nil, nil
}

var friendlyName = regexp.MustCompile(`^[A-Z][a-z]+[A-Z][a-z]+\d{4}$`)

func TestOnboardNewUser_SetsFriendlyName(t *testing.T) {
	accounts := &fakeAccountPort{}
	service := NewService(accounts, rand.New(rand.NewSource(1)))

	result, err := service.OnboardNewUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("OnboardNewUser returned error: %v", err)
	}
	if !friendlyName.MatchString(result.DisplayName) {
		t.Fatalf("unexpected display name %q", result.DisplayName)
	}
	if result.Attempts != 1 || len(accounts.calls) != 1 {
		t.Fatalf("attempts = %d, calls = %d", result.Attempts, len(accounts.calls))
	}
}

func TestOnboardNewUser_RetriesRejectedName(t *testing.T) {
	accounts := &fakeAccountPort{failures: 2}
	service := NewService(accounts, rand.New(rand.NewSource(7)))

	result, err := service.OnboardNewUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("OnboardNewUser returned error: %v", err)
	}
	if result.Attempts != 3 {
		t.Fatalf("attempts = %d, want 3", result.Attempts)
	}
	if result.DisplayName != accounts.calls[2] {
		t.Fatalf("display name %q is not the accepted one", result.DisplayName)
	}
}

func TestOnboardNewUser_GivesUpAfterRetries(t *testing.T) {
	accounts := &fakeAccountPort{failures: 10}
	service := NewService(accounts, rand.New(rand.NewSource(1)))

	if _, err := service.OnboardNewUser(context.Background(), "user-1"); err == nil {
		t.Fatal("expected error when every name is rejected")
	}
	if len(accounts.calls) != maxNameAttempts {
		t.Fatalf("calls = %d, want %d", len(accounts.calls), maxNameAttempts)
	}
}

func TestOnboardNewUser_RequiresUser(t *testing.T) {
	service := NewService(&fakeAccountPort{}, nil)
	if _, err := service.OnboardNewUser(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty user id")
	}
}
