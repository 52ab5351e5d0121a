package onboarding

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"blockus/internal/ports"
)

// maxNameAttempts bounds retries when a generated username is taken.
const maxNameAttempts = 3

// Result captures the outcome of onboarding.
type Result struct {
	DisplayName string
	Attempts    int
}

// Service handles post-auth onboarding for new users.
type Service struct {
	accounts ports.AccountPort
	rng      *rand.Rand
}

// NewService constructs an onboarding service.
// accounts must be non-nil; rng may be nil to use a time-seeded default.
func NewService(accounts ports.AccountPort, rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		accounts: accounts,
		rng:      rng,
	}
}

// OnboardNewUser gives a newly created account a friendly username and
// display name, retrying with a fresh name when the update is rejected.
func (s *Service) OnboardNewUser(ctx context.Context, userID string) (Result, error) {
	if s.accounts == nil {
		return Result{}, fmt.Errorf("onboarding service not configured")
	}
	if userID == "" {
		return Result{}, fmt.Errorf("userID is required")
	}

	var lastErr error
	for attempt := 1; attempt <= maxNameAttempts; attempt++ {
		name := s.generateFriendlyName()
		if err := s.accounts.UpdateProfile(ctx, userID, name, name); err != nil {
			lastErr = err
			continue
		}
		return Result{DisplayName: name, Attempts: attempt}, nil
	}
	return Result{Attempts: maxNameAttempts}, fmt.Errorf("failed to set profile for %s: %w", userID, lastErr)
}

func (s *Service) generateFriendlyName() string {
	adjectives := []string{"Blue", "Bold", "Sharp", "Quiet", "Lucky", "Nimble", "Sunny", "Crafty", "Steady", "Rapid"}
	nouns := []string{"Corner", "Domino", "Tromino", "Pentomino", "Square", "Tile", "Block", "Diagonal", "Edge", "Grid"}

	adj := adjectives[s.rng.Intn(len(adjectives))]
	noun := nouns[s.rng.Intn(len(nouns))]
	num := s.rng.Intn(9000) + 1000

	return fmt.Sprintf("%s%s%d", adj, noun, num)
}
