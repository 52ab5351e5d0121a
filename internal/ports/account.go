package ports

import "context"

// AccountPort reads and updates account profiles.
type AccountPort interface {
	// UpdateProfile updates account profile fields for the given user.
	// userID identifies the account to update; username/displayName are applied as provided.
	// Returns an error if the profile update fails.
	UpdateProfile(ctx context.Context, userID, username, displayName string) error

	// DisplayNames resolves display names for userIDs. Unknown users are
	// missing from the result.
	DisplayNames(ctx context.Context, userIDs []string) (map[string]string, error)
}
