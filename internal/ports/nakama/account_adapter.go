package nakama

import (
	"context"

	"blockus/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// NakamaAccountAdapter implements ports.AccountPort using Nakama's account API.
type NakamaAccountAdapter struct {
	nk runtime.NakamaModule
}

// NewNakamaAccountAdapter creates a new account adapter.
func NewNakamaAccountAdapter(nk runtime.NakamaModule) *NakamaAccountAdapter {
	return &NakamaAccountAdapter{nk: nk}
}

// UpdateProfile updates the account username and display name in Nakama.
func (a *NakamaAccountAdapter) UpdateProfile(ctx context.Context, userID, username, displayName string) error {
	return a.nk.AccountUpdateId(ctx, userID, username, nil, displayName, "", "", "", "")
}

// DisplayNames looks up users in one call. Users without a display name map
// to their username; unknown IDs are absent from the result.
func (a *NakamaAccountAdapter) DisplayNames(ctx context.Context, userIDs []string) (map[string]string, error) {
	users, err := a.nk.UsersGetId(ctx, userIDs, nil)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		name := u.GetDisplayName()
		if name == "" {
			name = u.GetUsername()
		}
		names[u.GetId()] = name
	}
	return names, nil
}

var _ ports.AccountPort = (*NakamaAccountAdapter)(nil)
