package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"

	"blockus/internal/bot"
	"blockus/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

func init() {
	if err := bot.LoadIdentities("testdata/bot_identities.json"); err != nil {
		panic("Failed to load bot identities for tests: " + err.Error())
	}
}

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

type sentMessage struct {
	opCode     int64
	data       []byte
	recipients []runtime.Presence
}

func (m sentMessage) decode() map[string]interface{} {
	out := map[string]interface{}{}
	_ = json.Unmarshal(m.data, &out)
	return out
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	messages []sentMessage
	labels   []string
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	md.messages = append(md.messages, sentMessage{
		opCode:     opCode,
		data:       append([]byte(nil), data...),
		recipients: presences,
	})
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labels = append(md.labels, label)
	return nil
}

func (md *mockDispatcher) byOp(op int64) []sentMessage {
	var out []sentMessage
	for _, m := range md.messages {
		if m.opCode == op {
			out = append(out, m)
		}
	}
	return out
}

func (md *mockDispatcher) lastLabel() map[string]interface{} {
	out := map[string]interface{}{}
	if len(md.labels) > 0 {
		_ = json.Unmarshal([]byte(md.labels[len(md.labels)-1]), &out)
	}
	return out
}

type testPresence struct {
	userID   string
	username string
}

func (p testPresence) GetHidden() bool                   { return false }
func (p testPresence) GetPersistence() bool              { return false }
func (p testPresence) GetUsername() string               { return p.username }
func (p testPresence) GetStatus() string                 { return "" }
func (p testPresence) GetReason() runtime.PresenceReason { return runtime.PresenceReasonUnknown }
func (p testPresence) GetUserId() string                 { return p.userID }
func (p testPresence) GetSessionId() string              { return "session-" + p.userID }
func (p testPresence) GetNodeId() string                 { return "node-1" }

type testMatchData struct {
	testPresence
	opCode int64
	data   []byte
}

func (d testMatchData) GetOpCode() int64      { return d.opCode }
func (d testMatchData) GetData() []byte       { return d.data }
func (d testMatchData) GetReliable() bool     { return true }
func (d testMatchData) GetReceiveTime() int64 { return 0 }

type fakeScoreboard struct {
	recorded []ports.ScoreEntry
}

func (f *fakeScoreboard) RecordResults(ctx context.Context, entries []ports.ScoreEntry) error {
	f.recorded = append(f.recorded, entries...)
	return nil
}

func (f *fakeScoreboard) Stats(ctx context.Context, userID string) (ports.PlayerStats, error) {
	return ports.PlayerStats{}, nil
}

type fakeAccounts struct {
	names map[string]string
}

func (f *fakeAccounts) UpdateProfile(ctx context.Context, userID, username, displayName string) error {
	return nil
}

func (f *fakeAccounts) DisplayNames(ctx context.Context, userIDs []string) (map[string]string, error) {
	return f.names, nil
}

type storedObject struct {
	value   string
	version int
}

// fakeNakama implements the slice of runtime.NakamaModule the adapters use.
// Any other call panics on the nil embedded interface.
type fakeNakama struct {
	runtime.NakamaModule

	mu             sync.Mutex
	records        []*api.LeaderboardRecord
	storage        map[string]storedObject
	failWrites     int
	users          map[string]*api.User
	profileUpdates []string
	rejectProfiles int
	signal         func(matchID, data string) (string, error)
}

func newFakeNakama() *fakeNakama {
	return &fakeNakama{
		storage: map[string]storedObject{},
		users:   map[string]*api.User{},
	}
}

var errVersionConflict = errors.New("storage version check failed")

func storageKey(collection, key, userID string) string {
	return collection + "/" + key + "/" + userID
}

func (f *fakeNakama) LeaderboardRecordWrite(ctx context.Context, id, ownerID, username string, score, subscore int64, metadata map[string]interface{}, overrideOperator *int) (*api.LeaderboardRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := &api.LeaderboardRecord{LeaderboardId: id, OwnerId: ownerID, Score: score}
	f.records = append(f.records, rec)
	return rec, nil
}

func (f *fakeNakama) StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*api.StorageObject
	for _, r := range reads {
		obj, ok := f.storage[storageKey(r.Collection, r.Key, r.UserID)]
		if !ok {
			continue
		}
		out = append(out, &api.StorageObject{
			Collection: r.Collection,
			Key:        r.Key,
			UserId:     r.UserID,
			Value:      obj.value,
			Version:    strconv.Itoa(obj.version),
		})
	}
	return out, nil
}

func (f *fakeNakama) StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites > 0 {
		f.failWrites--
		return nil, errVersionConflict
	}
	acks := make([]*api.StorageObjectAck, 0, len(writes))
	for _, w := range writes {
		k := storageKey(w.Collection, w.Key, w.UserID)
		obj, exists := f.storage[k]
		switch {
		case w.Version == "*" && exists:
			return nil, errVersionConflict
		case w.Version != "" && w.Version != "*" && w.Version != strconv.Itoa(obj.version):
			return nil, errVersionConflict
		}
		obj.value = w.Value
		obj.version++
		f.storage[k] = obj
		acks = append(acks, &api.StorageObjectAck{Collection: w.Collection, Key: w.Key, UserId: w.UserID, Version: strconv.Itoa(obj.version)})
	}
	return acks, nil
}

func (f *fakeNakama) UsersGetId(ctx context.Context, userIDs []string, facebookIDs []string) ([]*api.User, error) {
	var out []*api.User
	for _, id := range userIDs {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeNakama) AccountUpdateId(ctx context.Context, userID, username string, metadata map[string]interface{}, displayName, timezone, location, langTag, avatarUrl string) error {
	if f.rejectProfiles > 0 {
		f.rejectProfiles--
		return errors.New("username taken")
	}
	f.profileUpdates = append(f.profileUpdates, displayName)
	return nil
}

func (f *fakeNakama) MatchSignal(ctx context.Context, id string, data string) (string, error) {
	if f.signal == nil {
		return "", errors.New("match not found")
	}
	return f.signal(id, data)
}
