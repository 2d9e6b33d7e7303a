package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"civil-quiz/internal/domain"
)

// IdentityKey is the storage key of the user record.
const IdentityKey = "civil_eng_global_user"

// KV abstracts the persistent string store behind the identity record
// (in-memory, state file, Redis).
type KV interface {
	Set(ctx context.Context, key, value string) error
	// Get returns ok=false when the key was never set.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Delete(ctx context.Context, key string) error
}

// IdentityStore keeps exactly one UserIdentity in a KV.
type IdentityStore struct {
	kv  KV
	key string
}

// NewIdentityStore scopes the record by scope when non-empty, e.g. per browser device.
func NewIdentityStore(kv KV, scope string) *IdentityStore {
	key := IdentityKey
	if scope != "" {
		key = scope + ":" + IdentityKey
	}
	return &IdentityStore{kv: kv, key: key}
}

// Save overwrites any previously stored identity.
func (s *IdentityStore) Save(ctx context.Context, user domain.UserIdentity) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(raw)); err != nil {
		return fmt.Errorf("save identity: %w", err)
	}
	return nil
}

// Load returns ok=false when no identity has been stored.
func (s *IdentityStore) Load(ctx context.Context) (domain.UserIdentity, bool, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return domain.UserIdentity{}, false, fmt.Errorf("load identity: %w", err)
	}
	if !ok {
		return domain.UserIdentity{}, false, nil
	}
	var user domain.UserIdentity
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return domain.UserIdentity{}, false, fmt.Errorf("decode identity: %w", err)
	}
	return user, true, nil
}

// Clear removes the stored identity.
func (s *IdentityStore) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, s.key)
}

// FirstName is the first whitespace-separated token of the user's name.
func FirstName(user domain.UserIdentity) string {
	fields := strings.Fields(user.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
