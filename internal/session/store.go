// Package session maps opaque tokens to user ids in the key-value cache.
// Expiry is left entirely to the cache TTL.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const keyPrefix = "auth_"

// DefaultTTL is the lifetime of a freshly minted session.
const DefaultTTL = 24 * time.Hour

var ErrNoSession = errors.New("session: no active session for token")

// KV is the subset of the cache the session store needs.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttlSeconds int) error
	Del(ctx context.Context, key string) (bool, error)
}

type Store struct {
	kv  KV
	ttl time.Duration
}

func NewStore(kv KV, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{kv: kv, ttl: ttl}
}

func key(token string) string { return keyPrefix + token }

// Create mints a random token bound to userID.
func (s *Store) Create(ctx context.Context, userID string) (string, error) {
	token := uuid.NewString()
	if err := s.kv.Set(ctx, key(token), userID, int(s.ttl.Seconds())); err != nil {
		return "", err
	}
	return token, nil
}

func (s *Store) Lookup(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrNoSession
	}
	userID, ok, err := s.kv.Get(ctx, key(token))
	if err != nil {
		return "", err
	}
	if !ok || userID == "" {
		return "", ErrNoSession
	}
	return userID, nil
}

// Delete revokes token immediately. Unknown tokens report ErrNoSession.
func (s *Store) Delete(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrNoSession
	}
	existed, err := s.kv.Del(ctx, key(token))
	if err != nil {
		return err
	}
	if !existed {
		return ErrNoSession
	}
	return nil
}
