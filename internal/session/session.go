package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/antoniostano/genesisvoice/internal/ttsapi"
)

// Fixed keys inside a namespace.
const (
	TokenKey = "tts_token"
	UserKey  = "tts_user"
)

var ErrEmptyToken = errors.New("session token must not be empty")

// Session answers "is this browser authenticated, and as whom" on top of a
// Store. It never calls the TTS API and never inspects the token.
type Session struct {
	store     Store
	namespace string
}

// New scopes store to namespace. An empty namespace uses the bare keys.
func New(store Store, namespace string) *Session {
	return &Session{store: store, namespace: strings.TrimSpace(namespace)}
}

func (s *Session) Namespace() string { return s.namespace }

func (s *Session) key(name string) string {
	if s.namespace == "" {
		return name
	}
	return s.namespace + ":" + name
}

func (s *Session) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	if err := s.store.Set(ctx, s.key(TokenKey), token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

func (s *Session) Token(ctx context.Context) (string, bool, error) {
	token, ok, err := s.store.Get(ctx, s.key(TokenKey))
	if err != nil {
		return "", false, fmt.Errorf("load token: %w", err)
	}
	if !ok || token == "" {
		return "", false, nil
	}
	return token, true, nil
}

func (s *Session) SetUser(ctx context.Context, user ttsapi.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.store.Set(ctx, s.key(UserKey), string(raw)); err != nil {
		return fmt.Errorf("store user: %w", err)
	}
	return nil
}

// User returns the cached profile. It reports absent whenever no token is
// stored, even if a stale profile was left behind.
func (s *Session) User(ctx context.Context) (*ttsapi.User, bool, error) {
	if _, ok, err := s.Token(ctx); err != nil || !ok {
		return nil, false, err
	}
	raw, ok, err := s.store.Get(ctx, s.key(UserKey))
	if err != nil {
		return nil, false, fmt.Errorf("load user: %w", err)
	}
	if !ok || raw == "" {
		return nil, false, nil
	}
	var user ttsapi.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, false, fmt.Errorf("decode user: %w", err)
	}
	return &user, true, nil
}

// Establish stores the token and profile returned by a login or registration.
func (s *Session) Establish(ctx context.Context, token string, user ttsapi.User) error {
	if err := s.SetToken(ctx, token); err != nil {
		return err
	}
	return s.SetUser(ctx, user)
}

// Clear drops token and user in a single store operation.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.key(TokenKey), s.key(UserKey)); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// IsAuthenticated reports whether a token is present. A token that cannot be
// read counts as absent.
func (s *Session) IsAuthenticated(ctx context.Context) bool {
	_, ok, err := s.Token(ctx)
	return err == nil && ok
}
