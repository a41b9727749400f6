// Package session keeps login sessions in Redis and signs the cookie that
// refers to them.
package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/movie-catalog-api/internal/model"
)

// ErrNoSession is returned when a session id is unknown or expired.
var ErrNoSession = errors.New("session not found")

// Store persists sessions as JSON values with a TTL equal to the session
// lifetime, so Redis drops them at expiry without a sweeper.
type Store struct {
	rdb    *redis.Client
	key    []byte
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewStore returns a Store.  secret signs session cookies; it is the same
// process-wide secret that signs bearer tokens.
func NewStore(rdb *redis.Client, secret, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = "sess"
	}
	return &Store{
		rdb:    rdb,
		key:    []byte(secret),
		prefix: prefix,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// TTL is the lifetime given to new sessions.
func (s *Store) TTL() time.Duration { return s.ttl }

func (s *Store) redisKey(id string) string { return s.prefix + ":" + id }

// Create starts a session for userID.
func (s *Store) Create(ctx context.Context, userID uint64) (*model.Session, error) {
	now := s.now()
	sess := &model.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := s.rdb.Set(ctx, s.redisKey(sess.ID), payload, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return sess, nil
}

// Get loads the session with id.
func (s *Store) Get(ctx context.Context, id string) (*model.Session, error) {
	b, err := s.rdb.Get(ctx, s.redisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	var sess model.Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if sess.Expired(s.now()) {
		return nil, ErrNoSession
	}
	return &sess, nil
}

// Destroy removes the session with id.  Destroying an unknown session is
// not an error.
func (s *Store) Destroy(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, s.redisKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Sign returns the cookie value for a session id: the id and its
// HMAC-SHA256 joined by a dot.
func (s *Store) Sign(id string) string {
	return id + "." + base64.RawURLEncoding.EncodeToString(s.mac(id))
}

// Verify returns the session id carried by a cookie value produced by Sign.
func (s *Store) Verify(value string) (string, bool) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", false
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", false
	}
	if !hmac.Equal(got, s.mac(id)) {
		return "", false
	}
	return id, true
}

func (s *Store) mac(id string) []byte {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(id))
	return h.Sum(nil)
}
