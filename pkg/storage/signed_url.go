package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Download token failures.
var (
	ErrInvalidToken = errors.New("invalid download token")
	ErrTokenExpired = errors.New("download token expired")
)

// SignedURLSigner creates and validates HMAC download tokens bound to a document.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &SignedURLSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Generate returns a token granting download access to documentID and stored key.
func (s *SignedURLSigner) Generate(documentID, key string) (string, time.Time, error) {
	if documentID == "" || key == "" {
		return "", time.Time{}, fmt.Errorf("document id and key required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).UTC()
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	return strings.Join([]string{documentID, ts, s.sign(documentID, ts, key)}, "."), expiresAt, nil
}

// Verify checks that token was issued for documentID and key and has not expired.
func (s *SignedURLSigner) Verify(token, documentID, key string) error {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] != documentID {
		return ErrInvalidToken
	}
	expUnix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return ErrInvalidToken
	}
	if !hmac.Equal([]byte(s.sign(parts[0], parts[1], key)), []byte(parts[2])) {
		return ErrInvalidToken
	}
	if s.now().After(time.Unix(expUnix, 0)) {
		return ErrTokenExpired
	}
	return nil
}

func (s *SignedURLSigner) sign(documentID, ts, key string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(documentID + "|" + ts + "|" + key))
	return hex.EncodeToString(mac.Sum(nil))
}
