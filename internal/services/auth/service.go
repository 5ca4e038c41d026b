package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/killergame/internal/dependencies/clock"
)

// Errors
var (
	ErrMissingKey  = errors.New("api key required")
	ErrInvalidKey  = errors.New("invalid api key")
	ErrInvalidHash = errors.New("invalid api key hash")
)

// keyPrefix marks generated keys so they are recognisable in configs and logs
const keyPrefix = "kg_"

// Service authenticates transport adapters by API key.
// Only bcrypt hashes of the keys are configured; successful checks are cached
// because bcrypt is deliberately slow.
type Service struct {
	clock  clock.Clock
	hashes [][]byte

	mu    sync.RWMutex
	cache map[string]time.Time // sha256 of key -> expiry

	cacheTTL time.Duration
}

// Config holds configuration for the auth service
type Config struct {
	// KeyHashes are bcrypt hashes of accepted API keys. Empty disables authentication.
	KeyHashes []string

	// CacheTTL is how long a verified key skips the bcrypt check
	CacheTTL time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		CacheTTL: 10 * time.Minute,
	}
}

// New creates a new auth Service
func New(clock clock.Clock, cfg Config) (*Service, error) {
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = DefaultConfig().CacheTTL
	}

	hashes := make([][]byte, 0, len(cfg.KeyHashes))
	for i, h := range cfg.KeyHashes {
		if _, err := bcrypt.Cost([]byte(h)); err != nil {
			return nil, fmt.Errorf("%w at position %d: %v", ErrInvalidHash, i, err)
		}
		hashes = append(hashes, []byte(h))
	}

	return &Service{
		clock:    clock,
		hashes:   hashes,
		cache:    make(map[string]time.Time),
		cacheTTL: cfg.CacheTTL,
	}, nil
}

// Enabled reports whether any API key is configured
func (s *Service) Enabled() bool {
	return len(s.hashes) > 0
}

// ValidateKey checks the key against the configured hashes
func (s *Service) ValidateKey(key string) error {
	if !s.Enabled() {
		return nil
	}
	if key == "" {
		return ErrMissingKey
	}

	digest := fingerprint(key)
	now := s.clock.Now()

	s.mu.RLock()
	expiry, ok := s.cache[digest]
	s.mu.RUnlock()
	if ok && now.Before(expiry) {
		return nil
	}

	for _, h := range s.hashes {
		if bcrypt.CompareHashAndPassword(h, []byte(key)) == nil {
			s.mu.Lock()
			s.cache[digest] = now.Add(s.cacheTTL)
			s.mu.Unlock()
			return nil
		}
	}
	return ErrInvalidKey
}

// CleanExpiredCache removes expired cache entries (call periodically)
func (s *Service) CleanExpiredCache() {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for digest, expiry := range s.cache {
		if !now.Before(expiry) {
			delete(s.cache, digest)
		}
	}
}

// GenerateKey returns a new random API key
func GenerateKey() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return keyPrefix + base64.RawURLEncoding.EncodeToString(b), nil
}

// HashKey returns the bcrypt hash to configure for a key. A cost <= 0 uses bcrypt.DefaultCost.
func HashKey(key string, cost int) (string, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func fingerprint(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
