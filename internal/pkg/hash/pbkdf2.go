package hash

import (
	"crypto"
	"crypto/rand"
	_ "crypto/sha1" //nolint:gosec // legacy PRF
	_ "crypto/sha256"
	_ "crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultIterations is the PBKDF2 iteration count used for every credential.
	DefaultIterations = 65536
	// DefaultKeyLength is the derived hash length in bytes (256 bits).
	DefaultKeyLength = 32
	// DefaultSaltLength is the random salt length in bytes.
	DefaultSaltLength = 16
	// DefaultPRF is the HMAC hash used as PBKDF2 pseudorandom function.
	DefaultPRF = "sha256"
)

var (
	// ErrDecode indicates a salt or hash string that is not valid in its expected encoding.
	ErrDecode = errors.New("hash: invalid encoding")

	// ErrKDFUnavailable indicates the configured key derivation function cannot be used.
	ErrKDFUnavailable = errors.New("hash: kdf unavailable")

	// ErrRandomUnavailable indicates the secure random source failed.
	ErrRandomUnavailable = errors.New("hash: random source unavailable")
)

var prfs = map[string]crypto.Hash{
	"sha1":   crypto.SHA1,
	"sha256": crypto.SHA256,
	"sha512": crypto.SHA512,
}

// Option customizes a PBKDF2 hasher.
type Option func(*PBKDF2)

// WithIterations overrides the iteration count. Non-positive values are ignored.
func WithIterations(n int) Option {
	return func(p *PBKDF2) {
		if n > 0 {
			p.iterations = n
		}
	}
}

// WithKeyLength overrides the derived key length in bytes. Non-positive values are ignored.
func WithKeyLength(n int) Option {
	return func(p *PBKDF2) {
		if n > 0 {
			p.keyLength = n
		}
	}
}

// WithSaltLength overrides the salt length in bytes. Non-positive values are ignored.
func WithSaltLength(n int) Option {
	return func(p *PBKDF2) {
		if n > 0 {
			p.saltLength = n
		}
	}
}

// WithPRF selects the HMAC hash by name (sha1, sha256, sha512).
//
// An unknown name is accepted here and reported as ErrKDFUnavailable when
// hashing, so a bad configuration surfaces on first use.
func WithPRF(name string) Option {
	return func(p *PBKDF2) {
		p.prfName = strings.ToLower(strings.TrimSpace(name))
		p.prf = prfs[p.prfName]
	}
}

// WithRandom replaces the secure random source used by GenerateSalt.
func WithRandom(r io.Reader) Option {
	return func(p *PBKDF2) {
		if r != nil {
			p.random = r
		}
	}
}

// PBKDF2 derives password hashes with PBKDF2-HMAC and a per-credential salt.
//
// Salts and hashes travel as standard (padded) base64 strings. The caller owns
// persistence: it stores the salt next to the hash and hands both back to Verify.
// A PBKDF2 is immutable after construction and safe for concurrent use.
type PBKDF2 struct {
	iterations int
	keyLength  int
	saltLength int
	prfName    string
	prf        crypto.Hash
	random     io.Reader
}

// NewPBKDF2 returns a hasher with 16-byte salts, 65536 iterations, a 32-byte key and HMAC-SHA-256.
func NewPBKDF2(opts ...Option) *PBKDF2 {
	p := &PBKDF2{
		iterations: DefaultIterations,
		keyLength:  DefaultKeyLength,
		saltLength: DefaultSaltLength,
		prfName:    DefaultPRF,
		prf:        crypto.SHA256,
		random:     rand.Reader,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// GenerateSalt draws a fresh random salt and returns it base64 encoded.
func (p *PBKDF2) GenerateSalt() (string, error) {
	salt := make([]byte, p.saltLength)
	if _, err := io.ReadFull(p.random, salt); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRandomUnavailable, err)
	}

	return base64.StdEncoding.EncodeToString(salt), nil
}

// Hash derives the base64 encoded hash of secret with the given base64 encoded salt.
func (p *PBKDF2) Hash(secret, salt string) (string, error) {
	key, err := p.derive(secret, salt)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(key), nil
}

// Verify reports whether candidate hashes to storedHash under storedSalt.
//
// A mismatch is (false, nil). Errors are only returned for malformed input or
// an unusable KDF.
func (p *PBKDF2) Verify(candidate, storedHash, storedSalt string) (bool, error) {
	expected, err := p.decode("hash", storedHash, p.keyLength)
	if err != nil {
		return false, err
	}

	computed, err := p.derive(candidate, storedSalt)
	if err != nil {
		return false, err
	}

	return subtle.ConstantTimeCompare(expected, computed) == 1, nil
}

func (p *PBKDF2) derive(secret, salt string) ([]byte, error) {
	if !p.prf.Available() {
		return nil, fmt.Errorf("%w: prf %q", ErrKDFUnavailable, p.prfName)
	}

	rawSalt, err := p.decode("salt", salt, p.saltLength)
	if err != nil {
		return nil, err
	}

	return pbkdf2.Key([]byte(secret), rawSalt, p.iterations, p.keyLength, p.prf.New), nil
}

func (p *PBKDF2) decode(what, encoded string, size int) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not base64: %w", ErrDecode, what, err)
	}

	if len(raw) != size {
		return nil, fmt.Errorf("%w: %s must be %d bytes, got %d", ErrDecode, what, size, len(raw))
	}

	return raw, nil
}
