package hash

// Hash derives and verifies salted secrets.
type Hash interface {
	// GenerateSalt returns a new encoded random salt.
	GenerateSalt() (string, error)

	// Hash returns the encoded hash of secret under salt.
	Hash(secret, salt string) (string, error)

	// Verify reports whether candidate matches hashed under salt.
	Verify(candidate, hashed, salt string) (bool, error)
}

var _ Hash = (*PBKDF2)(nil)
