// Package hash derives and verifies salted password hashes.
//
// Credentials are stored as a pair of base64 strings: a random per-credential
// salt and the PBKDF2 hash of the secret under that salt. The package never
// stores or looks up records; callers persist both values and hand them back
// to Verify. A mismatching secret is a normal false result, not an error.
package hash
