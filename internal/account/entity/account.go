package entity

import "time"

// RecoveryQuestionCount is the number of recovery questions every account answers.
const RecoveryQuestionCount = 3

// Account is the stored credential record of one user.
//
// Hashes and salts are base64 strings produced by the hash package. The
// password and the recovery answers use separate salts.
type Account struct {
	Username        string
	Name            string
	Email           string
	PasswordHash    string
	PasswordSalt    string
	RecoverySalt    string
	RecoveryAnswers [RecoveryQuestionCount]string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasRecovery reports whether recovery answers have been set up.
func (a *Account) HasRecovery() bool {
	if a.RecoverySalt == "" {
		return false
	}

	for _, h := range a.RecoveryAnswers {
		if h == "" {
			return false
		}
	}

	return true
}

// NewAccount is the data needed to register an account.
type NewAccount struct {
	Username     string
	Name         string
	Email        string
	PasswordHash string
	PasswordSalt string
	CreatedAt    time.Time
}

// UpdateRecovery replaces the recovery salt and answer hashes of an account.
type UpdateRecovery struct {
	Username  string
	Salt      string
	Answers   [RecoveryQuestionCount]string
	UpdatedAt time.Time
}

// UpdatePassword replaces the password hash and salt of an account.
type UpdatePassword struct {
	Username  string
	Hash      string
	Salt      string
	UpdatedAt time.Time
}
