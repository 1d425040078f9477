package auth

import "pairchat/errors"

// Credential is the identity a verifier resolves a username to.
type Credential struct {
	UserID      string
	DisplayName string
	RoomID      string
}

// StaticEntry is one row of the static credential table.
type StaticEntry struct {
	PasswordHash string // argon2id encoded hash
	UserID       string
	DisplayName  string
	RoomID       string
}

// StaticVerifier verifies logins against a fixed in-memory table. The
// lifecycle engine only sees the CredentialVerifier interface, so this
// table can be swapped for a real user store without touching it.
type StaticVerifier struct {
	entries map[string]StaticEntry
}

func NewStaticVerifier(entries map[string]StaticEntry) *StaticVerifier {
	return &StaticVerifier{entries: entries}
}

// Verify resolves username and checks password against the stored hash.
// Unknown user and wrong password collapse into the same error to prevent
// user enumeration.
func (v *StaticVerifier) Verify(username, password string) (Credential, error) {
	entry, ok := v.entries[username]
	if !ok {
		return Credential{}, errors.ErrInvalidCredentials
	}
	match, err := ComparePassword(password, entry.PasswordHash)
	if err != nil || !match {
		return Credential{}, errors.ErrInvalidCredentials
	}
	return Credential{
		UserID:      entry.UserID,
		DisplayName: entry.DisplayName,
		RoomID:      entry.RoomID,
	}, nil
}
