package database

import "time"

// Credential schemes. A credential is rewritten to SchemeArgon2 after its
// first successful verification under any other scheme.
const (
	SchemeArgon2    = "argon2"
	SchemeLegacy    = "legacy-sha256"
	SchemePlaintext = "plaintext-fallback"
)

type Credential struct {
	Username  string
	Scheme    string
	Secret    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Basecamp struct {
	Id         string
	Name       string
	SecretHash string
	LegacyCode string
	CreatedAt  time.Time
}

type PairingCode struct {
	Username  string
	CodeHash  string
	CreatedAt time.Time
}

// TrustPair holds the two directional trust booleans for a pair of users.
// A and B are the pair's usernames in lexicographic order, so PairKey is
// independent of who initiated the handshake.
type TrustPair struct {
	PairKey   string
	A         string
	B         string
	ATrustsB  bool
	BTrustsA  bool
	CreatedAt time.Time
}

type RoomMessage struct {
	Id        int
	Username  string
	Basecamp  string
	Message   string
	CreatedAt time.Time
}

type PrivateMessage struct {
	Id         int
	SessionKey string
	Sender     string
	Recipient  string
	Message    string
	CreatedAt  time.Time
	Read       bool
}

type OnlineUser struct {
	Username    string
	Basecamp    string
	ConnectedAt time.Time
}

type CreateBasecampParams struct {
	Id         string
	Name       string
	SecretHash string
}

type CreateCredentialParams struct {
	Username string
	Scheme   string
	Secret   string
}
