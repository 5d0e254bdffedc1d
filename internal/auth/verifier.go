package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"log"

	"github.com/YahSeh/Nexus-terminal/internal/database"
)

// CredentialVerifier validates login secrets and transparently migrates
// legacy credential records to argon2 on first successful verification.
type CredentialVerifier struct {
	log *log.Logger
	db  database.NexusRepository
}

func NewCredentialVerifier(logger *log.Logger, db database.NexusRepository) *CredentialVerifier {
	return &CredentialVerifier{
		log: logger,
		db:  db,
	}
}

// Verify checks secret against the stored credential for username.
// Scheme priority: argon2 is terminal (no fallthrough on mismatch);
// legacy-sha256 and plaintext-fallback verify once and are rewritten to
// argon2. A migration write failure does not fail the login.
func (v *CredentialVerifier) Verify(username, secret string) bool {
	cred, err := v.db.GetCredential(username)
	if err != nil {
		return false
	}

	switch cred.Scheme {
	case database.SchemeArgon2:
		return CompareSecret(cred.Secret, secret) == Matched
	case database.SchemeLegacy:
		digest := sha256.Sum256([]byte(secret))
		if hex.EncodeToString(digest[:]) != cred.Secret {
			return false
		}

		v.migrate(username, secret)
		return true
	case database.SchemePlaintext:
		if subtle.ConstantTimeCompare([]byte(cred.Secret), []byte(secret)) != 1 {
			return false
		}

		v.migrate(username, secret)
		return true
	default:
		v.log.Printf("unknown credential scheme %q for user %q", cred.Scheme, username)
		return false
	}
}

// migrate rewrites the record to a fresh argon2 hash, erasing the legacy
// material. Best-effort: the login already succeeded.
func (v *CredentialVerifier) migrate(username, secret string) {
	hash, err := HashSecret(secret)
	if err != nil {
		v.log.Printf("credential migration for %q: hash: %v", username, err)
		return
	}

	if err := v.db.UpdateCredential(username, database.SchemeArgon2, hash); err != nil {
		v.log.Printf("credential migration for %q: persist: %v", username, err)
	}
}
