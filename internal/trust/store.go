package trust

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/YahSeh/Nexus-terminal/internal/auth"
	"github.com/YahSeh/Nexus-terminal/internal/database"
	"github.com/YahSeh/Nexus-terminal/internal/types"
)

// ErrInvalidCode tags a SubmitCode result whose pairing code did not
// match. It is recoverable: the caller may retry with the right code.
const ErrInvalidCode = "invalid_code"

// Store manages pairing codes and directional trust facts. Trust between
// two users becomes mutual only after each has proven knowledge of the
// other's pairing code.
type Store struct {
	log *log.Logger
	db  database.NexusRepository
}

func NewStore(logger *log.Logger, db database.NexusRepository) *Store {
	return &Store{
		log: logger,
		db:  db,
	}
}

// PairKey returns the two usernames in lexicographic order and the
// order-independent key identifying the pair.
func PairKey(u1, u2 string) (string, string, string) {
	a, b := u1, u2
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}

	return a, b, a + "||" + b
}

// IssuePairingCode generates a fresh pairing code for username, stores
// only its argon2 hash and returns the plaintext. This is the one time
// the plaintext exists outside the caller's hands.
func (s *Store) IssuePairingCode(username string) (string, error) {
	code, err := auth.GeneratePairingCode()
	if err != nil {
		return "", err
	}

	// generated codes are already canonical; hash the canonical form so
	// verification canonicalizes symmetrically
	canon, err := auth.CanonicalizePairingCode(code)
	if err != nil {
		return "", fmt.Errorf("canonicalize generated code: %w", err)
	}

	hash, err := auth.HashSecret(canon)
	if err != nil {
		return "", fmt.Errorf("hash pairing code: %w", err)
	}

	if err := s.db.SetPairingCode(username, hash); err != nil {
		return "", fmt.Errorf("store pairing code: %w", err)
	}

	return code, nil
}

// Status reads the trust facts between me and partner from my point of
// view. An absent pair reads as all false.
func (s *Store) Status(me, partner string) (types.TrustStatus, error) {
	a, _, key := PairKey(me, partner)

	tp, err := s.db.GetTrustPair(key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.TrustStatus{}, nil
		}
		return types.TrustStatus{}, err
	}

	var status types.TrustStatus
	if me == a {
		status.MeTrustsPartner = tp.ATrustsB
		status.PartnerTrustsMe = tp.BTrustsA
	} else {
		status.MeTrustsPartner = tp.BTrustsA
		status.PartnerTrustsMe = tp.ATrustsB
	}
	status.Mutual = status.MeTrustsPartner && status.PartnerTrustsMe

	return status, nil
}

// SubmitResult carries the trust status after a SubmitCode attempt. OK
// is false and Err holds ErrInvalidCode when the code did not match; the
// status then reflects the unchanged state.
type SubmitResult struct {
	Status types.TrustStatus
	OK     bool
	Err    string
}

// SubmitCode verifies code against partner's stored pairing-code hash
// and, on a match, records the enterer→partner trust direction. This is
// the only way a trust direction is ever set.
func (s *Store) SubmitCode(enterer, partner, code string) (SubmitResult, error) {
	if !s.codeMatches(partner, code) {
		status, err := s.Status(enterer, partner)
		if err != nil {
			return SubmitResult{}, err
		}
		return SubmitResult{Status: status, Err: ErrInvalidCode}, nil
	}

	a, b, key := PairKey(enterer, partner)
	if err := s.db.SetTrustDirection(key, a, b, enterer == a); err != nil {
		return SubmitResult{}, fmt.Errorf("record trust: %w", err)
	}

	status, err := s.Status(enterer, partner)
	if err != nil {
		return SubmitResult{}, err
	}

	return SubmitResult{Status: status, OK: true}, nil
}

func (s *Store) codeMatches(partner, code string) bool {
	canon, err := auth.CanonicalizePairingCode(code)
	if err != nil {
		return false
	}

	pc, err := s.db.GetPairingCode(partner)
	if err != nil {
		// an unknown partner verifies the same as a wrong code, so
		// probing cannot reveal whether an account exists
		if !errors.Is(err, sql.ErrNoRows) {
			s.log.Println("get pairing code:", err)
		}
		return false
	}

	return auth.CompareSecret(pc.CodeHash, canon) == auth.Matched
}
