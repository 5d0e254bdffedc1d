package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Result is the outcome of comparing a secret against stored material.
// The handshake logic branches on which of these occurred, so a bare
// bool is not enough.
type Result int

const (
	Matched Result = iota
	Mismatch
	MalformedInput
)

func (r Result) String() string {
	switch r {
	case Matched:
		return "matched"
	case Mismatch:
		return "mismatch"
	default:
		return "malformed input"
	}
}

type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
	saltLen uint32
	keyLen  uint32
}

// Cost parameters for new hashes. Verification reads the parameters
// stored in the encoded hash, so these can change without invalidating
// existing credentials.
var defaultParams = argon2Params{
	memory:  64 * 1024,
	time:    3,
	threads: 1,
	saltLen: 16,
	keyLen:  32,
}

// HashSecret derives an argon2id hash of secret and encodes it in the
// standard $argon2id$v=19$m=..,t=..,p=..$salt$key form.
func HashSecret(secret string) (string, error) {
	salt := make([]byte, defaultParams.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(secret), salt, defaultParams.time, defaultParams.memory, defaultParams.threads, defaultParams.keyLen)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		defaultParams.memory,
		defaultParams.time,
		defaultParams.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)

	return encoded, nil
}

// CompareSecret checks secret against an encoded argon2id hash in
// constant time over the derived key.
func CompareSecret(encoded, secret string) Result {
	params, salt, key, err := decodeHash(encoded)
	if err != nil {
		return MalformedInput
	}

	candidate := argon2.IDKey([]byte(secret), salt, params.time, params.memory, params.threads, params.keyLen)
	if subtle.ConstantTimeCompare(candidate, key) == 1 {
		return Matched
	}

	return Mismatch
}

func decodeHash(encoded string) (argon2Params, []byte, []byte, error) {
	var params argon2Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return params, nil, nil, fmt.Errorf("not an argon2id hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return params, nil, nil, fmt.Errorf("parse version: %w", err)
	}
	if version != argon2.Version {
		return params, nil, nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memory, &params.time, &params.threads); err != nil {
		return params, nil, nil, fmt.Errorf("parse params: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params, nil, nil, fmt.Errorf("decode salt: %w", err)
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return params, nil, nil, fmt.Errorf("decode key: %w", err)
	}

	params.saltLen = uint32(len(salt))
	params.keyLen = uint32(len(key))

	return params, salt, key, nil
}
