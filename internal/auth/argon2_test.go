package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashSecret(t *testing.T) {
	hash, err := HashSecret("correct horse battery staple")
	assert.NoError(t, err, "expected no error hashing secret")
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"), "expected standard encoded form, got %q", hash)

	other, err := HashSecret("correct horse battery staple")
	assert.NoError(t, err, "expected no error hashing secret")
	assert.NotEqual(t, hash, other, "expected distinct salts to produce distinct hashes")
}

func TestCompareSecret(t *testing.T) {
	hash, err := HashSecret("hunter2")
	assert.NoError(t, err, "expected no error hashing secret")

	tcases := []struct {
		name     string
		encoded  string
		secret   string
		expected Result
	}{
		{
			name:     "matching secret",
			encoded:  hash,
			secret:   "hunter2",
			expected: Matched,
		},
		{
			name:     "wrong secret",
			encoded:  hash,
			secret:   "hunter3",
			expected: Mismatch,
		},
		{
			name:     "not an argon2 hash",
			encoded:  "plaintext",
			secret:   "hunter2",
			expected: MalformedInput,
		},
		{
			name:     "truncated hash",
			encoded:  "$argon2id$v=19$m=65536,t=3,p=1",
			secret:   "hunter2",
			expected: MalformedInput,
		},
		{
			name:     "wrong algorithm",
			encoded:  "$argon2i$v=19$m=65536,t=3,p=1$c2FsdA$a2V5",
			secret:   "hunter2",
			expected: MalformedInput,
		},
		{
			name:     "empty hash",
			encoded:  "",
			secret:   "hunter2",
			expected: MalformedInput,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CompareSecret(tc.encoded, tc.secret),
				"expected %s comparing %q", tc.expected, tc.name)
		})
	}
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "matched", Matched.String())
	assert.Equal(t, "mismatch", Mismatch.String())
	assert.Equal(t, "malformed input", MalformedInput.String())
}
