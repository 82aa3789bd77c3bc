package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Fixed argon2id cost parameters. Changing them only affects new hashes;
// Verify reads the parameters back from the encoded digest.
const (
	hashTime    uint32 = 3
	hashMemory  uint32 = 64 * 1024
	hashThreads uint8  = 2
	hashKeyLen  uint32 = 32
	hashSaltLen        = 16
)

// ErrInvalidHash marks a digest that is not a well-formed argon2id string.
var ErrInvalidHash = errors.New("invalid password hash")

// Hash returns a salted argon2id digest of the password, encoded with its
// parameters and salt. Hashing is one-way; there is no decode operation.
func Hash(password string) (string, error) {
	salt := make([]byte, hashSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	sum := argon2.IDKey([]byte(password), salt, hashTime, hashMemory, hashThreads, hashKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		hashMemory,
		hashTime,
		hashThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

// Matches reports whether the password produced the encoded digest. Any
// malformed digest compares false with ErrInvalidHash; the comparison itself
// is constant time.
func Matches(password, hash string) (bool, error) {
	var (
		version          int
		mem, timeCost    uint32
		threads          uint32
		saltB64, hashB64 string
	)
	n, err := fmt.Sscanf(hash, "$argon2id$v=%d$m=%d,t=%d,p=%d$%s", &version, &mem, &timeCost, &threads, &saltB64)
	if err != nil || n != 5 || version != argon2.Version || threads > 255 {
		return false, ErrInvalidHash
	}
	i := strings.IndexByte(saltB64, '$')
	if i < 0 {
		return false, ErrInvalidHash
	}
	hashB64 = saltB64[i+1:]
	saltB64 = saltB64[:i]

	salt, err := base64.RawStdEncoding.DecodeString(saltB64)
	if err != nil {
		return false, ErrInvalidHash
	}
	expected, err := base64.RawStdEncoding.DecodeString(hashB64)
	if err != nil || len(expected) == 0 {
		return false, ErrInvalidHash
	}

	actual := argon2.IDKey([]byte(password), salt, timeCost, mem, uint8(threads), uint32(len(expected)))
	return subtle.ConstantTimeCompare(actual, expected) == 1, nil
}
