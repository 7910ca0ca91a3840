package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// hashPrefix marks a stored credential as already migrated to argon2id.
// Anything without it is treated as legacy plaintext.
const hashPrefix = "$argon2id$"

const (
	argonMemory      = 64 * 1024
	argonIterations  = 3
	argonParallelism = 4
	argonSaltLen     = 16
	argonKeyLen      = 32
)

// PasswordHasher produces and verifies salted argon2id hashes. The dummy
// hash is computed once at construction and is used to equalize the cost of
// login attempts against unknown emails.
type PasswordHasher struct {
	dummy string
}

func NewPasswordHasher() *PasswordHasher {
	h := &PasswordHasher{}
	dummy, err := h.Hash("dummy-password")
	if err != nil {
		// rand.Read failing means the process has no entropy source at all.
		panic(fmt.Sprintf("auth: compute dummy hash: %v", err))
	}
	h.dummy = dummy
	return h
}

// DummyHash returns the fixed hash verified against when no user matches.
func (h *PasswordHasher) DummyHash() string { return h.dummy }

// Hash returns an encoded argon2id hash with a fresh random salt:
// $argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt>$<digest>
func (h *PasswordHasher) Hash(plain string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("auth: generate salt: %w", err)
	}
	sum := argon2.IDKey([]byte(plain), salt, argonIterations, argonMemory, argonParallelism, argonKeyLen)
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		hashPrefix, argon2.Version, argonMemory, argonIterations, argonParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum)), nil
}

// Verify reports whether plain matches the encoded hash. Malformed input
// yields false, never an error. The final digest compare is constant-time.
func (h *PasswordHasher) Verify(plain, encoded string) bool {
	memory, iterations, parallelism, salt, expected, ok := decodeHash(encoded)
	if !ok {
		return false
	}
	computed := argon2.IDKey([]byte(plain), salt, iterations, memory, parallelism, uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// IsHashed classifies a stored credential by its structural prefix without
// parsing it. Distinguishes migrated rows from legacy plaintext.
func IsHashed(stored string) bool {
	return strings.HasPrefix(stored, hashPrefix)
}

func decodeHash(encoded string) (memory, iterations uint32, parallelism uint8, salt, digest []byte, ok bool) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return 0, 0, 0, nil, nil, false
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return 0, 0, 0, nil, nil, false
	}
	for _, kv := range strings.Split(parts[3], ",") {
		k, v, found := strings.Cut(kv, "=")
		if !found {
			return 0, 0, 0, nil, nil, false
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return 0, 0, 0, nil, nil, false
		}
		switch k {
		case "m":
			memory = uint32(n)
		case "t":
			iterations = uint32(n)
		case "p":
			parallelism = uint8(n)
		default:
			return 0, 0, 0, nil, nil, false
		}
	}
	if memory == 0 || iterations == 0 || parallelism == 0 {
		return 0, 0, 0, nil, nil, false
	}
	var err error
	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(salt) == 0 {
		return 0, 0, 0, nil, nil, false
	}
	if digest, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(digest) == 0 {
		return 0, 0, 0, nil, nil, false
	}
	return memory, iterations, parallelism, salt, digest, true
}
