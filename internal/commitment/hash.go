package commitment

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"hash"

	"github.com/zeebo/blake3"

	"github.com/senyabanana/sealed-tender/internal/models"
)

const (
	HashSHA256 = "sha256"
	HashBLAKE3 = "blake3"

	// DigestSize - длина хеш-обязательства в байтах.
	DigestSize = 32

	hashDomain = "sealed-tender/commit/v1"
)

// HashScheme - обязательство H(domain || binding || amount || secret), доказательство - secret.
type HashScheme struct {
	alg     string
	newHash func() hash.Hash
}

// NewHashScheme создает схему с SHA-256 или BLAKE3.
func NewHashScheme(alg string) (*HashScheme, error) {
	switch alg {
	case "", HashSHA256:
		return &HashScheme{alg: HashSHA256, newHash: sha256.New}, nil
	case HashBLAKE3:
		return &HashScheme{alg: HashBLAKE3, newHash: func() hash.Hash { return blake3.New() }}, nil
	default:
		return nil, fmt.Errorf("unknown commitment hash %q", alg)
	}
}

func (s *HashScheme) Name() string {
	return SchemeHash + "/" + s.alg
}

func (s *HashScheme) Validate(commitment []byte) error {
	if len(commitment) != DigestSize {
		return fmt.Errorf("%w: digest must be %d bytes, got %d", ErrMalformed, DigestSize, len(commitment))
	}
	return nil
}

func (s *HashScheme) Verify(b Binding, commitment []byte, amount models.Amount, proof []byte) error {
	if err := s.Validate(commitment); err != nil {
		return err
	}
	want := s.digest(b, amount, proof)
	if subtle.ConstantTimeCompare(want, commitment) != 1 {
		return ErrMismatch
	}
	return nil
}

func (s *HashScheme) Commit(b Binding, amount models.Amount, secret []byte) ([]byte, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("secret is required for hash commitments")
	}
	return s.digest(b, amount, secret), nil
}

func (s *HashScheme) digest(b Binding, amount models.Amount, secret []byte) []byte {
	h := s.newHash()
	amt := amount.Bytes()

	h.Write([]byte(hashDomain))
	h.Write(b.bytes())
	h.Write(amt[:])
	h.Write(secret)

	return h.Sum(nil)
}
