package commitment

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/senyabanana/sealed-tender/internal/models"
)

const sealInfo = "sealed-tender/seal/v1"

// SealedScheme - обязательство nonce || AES-256-GCM(amount) под ключом сервиса.
// Раскрытие проверяется расшифровкой сохраненного шифротекста. Владелец ключа
// может прочитать ставки до дедлайна, поэтому схема слабее HashScheme.
type SealedScheme struct {
	aead cipher.AEAD
}

// NewSealedScheme выводит ключ AES-256 из секрета через HKDF-SHA256.
func NewSealedScheme(secret []byte) (*SealedScheme, error) {
	if len(secret) < 16 {
		return nil, fmt.Errorf("seal secret must be at least 16 bytes")
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(sealInfo)), key); err != nil {
		return nil, fmt.Errorf("derive seal key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	return &SealedScheme{aead: gcm}, nil
}

func (s *SealedScheme) Name() string {
	return SchemeSealed
}

func (s *SealedScheme) Validate(commitment []byte) error {
	if want := s.aead.NonceSize() + 16 + s.aead.Overhead(); len(commitment) != want {
		return fmt.Errorf("%w: sealed bid must be %d bytes, got %d", ErrMalformed, want, len(commitment))
	}
	return nil
}

func (s *SealedScheme) Verify(b Binding, commitment []byte, amount models.Amount, _ []byte) error {
	if err := s.Validate(commitment); err != nil {
		return err
	}

	ns := s.aead.NonceSize()
	plain, err := s.aead.Open(nil, commitment[:ns], commitment[ns:], b.bytes())
	if err != nil {
		return ErrMismatch
	}
	sealed, err := models.AmountFromBytes(plain)
	if err != nil {
		return ErrMismatch
	}
	if sealed.Cmp(amount) != 0 {
		return ErrMismatch
	}
	return nil
}

func (s *SealedScheme) Commit(b Binding, amount models.Amount, _ []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	amt := amount.Bytes()
	return s.aead.Seal(nonce, nonce, amt[:], b.bytes()), nil
}
