// Package commitment реализует схемы запечатывания суммы предложения
// и проверку раскрытия против сохраненного обязательства.
package commitment

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/senyabanana/sealed-tender/internal/models"
)

var (
	// ErrMismatch - раскрытие не соответствует обязательству.
	ErrMismatch = errors.New("commitment does not match revealed bid")
	// ErrMalformed - обязательство не подходит для схемы.
	ErrMalformed = errors.New("malformed commitment")
)

// Binding привязывает обязательство к тендеру и участнику,
// чтобы чужое обязательство нельзя было подать повторно.
type Binding struct {
	TenderID uint64
	Bidder   string
}

// bytes кодирует привязку как tenderId(8 BE) || len(bidder)(4 BE) || bidder.
func (b Binding) bytes() []byte {
	out := make([]byte, 12, 12+len(b.Bidder))
	binary.BigEndian.PutUint64(out[0:8], b.TenderID)
	binary.BigEndian.PutUint32(out[8:12], uint32(len(b.Bidder)))
	return append(out, b.Bidder...)
}

// Scheme - схема обязательств.
type Scheme interface {
	Name() string
	// Validate проверяет форму обязательства при подаче.
	Validate(commitment []byte) error
	// Verify проверяет, что сумма и доказательство открывают обязательство.
	Verify(b Binding, commitment []byte, amount models.Amount, proof []byte) error
	// Commit строит обязательство для суммы.
	Commit(b Binding, amount models.Amount, secret []byte) ([]byte, error)
}

const (
	SchemeHash   = "hash"
	SchemeSealed = "sealed"
)

// New создает схему по имени из конфигурации.
func New(scheme, hashAlg, sealSecret string) (Scheme, error) {
	switch scheme {
	case "", SchemeHash:
		return NewHashScheme(hashAlg)
	case SchemeSealed:
		return NewSealedScheme([]byte(sealSecret))
	default:
		return nil, fmt.Errorf("unknown commitment scheme %q", scheme)
	}
}
