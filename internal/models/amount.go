package models

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

var (
	minAmount = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	maxAmount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	two64     = new(big.Int).Lsh(big.NewInt(1), 64)
)

// Amount - знаковое 128-битное число (сумма предложения или минимальная ставка).
type Amount struct {
	hi int64
	lo uint64
}

// NewAmount создаёт Amount из int64.
func NewAmount(v int64) Amount {
	a := Amount{lo: uint64(v)}
	if v < 0 {
		a.hi = -1
	}
	return a
}

// AmountFromBig конвертирует big.Int, проверяя диапазон int128.
func AmountFromBig(v *big.Int) (Amount, error) {
	if v == nil {
		return Amount{}, fmt.Errorf("amount is missing")
	}
	if v.Cmp(minAmount) < 0 || v.Cmp(maxAmount) > 0 {
		return Amount{}, fmt.Errorf("amount %s is out of the signed 128-bit range", v.String())
	}

	// two's complement: для отрицательных берём v + 2^128
	u := new(big.Int).Set(v)
	if v.Sign() < 0 {
		u.Add(u, new(big.Int).Lsh(big.NewInt(1), 128))
	}
	lo := new(big.Int).And(u, new(big.Int).Sub(two64, big.NewInt(1)))
	hi := new(big.Int).Rsh(u, 64)

	return Amount{hi: int64(hi.Uint64()), lo: lo.Uint64()}, nil
}

// ParseAmount разбирает десятичную строку.
func ParseAmount(s string) (Amount, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return Amount{}, fmt.Errorf("invalid amount %q", s)
	}
	return AmountFromBig(v)
}

// Big возвращает значение как big.Int.
func (a Amount) Big() *big.Int {
	v := new(big.Int).Lsh(big.NewInt(a.hi), 64)
	return v.Add(v, new(big.Int).SetUint64(a.lo))
}

// Cmp сравнивает две суммы: -1, 0 или +1.
func (a Amount) Cmp(b Amount) int {
	switch {
	case a.hi < b.hi:
		return -1
	case a.hi > b.hi:
		return 1
	case a.lo < b.lo:
		return -1
	case a.lo > b.lo:
		return 1
	}
	return 0
}

// Less сообщает, что a строго меньше b.
func (a Amount) Less(b Amount) bool {
	return a.Cmp(b) < 0
}

func (a Amount) String() string {
	return a.Big().String()
}

// Bytes возвращает 16 байт little-endian в дополнительном коде.
func (a Amount) Bytes() [16]byte {
	var b [16]byte
	binary.LittleEndian.PutUint64(b[0:8], a.lo)
	binary.LittleEndian.PutUint64(b[8:16], uint64(a.hi))
	return b
}

// AmountFromBytes - обратная операция к Bytes.
func AmountFromBytes(b []byte) (Amount, error) {
	if len(b) != 16 {
		return Amount{}, fmt.Errorf("amount must be 16 bytes, got %d", len(b))
	}
	return Amount{
		lo: binary.LittleEndian.Uint64(b[0:8]),
		hi: int64(binary.LittleEndian.Uint64(b[8:16])),
	}, nil
}

// MarshalJSON сериализует сумму строкой, чтобы не терять точность в JS-клиентах.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON принимает как строку, так и число.
func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return fmt.Errorf("amount is missing")
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = s
	}
	v, err := ParseAmount(raw)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
