package repository

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/senyabanana/sealed-tender/internal/storage"
)

// encode сериализует запись в JSON.
func encode(kind storage.Kind, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", kind, err)
	}
	return data, nil
}

// decode разбирает запись из JSON.
func decode(kind storage.Kind, key string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s/%s: %w", kind, key, err)
	}
	return nil
}

func tenderKey(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func bidKey(tenderID uint64, bidder string) string {
	return tenderKey(tenderID) + "/" + bidder
}

const globalKey = "global"
