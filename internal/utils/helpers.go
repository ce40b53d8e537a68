package utils

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/senyabanana/sealed-tender/internal/models"
)

// SendErrorResponse отправляет ошибку в формате JSON
func SendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	SendError(w, &models.ErrorResponse{StatusCode: statusCode, Message: message})
}

// SendError отправляет готовый ErrorResponse.
func SendError(w http.ResponseWriter, resp *models.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Println(err)
	}
}

// SendJSON отправляет v в формате JSON с кодом statusCode.
func SendJSON(w http.ResponseWriter, statusCode int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(v)
}

// StatusForKind возвращает HTTP-код для вида доменной ошибки.
func StatusForKind(kind models.ErrorKind) int {
	switch kind {
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindInvalidSchedule, models.KindInvalidArgument, models.KindBelowMinimum:
		return http.StatusBadRequest
	case models.KindUnauthorized:
		return http.StatusForbidden
	case models.KindProofMismatch:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusConflict
	}
}

// ToErrorResponse преобразует доменную ошибку в ответ. Для прочих ошибок ok равен false.
func ToErrorResponse(err error) (resp *models.ErrorResponse, ok bool) {
	kind, ok := models.KindOf(err)
	if !ok {
		return nil, false
	}
	return &models.ErrorResponse{StatusCode: StatusForKind(kind), Kind: kind, Message: err.Error()}, true
}

// ParseLimitOffset обрабатывает limit и offset
func ParseLimitOffset(limitStr, offsetStr string) (int, int, error) {
	var limit, offset int
	var err error

	if limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 || limit > 50 {
			return 0, 0, fmt.Errorf("invalid limit parameter, must be a positive integer [0:50]")
		}
	} else {
		limit = 5
	}

	if offsetStr != "" {
		offset, err = strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("invalid offset parameter, must be a non-negative integer")
		}
	} else {
		offset = 0
	}

	return limit, offset, nil
}

// ParseTenderID разбирает идентификатор тендера из пути.
func ParseTenderID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid tender id %q, must be a positive integer", s)
	}
	return id, nil
}

// DecodeHex разбирает hex-строку, допускается префикс 0x.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex string: %w", err)
	}
	return b, nil
}

// DecodeJSON разбирает тело запроса, отклоняя неизвестные поля.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
