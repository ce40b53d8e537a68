package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senyabanana/sealed-tender/internal/models"
)

func TestParseLimitOffset(t *testing.T) {
	tests := []struct {
		limit, offset string
		wantLimit     int
		wantOffset    int
		wantErr       bool
	}{
		{"", "", 5, 0, false},
		{"10", "3", 10, 3, false},
		{"50", "", 50, 0, false},
		{"51", "", 0, 0, true},
		{"0", "", 0, 0, true},
		{"abc", "", 0, 0, true},
		{"", "-1", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.limit+"/"+tt.offset, func(t *testing.T) {
			limit, offset, err := ParseLimitOffset(tt.limit, tt.offset)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestToErrorResponse(t *testing.T) {
	tests := []struct {
		kind models.ErrorKind
		want int
	}{
		{models.KindNotFound, http.StatusNotFound},
		{models.KindInvalidSchedule, http.StatusBadRequest},
		{models.KindInvalidArgument, http.StatusBadRequest},
		{models.KindBelowMinimum, http.StatusBadRequest},
		{models.KindUnauthorized, http.StatusForbidden},
		{models.KindProofMismatch, http.StatusUnprocessableEntity},
		{models.KindDeadlineExceeded, http.StatusConflict},
		{models.KindAlreadyClosed, http.StatusConflict},
		{models.KindTenderFull, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", models.NewError(tt.kind, "boom"))
			resp, ok := ToErrorResponse(err)
			require.True(t, ok)
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.Equal(t, tt.kind, resp.Kind)
		})
	}

	_, ok := ToErrorResponse(fmt.Errorf("disk failure"))
	assert.False(t, ok)
}

func TestSendErrorBody(t *testing.T) {
	w := httptest.NewRecorder()
	resp, _ := ToErrorResponse(models.NewError(models.KindTooLate, "reveal ended"))
	SendError(w, resp)

	assert.Equal(t, http.StatusConflict, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"kind": "TooLate", "reason": "reveal ended"}, body)
}

func TestParseTenderIDAndHex(t *testing.T) {
	id, err := ParseTenderID("12")
	require.NoError(t, err)
	assert.Equal(t, uint64(12), id)

	_, err = ParseTenderID("0")
	assert.Error(t, err)
	_, err = ParseTenderID("x")
	assert.Error(t, err)

	b, err := DecodeHex("0xABcd")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xab, 0xcd}, b)
	_, err = DecodeHex("zz")
	assert.Error(t, err)
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var v struct {
		A int `json:"a"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1,"b":2}`))
	assert.Error(t, DecodeJSON(r, &v))
}
