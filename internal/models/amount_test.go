package models

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmountBounds(t *testing.T) {
	maxStr := "170141183460469231731687303715884105727"
	minStr := "-170141183460469231731687303715884105728"

	hi, err := ParseAmount(maxStr)
	require.NoError(t, err)
	assert.Equal(t, maxStr, hi.String())

	lo, err := ParseAmount(minStr)
	require.NoError(t, err)
	assert.Equal(t, minStr, lo.String())
	assert.True(t, lo.Less(hi))

	_, err = ParseAmount("170141183460469231731687303715884105728")
	assert.Error(t, err)
	_, err = ParseAmount("-170141183460469231731687303715884105729")
	assert.Error(t, err)
	_, err = ParseAmount("12abc")
	assert.Error(t, err)
}

func TestAmountJSON(t *testing.T) {
	var req struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 100000, "b": "-5"}`), &req))
	assert.Equal(t, "100000", req.A.String())
	assert.Equal(t, "-5", req.B.String())

	out, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"100000","b":"-5"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"a": 1.5}`), &req))
	assert.Error(t, json.Unmarshal([]byte(`{"a": null}`), &req))
}

func TestAmountBytesRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 150000, -9223372036854775808, 9223372036854775807} {
		a := NewAmount(v)
		b := a.Bytes()
		back, err := AmountFromBytes(b[:])
		require.NoError(t, err)
		assert.Equal(t, 0, a.Cmp(back), "value %d", v)
		assert.Equal(t, big.NewInt(v).String(), back.String())
	}

	_, err := AmountFromBytes([]byte{1, 2})
	assert.Error(t, err)
}

func TestAmountOrderingMatchesBigInt(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("Cmp agrees with big.Int on 128-bit values", prop.ForAll(
		func(ahi, bhi int64, alo, blo uint64) bool {
			a := Amount{hi: ahi, lo: alo}
			b := Amount{hi: bhi, lo: blo}
			return a.Cmp(b) == a.Big().Cmp(b.Big())
		},
		gen.Int64(), gen.Int64(), gen.UInt64(), gen.UInt64(),
	))

	properties.Property("String parses back to the same amount", prop.ForAll(
		func(hi int64, lo uint64) bool {
			a := Amount{hi: hi, lo: lo}
			back, err := ParseAmount(a.String())
			return err == nil && back == a
		},
		gen.Int64(), gen.UInt64(),
	))

	properties.TestingRun(t)
}
