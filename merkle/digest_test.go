package merkle

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestHexRoundTrip(t *testing.T) {
	for i := uint64(0); i < 16; i++ {
		d := hashNum(i)

		got, err := ParseDigest(d.Hex())
		require.NoError(t, err)
		assert.Equal(t, d, got)

		got, err = ParseDigest(d.PrefixedHex())
		require.NoError(t, err)
		assert.Equal(t, d, got)

		assert.Equal(t, strings.ToLower(d.Hex()), d.Hex())
	}
}

func TestParseDigest(t *testing.T) {
	d := hashNum(7)
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"plain", d.Hex(), false},
		{"prefixed", "0x" + d.Hex(), false},
		{"upper case prefix and digits", "0X" + strings.ToUpper(d.Hex()), false},
		{"too short", d.Hex()[:62], true},
		{"too long", d.Hex() + "00", true},
		{"not hex", strings.Repeat("zz", DigestSize), true},
		{"empty", "", true},
		{"double prefix", "0x0X" + d.Hex(), true},
		{"prefix only", "0x", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDigest(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDigest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, d, got)
		})
	}
}

func TestDigestJSON(t *testing.T) {
	d := hashNum(3)
	data, err := json.Marshal(struct {
		Root Digest `json:"root"`
	}{d})
	require.NoError(t, err)
	assert.JSONEq(t, `{"root":"`+d.Hex()+`"}`, string(data))

	var back struct {
		Root Digest `json:"root"`
	}
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, d, back.Root)
}

func TestDigestFromBytes(t *testing.T) {
	d := hashNum(1)
	got, err := DigestFromBytes(d.Bytes())
	require.NoError(t, err)
	assert.Equal(t, d, got)

	_, err = DigestFromBytes(d.Bytes()[:31])
	assert.ErrorIs(t, err, ErrInvalidDigest)
}
