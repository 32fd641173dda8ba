package giftcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 500; i++ {
		code, err := New()
		require.NoError(t, err)
		require.Len(t, code, DefaultLength)
		require.True(t, Valid(code), "unexpected character in %q", code)

		_, dup := seen[code]
		require.False(t, dup, "duplicate code %q", code)
		seen[code] = struct{}{}
	}
}

func TestGenerateRejectsBadLength(t *testing.T) {
	_, err := Generate(0)
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "ABCD-1234-EFGH", Format("ABCD1234EFGH"))
	assert.Equal(t, "ABC", Format("ABC"))
	assert.Equal(t, "ABCD-EF", Format("ABCDEF"))
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"abcd-1234-efgh":     "ABCD1234EFGH",
		" ABCD 1234 efgh\n":  "ABCD1234EFGH",
		"ab.cd_12/34-ef:gh!": "ABCD1234EFGH",
		"":                   "",
		"ÄBCD":               "BCD",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "input %q", in)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := New()
		require.NoError(t, err)
		assert.Equal(t, code, Normalize(Format(code)))
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("ABCD1234EFGH"))
	assert.False(t, Valid("ABCD1234EFG"))
	assert.False(t, Valid("abcd1234efgh"))
	assert.False(t, Valid("ABCD-234EFGH"))
}
