package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeTuple(fields map[string][]byte, order []string) []byte {
	out := []byte{tagTuple, 0, 0, 0, byte(len(order))}
	for _, name := range order {
		out = append(out, byte(len(name)))
		out = append(out, name...)
		out = append(out, fields[name]...)
	}
	return out
}

func TestParseUint(t *testing.T) {
	rec, err := ParseClarityValue(EncodeUint(42))
	require.NoError(t, err)
	v, ok := rec.UintValue()
	assert.True(t, ok)
	assert.Equal(t, uint64(42), v)
}

func TestParseUintOverflow(t *testing.T) {
	raw := EncodeUint(0)
	raw[1] = 0x01 // set a bit above the 64-bit range
	_, err := ParseClarityValue(raw)
	assert.Error(t, err)
}

func TestParseStringASCII(t *testing.T) {
	rec, err := ParseClarityValue(EncodeStringASCII("inv-001"))
	require.NoError(t, err)
	s, ok := rec.StringValue()
	assert.True(t, ok)
	assert.Equal(t, "inv-001", s)
}

func TestParseOptional(t *testing.T) {
	some := append([]byte{tagOptionalSome}, EncodeUint(7)...)
	rec, err := ParseClarityValue(some)
	require.NoError(t, err)
	v, ok := rec.UnwrapOptional().UintValue()
	assert.True(t, ok)
	assert.Equal(t, uint64(7), v)

	rec, err = ParseClarityValue([]byte{tagOptionalNone})
	require.NoError(t, err)
	assert.True(t, rec.IsNone())
	assert.Nil(t, rec.UnwrapOptional())
}

func TestParseTuple(t *testing.T) {
	raw := encodeTuple(map[string][]byte{
		"amount":  EncodeUint(1500),
		"status":  EncodeUint(1),
		"paid-at": append([]byte{tagOptionalSome}, EncodeUint(120)...),
		"memo":    []byte{tagOptionalNone},
	}, []string{"amount", "status", "paid-at", "memo"})

	rec, err := ParseClarityValue(raw)
	require.NoError(t, err)
	assert.Equal(t, KindTuple, rec.Kind)

	amount, ok := rec.Field("amount").UintValue()
	assert.True(t, ok)
	assert.Equal(t, uint64(1500), amount)

	paidAt, ok := rec.Field("paid-at").UnwrapOptional().UintValue()
	assert.True(t, ok)
	assert.Equal(t, uint64(120), paidAt)

	assert.True(t, rec.Field("memo").IsNone())
	assert.Nil(t, rec.Field("missing"))
}

func TestParseResponseOk(t *testing.T) {
	raw := append([]byte{tagResponseOk}, EncodeUint(3)...)
	rec, err := ParseClarityValue(raw)
	require.NoError(t, err)
	v, ok := rec.UnwrapOk().UintValue()
	assert.True(t, ok)
	assert.Equal(t, uint64(3), v)
}

func TestParseStandardPrincipal(t *testing.T) {
	raw := append([]byte{tagPrincipalStandard, 26}, make([]byte, 20)...)
	rec, err := ParseClarityValue(raw)
	require.NoError(t, err)
	s, ok := rec.StringValue()
	assert.True(t, ok)
	assert.Equal(t, "ST000000000000000000002AMW42H", s)
}

func TestParseTruncated(t *testing.T) {
	_, err := ParseClarityValue([]byte{tagUint, 0, 0})
	assert.Error(t, err)
}

func TestParseTrailingBytes(t *testing.T) {
	raw := append(EncodeUint(1), 0x00)
	_, err := ParseClarityValue(raw)
	assert.Error(t, err)
}

func TestParseUnknownTag(t *testing.T) {
	_, err := ParseClarityValue([]byte{0x7f})
	assert.Error(t, err)
}

func TestAccessorsAreNilSafe(t *testing.T) {
	var rec *RawRecord
	assert.Nil(t, rec.Field("x"))
	assert.Nil(t, rec.UnwrapOptional())
	assert.Nil(t, rec.UnwrapOk())
	assert.True(t, rec.IsNone())
	_, ok := rec.UintValue()
	assert.False(t, ok)
	_, ok = rec.StringValue()
	assert.False(t, ok)
}
