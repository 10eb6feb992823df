package ledger

import (
	"crypto/sha256"
	"math/big"
)

// Crockford-style alphabet used by Stacks addresses (no I, L, O, U).
const c32Alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var c32Base = big.NewInt(32)

// c32Address renders a principal's version byte and hash160 as a Stacks
// address string, e.g. ST1H7G0B7BBM991P2KA77R0XHDRNYCWH8H92TT4QN.
func c32Address(version byte, hash160 []byte) string {
	payload := make([]byte, 0, len(hash160)+4)
	payload = append(payload, hash160...)
	payload = append(payload, c32Checksum(version, hash160)...)
	return "S" + string(c32Alphabet[version&0x1f]) + c32Encode(payload)
}

// c32Checksum is the first 4 bytes of sha256(sha256(version || data)).
func c32Checksum(version byte, data []byte) []byte {
	first := sha256.Sum256(append([]byte{version}, data...))
	second := sha256.Sum256(first[:])
	return second[:4]
}

// c32Encode base32-encodes data big-endian, preserving one leading zero
// digit per leading zero byte of the input.
func c32Encode(data []byte) string {
	n := new(big.Int).SetBytes(data)
	mod := new(big.Int)
	digits := make([]byte, 0, (len(data)*8+4)/5)
	for n.Sign() > 0 {
		n.DivMod(n, c32Base, mod)
		digits = append(digits, c32Alphabet[mod.Int64()])
	}
	for _, b := range data {
		if b != 0 {
			break
		}
		digits = append(digits, c32Alphabet[0])
	}
	// digits were collected least-significant first
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	return string(digits)
}
