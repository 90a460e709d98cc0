package ethrpc

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"
)

// wordSize is the ABI word width in bytes.
const wordSize = 32

// Selector returns the 4-byte function selector for a canonical signature:
// the leading bytes of the signature's Keccak-256 hash. Selectors for the
// fixed function set are derived once at client construction.
func Selector(sig string) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(sig))
	return h.Sum(nil)[:4]
}

// EncodeAddress pads a 20-byte hex address to a 32-byte ABI word.
func EncodeAddress(addr string) ([]byte, error) {
	trimmed := strings.TrimPrefix(addr, "0x")
	b, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", addr, err)
	}
	if len(b) != 20 {
		return nil, fmt.Errorf("address %q is %d bytes, want 20", addr, len(b))
	}
	padded := make([]byte, wordSize)
	copy(padded[wordSize-len(b):], b)
	return padded, nil
}

// Word returns the i-th 32-byte word of ABI return data.
func Word(data []byte, i int) ([]byte, error) {
	start := i * wordSize
	end := start + wordSize
	if i < 0 || end > len(data) {
		return nil, fmt.Errorf("return data too short: want word %d, have %d bytes", i, len(data))
	}
	return data[start:end], nil
}

// WordBig decodes word i as an unsigned big integer.
func WordBig(data []byte, i int) (*big.Int, error) {
	w, err := Word(data, i)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(w), nil
}

// WordUint64 decodes word i as a uint64.
func WordUint64(data []byte, i int) (uint64, error) {
	n, err := WordBig(data, i)
	if err != nil {
		return 0, err
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("word %d overflows uint64", i)
	}
	return n.Uint64(), nil
}

// WordAddress decodes word i as a 0x-prefixed lower-case address.
func WordAddress(data []byte, i int) (string, error) {
	w, err := Word(data, i)
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(w[12:]), nil
}

// WordOffset decodes word i as a byte offset into data. Dynamic fields
// (arrays, strings, dynamic tuples) place an offset word in the head and
// their payload at that offset.
func WordOffset(data []byte, i int) (int, error) {
	n, err := WordBig(data, i)
	if err != nil {
		return 0, err
	}
	if !n.IsInt64() || n.Int64() < 0 || n.Int64() > int64(len(data)) {
		return 0, fmt.Errorf("offset word %d out of range (%s of %d bytes)", i, n, len(data))
	}
	return int(n.Int64()), nil
}

// BigSliceAt decodes a uint256[] whose length word sits at byte offset.
func BigSliceAt(data []byte, offset int) ([]*big.Int, error) {
	length, err := lengthAt(data, offset)
	if err != nil {
		return nil, err
	}
	if offset+wordSize+length*wordSize > len(data) {
		return nil, fmt.Errorf("array of %d words exceeds return data (%d bytes)", length, len(data))
	}

	out := make([]*big.Int, 0, length)
	for k := 0; k < length; k++ {
		start := offset + wordSize + k*wordSize
		out = append(out, new(big.Int).SetBytes(data[start:start+wordSize]))
	}
	return out, nil
}

// StringAt decodes an ABI string whose length word sits at byte offset.
func StringAt(data []byte, offset int) (string, error) {
	length, err := lengthAt(data, offset)
	if err != nil {
		return "", err
	}
	start := offset + wordSize
	if start+length > len(data) {
		return "", fmt.Errorf("string of %d bytes exceeds return data (%d bytes)", length, len(data))
	}
	return string(data[start : start+length]), nil
}

// lengthAt reads the element/byte count word of a dynamic value.
func lengthAt(data []byte, offset int) (int, error) {
	if offset < 0 || offset+wordSize > len(data) {
		return 0, fmt.Errorf("length word at %d out of range (%d bytes)", offset, len(data))
	}
	n := new(big.Int).SetBytes(data[offset : offset+wordSize])
	if !n.IsInt64() || n.Int64() < 0 || n.Int64() > int64(len(data)) {
		return 0, fmt.Errorf("implausible length %s at offset %d", n, offset)
	}
	return int(n.Int64()), nil
}
