package binary

import (
	"crypto/ed25519"
	"encoding/binary"
)

// Put* helpers write little-endian values into dst and advance offset by the
// number of bytes written. Get* helpers do the reverse. Callers are expected
// to have validated that the buffer is large enough.

func PutKey32(dst []byte, src []byte, offset *int) {
	copy(dst, src)
	*offset += ed25519.PublicKeySize
}

func PutUint64(dst []byte, v uint64, offset *int) {
	binary.LittleEndian.PutUint64(dst, v)
	*offset += 8
}

func PutUint32(dst []byte, v uint32, offset *int) {
	binary.LittleEndian.PutUint32(dst, v)
	*offset += 4
}

func PutUint8(dst []byte, v uint8, offset *int) {
	dst[0] = v
	*offset += 1
}

func GetKey32(src []byte, dst *ed25519.PublicKey, offset *int) {
	*dst = make([]byte, ed25519.PublicKeySize)
	copy(*dst, src)
	*offset += ed25519.PublicKeySize
}

func GetUint64(src []byte, dst *uint64, offset *int) {
	*dst = binary.LittleEndian.Uint64(src)
	*offset += 8
}

func GetUint32(src []byte, dst *uint32, offset *int) {
	*dst = binary.LittleEndian.Uint32(src)
	*offset += 4
}

func GetUint8(src []byte, dst *uint8, offset *int) {
	*dst = src[0]
	*offset += 1
}
