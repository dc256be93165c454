// Package dextest builds minimal dex files for tests.
package dextest

import (
	"encoding/binary"
	"hash/adler32"
	"unicode/utf16"
)

// Build returns a dex file whose class_defs name the given descriptors,
// in order. Everything else in the file is empty.
func Build(descriptors ...string) []byte {
	n := uint32(len(descriptors))
	stringIDsOff := uint32(0x70)
	typeIDsOff := stringIDsOff + 4*n
	classDefsOff := typeIDsOff + 4*n
	dataOff := classDefsOff + 0x20*n

	le := binary.LittleEndian
	b := make([]byte, dataOff)
	copy(b, "dex\n035\x00")
	le.PutUint32(b[0x24:], 0x70)
	le.PutUint32(b[0x28:], 0x12345678)
	le.PutUint32(b[0x38:], n)
	le.PutUint32(b[0x3c:], stringIDsOff)
	le.PutUint32(b[0x40:], n)
	le.PutUint32(b[0x44:], typeIDsOff)
	le.PutUint32(b[0x60:], n)
	le.PutUint32(b[0x64:], classDefsOff)
	le.PutUint32(b[0x6c:], dataOff)

	for i, d := range descriptors {
		i := uint32(i)
		le.PutUint32(b[stringIDsOff+4*i:], uint32(len(b)))
		le.PutUint32(b[typeIDsOff+4*i:], i)
		le.PutUint32(b[classDefsOff+0x20*i:], i)
		b = appendStringData(b, d)
	}

	le.PutUint32(b[0x68:], uint32(len(b))-dataOff)
	le.PutUint32(b[0x20:], uint32(len(b)))
	le.PutUint32(b[0x08:], adler32.Checksum(b[0x0c:]))
	return b
}

func appendStringData(b []byte, s string) []byte {
	units := utf16.Encode([]rune(s))
	n := uint32(len(units))
	for {
		c := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			b = append(b, c|0x80)
			continue
		}
		b = append(b, c)
		break
	}
	for _, u := range units {
		switch {
		case u != 0 && u < 0x80:
			b = append(b, byte(u))
		case u < 0x800:
			b = append(b, 0xc0|byte(u>>6), 0x80|byte(u&0x3f))
		default:
			b = append(b, 0xe0|byte(u>>12), 0x80|byte(u>>6&0x3f), 0x80|byte(u&0x3f))
		}
	}
	return append(b, 0)
}
