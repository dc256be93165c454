// Package dex reads the class definitions out of a Dalvik executable.
//
// Only the header, the string, type and class_def tables are read; code,
// annotations and the map list are ignored.
package dex

import (
	"bytes"
	"encoding/binary"
	"hash/adler32"
	"regexp"
	"unicode/utf16"

	"github.com/pkg/errors"
)

const (
	headerSize   = 0x70
	endianTag    = 0x12345678
	classDefSize = 0x20

	offChecksum     = 0x08
	offFileSize     = 0x20
	offHeaderSize   = 0x24
	offEndianTag    = 0x28
	offStringIDs    = 0x38
	offTypeIDs      = 0x40
	offClassDefs    = 0x60
	checksummedFrom = 0x0c
)

var (
	dexMagic = []byte("dex\n")
	// classes.dex, classes2.dex, ... at the root of an archive.
	dexEntryRe = regexp.MustCompile(`^classes[0-9]*\.dex$`)
)

// IsDexEntry reports whether a zip entry name is one of the dex files the
// runtime loads from a jar or apk.
func IsDexEntry(name string) bool {
	return dexEntryRe.MatchString(name)
}

// ClassDescriptors returns the type descriptor of every class defined in
// the dex file b, in class_def order.
func ClassDescriptors(b []byte) ([]string, error) {
	if len(b) < headerSize {
		return nil, errors.Errorf("dex: file too short (%d bytes)", len(b))
	}
	if !bytes.HasPrefix(b, dexMagic) || b[7] != 0 {
		return nil, errors.Errorf("dex: bad magic %q", b[:8])
	}
	le := binary.LittleEndian
	if tag := le.Uint32(b[offEndianTag:]); tag != endianTag {
		return nil, errors.Errorf("dex: unsupported endian tag %#x", tag)
	}
	if hs := le.Uint32(b[offHeaderSize:]); hs < headerSize {
		return nil, errors.Errorf("dex: header size %#x too small", hs)
	}
	size := le.Uint32(b[offFileSize:])
	if int64(size) > int64(len(b)) || size < headerSize {
		return nil, errors.Errorf("dex: header claims %d bytes, have %d", size, len(b))
	}
	b = b[:size]
	if sum := adler32.Checksum(b[checksummedFrom:]); sum != le.Uint32(b[offChecksum:]) {
		return nil, errors.Errorf("dex: checksum mismatch (computed %#x)", sum)
	}

	r := &reader{b: b}
	stringsN, stringsOff := le.Uint32(b[offStringIDs:]), le.Uint32(b[offStringIDs+4:])
	typesN, typesOff := le.Uint32(b[offTypeIDs:]), le.Uint32(b[offTypeIDs+4:])
	classesN, classesOff := le.Uint32(b[offClassDefs:]), le.Uint32(b[offClassDefs+4:])

	var out []string
	for i := uint32(0); i < classesN; i++ {
		classIdx, err := r.u32(uint64(classesOff) + uint64(i)*classDefSize)
		if err != nil {
			return nil, errors.Wrapf(err, "dex: class_def %d", i)
		}
		if classIdx >= typesN {
			return nil, errors.Errorf("dex: class_def %d: type index %d out of range", i, classIdx)
		}
		descIdx, err := r.u32(uint64(typesOff) + uint64(classIdx)*4)
		if err != nil {
			return nil, errors.Wrapf(err, "dex: type_id %d", classIdx)
		}
		if descIdx >= stringsN {
			return nil, errors.Errorf("dex: type_id %d: string index %d out of range", classIdx, descIdx)
		}
		dataOff, err := r.u32(uint64(stringsOff) + uint64(descIdx)*4)
		if err != nil {
			return nil, errors.Wrapf(err, "dex: string_id %d", descIdx)
		}
		s, err := r.mutf8(uint64(dataOff))
		if err != nil {
			return nil, errors.Wrapf(err, "dex: string_data for string_id %d", descIdx)
		}
		out = append(out, s)
	}
	return out, nil
}

type reader struct {
	b []byte
}

func (r *reader) u32(off uint64) (uint32, error) {
	if off+4 > uint64(len(r.b)) {
		return 0, errors.Errorf("offset %#x out of bounds", off)
	}
	return binary.LittleEndian.Uint32(r.b[off:]), nil
}

// mutf8 reads a string_data_item: a uleb128 utf16 length followed by
// NUL-terminated modified UTF-8.
func (r *reader) mutf8(off uint64) (string, error) {
	if off >= uint64(len(r.b)) {
		return "", errors.Errorf("offset %#x out of bounds", off)
	}
	p := r.b[off:]
	n, read := uleb128(p)
	if read == 0 {
		return "", errors.New("truncated uleb128")
	}
	p = p[read:]

	// Every unit takes at least one byte.
	units := make([]uint16, 0, min(n, uint32(len(p))))
	for {
		if len(p) == 0 {
			return "", errors.New("unterminated string")
		}
		c := p[0]
		switch {
		case c == 0:
			if uint32(len(units)) != n {
				return "", errors.Errorf("string length %d, header says %d", len(units), n)
			}
			return string(utf16.Decode(units)), nil
		case c < 0x80:
			units = append(units, uint16(c))
			p = p[1:]
		case c&0xe0 == 0xc0:
			if len(p) < 2 {
				return "", errors.New("truncated 2-byte sequence")
			}
			units = append(units, uint16(c&0x1f)<<6|uint16(p[1]&0x3f))
			p = p[2:]
		case c&0xf0 == 0xe0:
			if len(p) < 3 {
				return "", errors.New("truncated 3-byte sequence")
			}
			units = append(units, uint16(c&0x0f)<<12|uint16(p[1]&0x3f)<<6|uint16(p[2]&0x3f))
			p = p[3:]
		default:
			return "", errors.Errorf("invalid MUTF-8 lead byte %#x", c)
		}
	}
}

func uleb128(p []byte) (uint32, int) {
	var v uint32
	for i := 0; i < 5 && i < len(p); i++ {
		v |= uint32(p[i]&0x7f) << (7 * i)
		if p[i]&0x80 == 0 {
			return v, i + 1
		}
	}
	return 0, 0
}
