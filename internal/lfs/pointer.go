// Package lfs detects and parses Git LFS pointer files. The contents
// API serves the small pointer text instead of the stored object, so
// every downloaded file is inspected before it is kept.
package lfs

import (
	"bufio"
	"bytes"
	"errors"
	"strconv"
	"strings"
)

// PointerMagic is the mandatory first line of every LFS pointer file
const PointerMagic = "version https://git-lfs.github.com/spec/v1"

// MaxPointerSize bounds how large a file can be and still be checked
// as a pointer. Real pointers are a few hundred bytes.
const MaxPointerSize = 1024

// ErrInvalidPointer reports pointer-like content that fails to parse
var ErrInvalidPointer = errors.New("malformed LFS pointer")

// Pointer holds the fields parsed from an LFS pointer file. Size is
// -1 when the pointer carries no size line.
type Pointer struct {
	OID  string
	Size int64
}

// IsPointer reports whether data begins with the LFS pointer magic.
// A leading UTF-8 BOM is tolerated.
func IsPointer(data []byte) bool {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	return bytes.HasPrefix(data, []byte(PointerMagic))
}

// Parse extracts the object ID and size from pointer content.
// Returns ErrInvalidPointer when the magic or oid line is missing or
// malformed. The size line is optional.
func Parse(data []byte) (*Pointer, error) {
	if len(data) > MaxPointerSize || !IsPointer(data) {
		return nil, ErrInvalidPointer
	}
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	p := &Pointer{Size: -1}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "oid sha256:"):
			oid := strings.TrimPrefix(line, "oid sha256:")
			if !isHex(oid) || len(oid) != 64 {
				return nil, ErrInvalidPointer
			}
			p.OID = oid
		case strings.HasPrefix(line, "size "):
			size, err := strconv.ParseInt(strings.TrimPrefix(line, "size "), 10, 64)
			if err != nil || size < 0 {
				return nil, ErrInvalidPointer
			}
			p.Size = size
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, ErrInvalidPointer
	}

	if p.OID == "" {
		return nil, ErrInvalidPointer
	}
	return p, nil
}

func isHex(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return s != ""
}
