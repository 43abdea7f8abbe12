package lfs

import (
	"errors"
	"strings"
	"testing"
)

const validPointer = "version https://git-lfs.github.com/spec/v1\n" +
	"oid sha256:4d7a214614ab2935c943f9e0ff69d22eadbb8f32b1258daaa5e2ca24d17e2393\n" +
	"size 12345\n"

func TestIsPointer(t *testing.T) {
	tests := []struct {
		name string
		data string
		want bool
	}{
		{"valid pointer", validPointer, true},
		{"pointer with BOM", "\xEF\xBB\xBF" + validPointer, true},
		{"binary payload", "\x89PNG\r\n\x1a\n", false},
		{"empty", "", false},
		{"magic mid-file", "x\n" + validPointer, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPointer([]byte(tt.data)); got != tt.want {
				t.Errorf("IsPointer = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	p, err := Parse([]byte(validPointer))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.OID != "4d7a214614ab2935c943f9e0ff69d22eadbb8f32b1258daaa5e2ca24d17e2393" {
		t.Errorf("unexpected oid %q", p.OID)
	}
	if p.Size != 12345 {
		t.Errorf("unexpected size %d", p.Size)
	}
}

func TestParseWithoutSizeLine(t *testing.T) {
	data := "version https://git-lfs.github.com/spec/v1\n" +
		"oid sha256:" + strings.Repeat("a", 64) + "\n"

	p, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.OID != strings.Repeat("a", 64) {
		t.Errorf("unexpected oid %q", p.OID)
	}
	if p.Size != -1 {
		t.Errorf("size without a size line = %d, want -1", p.Size)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"no magic", "oid sha256:abc\nsize 1\n"},
		{"missing oid", "version https://git-lfs.github.com/spec/v1\nsize 1\n"},
		{"short oid", "version https://git-lfs.github.com/spec/v1\noid sha256:abc\nsize 1\n"},
		{"non-hex oid", "version https://git-lfs.github.com/spec/v1\noid sha256:" + strings.Repeat("z", 64) + "\nsize 1\n"},
		{"bad size", "version https://git-lfs.github.com/spec/v1\noid sha256:" + strings.Repeat("a", 64) + "\nsize many\n"},
		{"oversized", validPointer + strings.Repeat("x", MaxPointerSize)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); !errors.Is(err, ErrInvalidPointer) {
				t.Errorf("expected ErrInvalidPointer, got %v", err)
			}
		})
	}
}
