package ir

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// canonicalName validates a symbol name and returns its NFC form, so that
// canonically equivalent spellings ("é" vs "é") name the same entity.
// Names must be non-empty and free of NUL bytes.
func canonicalName(op, name string) (string, error) {
	if name == "" {
		return "", buildErr(ErrKindInvalidName, op, `""`, "name must not be empty")
	}
	if strings.IndexByte(name, 0) >= 0 {
		return "", buildErr(ErrKindInvalidName, op, quote(name), "name must not contain NUL bytes")
	}
	return norm.NFC.String(name), nil
}

// canonicalLocal is canonicalName for block and value names, where empty
// means "number it automatically".
func canonicalLocal(op, name string) (string, error) {
	if name == "" {
		return "", nil
	}
	return canonicalName(op, name)
}

func quote(name string) string {
	return `"` + strings.ReplaceAll(name, "\x00", `\00`) + `"`
}

// canonicalOrRaw normalises a lookup key without validating it.
func canonicalOrRaw(name string) string {
	return norm.NFC.String(name)
}
