package util

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxFileNameBytes = 200

var errInvalidFileName = errors.New("invalid file name")

// SanitizeFileName makes an uploaded file name safe to embed in a storage key.
// Separators and control characters become underscores, so the result is a
// single path element. "." and ".." are rejected.
func SanitizeFileName(name string) (string, error) {
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	s = strings.TrimSpace(s)
	if s == "" || s == "." || s == ".." {
		return "", errInvalidFileName
	}
	for len(s) > maxFileNameBytes {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}
	return s, nil
}
