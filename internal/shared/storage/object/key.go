package object

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"docsummary-backend/internal/shared/util"
)

// NewKey builds "<sha256(owner)>/<random>_<sanitized name>" for a new object.
func NewKey(owner, fileName string) (string, error) {
	sanitized, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}
	return path.Join(util.HashUserKey(owner), randomID()+"_"+sanitized), nil
}

// FileNameFromKey returns the sanitized upload name embedded in a key built by NewKey.
func FileNameFromKey(key string) string {
	base := path.Base(key)
	if _, name, ok := strings.Cut(base, "_"); ok && name != "" {
		return name
	}
	return base
}

// Sniff detects the content type from the first 512 bytes and returns a reader
// that still yields the full stream.
func Sniff(r io.Reader) (string, io.Reader, error) {
	var head [512]byte
	n, err := io.ReadFull(r, head[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, fmt.Errorf("read sniff: %w", err)
	}
	return http.DetectContentType(head[:n]), io.MultiReader(bytes.NewReader(head[:n]), r), nil
}

func randomID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
