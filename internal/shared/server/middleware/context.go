package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	usernameKey  = "username"
	fileCountKey = "fileCount"
)

// SetUsername records the username a request acts for, for logging.
func SetUsername(c *gin.Context, username string) {
	if trimmed := strings.TrimSpace(username); trimmed != "" {
		c.Set(usernameKey, trimmed)
	}
}

// UsernameFromContext returns the username set by a handler, if any.
func UsernameFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(usernameKey)
}

// SetFileCount records how many files an upload carried.
func SetFileCount(c *gin.Context, n int) {
	c.Set(fileCountKey, n)
}
