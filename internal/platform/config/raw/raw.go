// Package raw is a logging-free env reader used during bootstrap
// the logger reads its own config through this package to avoid an import cycle
package raw

import (
	"os"
	"strconv"
	"strings"
)

// Conf is a namespaced view over environment variables without logging
type Conf struct{ prefix string }

// New creates a root Conf (no prefix)
func New() Conf { return Conf{} }

// Prefix creates a child Conf with an additional prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

// Get returns the value or def when missing/empty
func (c Conf) Get(key, def string) string {
	v := strings.TrimSpace(os.Getenv(c.prefix + key))
	if v == "" {
		return def
	}
	return v
}

// GetBool returns the value or def when missing/empty/invalid
func (c Conf) GetBool(key string, def bool) bool {
	s := strings.TrimSpace(os.Getenv(c.prefix + key))
	if s == "" {
		return def
	}
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	return def
}

// GetInt returns the value or def when missing/empty/invalid
func (c Conf) GetInt(key string, def int) int {
	s := strings.TrimSpace(os.Getenv(c.prefix + key))
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
