// Package storage provides backends that persist uploaded files and return a URL for them.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Uploader stores a file and returns the URL clients use to fetch it.
type Uploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

func sanitizeName(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, base)

	base = strings.Trim(base, "-")
	if base == "" {
		base = "upload"
	}
	return base
}

// objectKey builds a unique, date-partitioned key that keeps the original extension.
func objectKey(name string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(name))
	return fmt.Sprintf("%s/%s-%s%s", now.UTC().Format("2006/01/02"), sanitizeName(name), uuid.NewString()[:8], ext)
}
