package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LocalStorage persists files on disk under a base directory.
type LocalStorage struct {
	baseDir       string
	publicBaseURL string
	logger        zerolog.Logger
	now           func() time.Time
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir, publicBaseURL string, logger zerolog.Logger) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	if publicBaseURL == "" {
		publicBaseURL = "/uploads"
	}
	return &LocalStorage{
		baseDir:       baseDir,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger.With().Str("component", "local_storage").Logger(),
		now:           time.Now,
	}, nil
}

// BaseDir returns the directory files are written to.
func (s *LocalStorage) BaseDir() string {
	return s.baseDir
}

// Upload copies reader into a new file and returns its public URL.
func (s *LocalStorage) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := objectKey(name, s.now())
	if _, err := s.SaveStream(key, reader); err != nil {
		return "", err
	}

	s.logger.Info().Str("key", key).Msg("file stored on disk")
	return s.publicBaseURL + "/" + path.Clean(key), nil
}

// SaveStream copies from reader into the target file path.
func (s *LocalStorage) SaveStream(filename string, r io.Reader) (string, error) {
	target := s.resolve(filename)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("prepare upload directory: %w", err)
	}
	file, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, r); err != nil {
		return "", fmt.Errorf("write upload stream: %w", err)
	}
	return filename, nil
}

// resolve keeps every path inside baseDir.
func (s *LocalStorage) resolve(filename string) string {
	cleaned := filepath.Clean("/" + filepath.FromSlash(filename))
	return filepath.Join(s.baseDir, cleaned)
}
