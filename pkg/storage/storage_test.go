package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageUploadWritesInsideBaseDir(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir, "http://cdn.local/files/", zerolog.Nop())
	require.NoError(t, err)
	store.now = func() time.Time { return time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC) }

	url, err := store.Upload(context.Background(), "../../My Essay.PDF", strings.NewReader("hello"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "http://cdn.local/files/2024/03/05/My-Essay-"), url)
	require.True(t, strings.HasSuffix(url, ".pdf"), url)

	key := strings.TrimPrefix(url, "http://cdn.local/files/")
	content, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	require.NoError(t, err)
	require.Equal(t, "hello", string(content))
}

func TestLocalStorageResolveStaysInBaseDir(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "", zerolog.Nop())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(store.resolve("../../etc/passwd"), store.BaseDir()))
}

func TestCloudinaryRequiresCredentials(t *testing.T) {
	_, err := NewCloudinary(CloudinaryConfig{CloudName: "demo"}, zerolog.Nop())
	require.Error(t, err)
}

func TestCloudinaryResourceType(t *testing.T) {
	require.Equal(t, "image", resourceTypeFor("diagram.PNG"))
	require.Equal(t, "raw", resourceTypeFor("essay.pdf"))
	require.Equal(t, "raw", resourceTypeFor("notes"))
}
