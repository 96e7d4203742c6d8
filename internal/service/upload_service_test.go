package service

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-go-api/internal/dto"
)

func TestUploadServiceRejectsSize(t *testing.T) {
	svc := NewUploadService(&storageStub{}, 16, testLogger())

	payload := bytes.Repeat([]byte("a"), 64)
	_, err := svc.Store(context.Background(), dto.SubmissionFile{Filename: "big.txt", Size: int64(len(payload)), Reader: bytes.NewReader(payload)})
	require.ErrorIs(t, err, errUploadTooLarge)

	// a lying size header is caught while reading
	_, err = svc.Store(context.Background(), dto.SubmissionFile{Filename: "big.txt", Size: 1, Reader: bytes.NewReader(payload)})
	require.ErrorIs(t, err, errUploadTooLarge)
}

func TestUploadServiceTypeValidation(t *testing.T) {
	svc := NewUploadService(&storageStub{}, 1024, testLogger())

	html := []byte("<!DOCTYPE html><html><body><script>alert(1)</script></body></html>")
	_, err := svc.Store(context.Background(), dto.SubmissionFile{Filename: "page.txt", Size: int64(len(html)), Reader: bytes.NewReader(html)})
	require.ErrorIs(t, err, errUploadTypeNotAllowed)

	_, err = svc.Store(context.Background(), dto.SubmissionFile{Filename: "empty.txt", Reader: bytes.NewReader(nil)})
	require.ErrorIs(t, err, errUploadEmpty)
}

func TestUploadServiceSuccess(t *testing.T) {
	storage := &storageStub{}
	svc := NewUploadService(storage, 1024, testLogger())

	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	stored, err := svc.Store(context.Background(), dto.SubmissionFile{Filename: "image.png", Size: int64(len(png)), Reader: bytes.NewReader(png)})
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/image.png", stored.URL)
	require.Equal(t, "image/png", stored.MimeType)
	require.EqualValues(t, len(png), stored.Size)
	require.Equal(t, []string{"image.png"}, storage.names)
}

func TestUploadServiceScansArchives(t *testing.T) {
	svc := NewUploadService(&storageStub{}, 4*1024, testLogger())

	buf := &bytes.Buffer{}
	writer := zip.NewWriter(buf)
	entry, err := writer.Create("bomb.txt")
	require.NoError(t, err)
	_, err = entry.Write(bytes.Repeat([]byte{0}, 200*1024))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	require.Less(t, buf.Len(), 4*1024)

	_, err = svc.Store(context.Background(), dto.SubmissionFile{Filename: "bomb.zip", Size: int64(buf.Len()), Reader: bytes.NewReader(buf.Bytes())})
	require.ErrorIs(t, err, errUploadScanFailed)
}
