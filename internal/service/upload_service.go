package service

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/observability"
	appErrors "github.com/noah-isme/lms-go-api/pkg/errors"
)

var (
	errUploadTooLarge       = appErrors.Clone(appErrors.ErrValidation, "file exceeds maximum allowed size")
	errUploadTypeNotAllowed = appErrors.Clone(appErrors.ErrValidation, "file type is not allowed")
	errUploadScanFailed     = appErrors.Clone(appErrors.ErrValidation, "file failed content checks")
	errUploadEmpty          = appErrors.Clone(appErrors.ErrValidation, "file is empty")
)

// FileUploader abstracts uploading binary data and returning a URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// StoredFile describes an accepted upload.
type StoredFile struct {
	URL      string
	MimeType string
	Size     int64
}

// UploadService validates submission attachments and hands them to storage.
type UploadService interface {
	Store(ctx context.Context, file dto.SubmissionFile) (StoredFile, error)
}

type uploadService struct {
	storage FileUploader
	maxSize int64
	logger  zerolog.Logger
	tracer  trace.Tracer
}

// NewUploadService constructs the upload pipeline with a size cap in bytes.
func NewUploadService(storage FileUploader, maxBytes int64, logger zerolog.Logger) UploadService {
	if maxBytes <= 0 {
		maxBytes = 10 * 1024 * 1024
	}
	return &uploadService{
		storage: storage,
		maxSize: maxBytes,
		logger:  logger.With().Str("component", "upload_service").Logger(),
		tracer:  otel.Tracer(tracerPrefix + "upload"),
	}
}

func (s *uploadService) Store(ctx context.Context, file dto.SubmissionFile) (StoredFile, error) {
	ctx, span := s.tracer.Start(ctx, "upload.store", trace.WithAttributes(
		attribute.String("upload.original_name", strings.TrimSpace(file.Filename)),
		attribute.Int64("upload.request_size", file.Size),
		attribute.Int64("upload.max_bytes", s.maxSize),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	reject := func(reason string, err error) (StoredFile, error) {
		observability.UploadRejected().WithLabelValues(reason).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
		return StoredFile{}, err
	}

	if file.Reader == nil {
		return reject("empty", errUploadEmpty)
	}
	if file.Size > s.maxSize {
		return reject("size", errUploadTooLarge)
	}

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(file.Reader, s.maxSize+1)); err != nil {
		span.RecordError(err)
		return StoredFile{}, err
	}
	if buf.Len() == 0 {
		return reject("empty", errUploadEmpty)
	}
	if int64(buf.Len()) > s.maxSize {
		return reject("size", errUploadTooLarge)
	}

	detected := mimetype.Detect(buf.Bytes())
	span.SetAttributes(attribute.String("upload.detected_mime", detected.String()))
	if !allowedAttachment(detected) {
		return reject("type", errUploadTypeNotAllowed)
	}

	if detected.Is("application/zip") {
		if err := s.scanArchive(buf.Bytes()); err != nil {
			return reject("scan", err)
		}
	}

	url, err := s.storage.Upload(ctx, file.Filename, bytes.NewReader(buf.Bytes()))
	if err != nil {
		observability.UploadRejected().WithLabelValues("storage").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		s.logger.Error().Err(err).Str("filename", file.Filename).Msg("failed to store attachment")
		return StoredFile{}, err
	}

	span.SetStatus(codes.Ok, "stored")
	return StoredFile{URL: url, MimeType: detected.String(), Size: int64(buf.Len())}, nil
}

// scanArchive rejects zip bombs by bounding the total uncompressed size.
func (s *uploadService) scanArchive(payload []byte) error {
	reader, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return errUploadScanFailed
	}
	var total uint64
	for _, f := range reader.File {
		total += f.UncompressedSize64
		if total > uint64(s.maxSize*20) {
			return fmt.Errorf("zip archive uncompressed size too large: %w", errUploadScanFailed)
		}
	}
	return nil
}

var allowedAttachmentTypes = []string{
	"application/pdf",
	"application/zip",
	"text/plain",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/webp",
}

func allowedAttachment(detected *mimetype.MIME) bool {
	for _, allowed := range allowedAttachmentTypes {
		if detected.Is(allowed) {
			return true
		}
	}
	return false
}
