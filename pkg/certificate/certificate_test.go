package certificate

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRenderProducesPDF(t *testing.T) {
	renderer := NewRenderer("Acme Academy")
	completed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	pdf, err := renderer.Render(Data{
		Number:         Number("0b9f3c1e-aaaa-bbbb-cccc-1234567890ab", completed),
		StudentName:    "Sam Student",
		CourseTitle:    "Go Fundamentals",
		InstructorName: "Ina Instructor",
		CompletedAt:    completed,
	})
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
}

func TestRenderRequiresNames(t *testing.T) {
	_, err := NewRenderer("").Render(Data{CourseTitle: "Go"})
	require.Error(t, err)
}

func TestNumberIsStable(t *testing.T) {
	completed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.Equal(t, "CERT-20240501-0B9F3C1EAA", Number("0b9f3c1e-aaaa-bbbb", completed))
}
