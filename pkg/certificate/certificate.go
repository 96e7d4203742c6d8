// Package certificate renders course completion certificates as PDF documents.
package certificate

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Data is the content printed on a certificate.
type Data struct {
	Number         string
	StudentName    string
	CourseTitle    string
	InstructorName string
	CompletedAt    time.Time
	IssuerName     string
}

// Renderer turns certificate data into a PDF.
type Renderer struct {
	issuer string
}

// NewRenderer constructs a renderer. issuer is printed in the footer.
func NewRenderer(issuer string) *Renderer {
	if strings.TrimSpace(issuer) == "" {
		issuer = "LMS"
	}
	return &Renderer{issuer: issuer}
}

// Number derives a stable certificate number from the enrollment id.
func Number(enrollmentID string, completedAt time.Time) string {
	compact := strings.ToUpper(strings.ReplaceAll(enrollmentID, "-", ""))
	if len(compact) > 10 {
		compact = compact[:10]
	}
	return fmt.Sprintf("CERT-%s-%s", completedAt.UTC().Format("20060102"), compact)
}

// Render creates a single landscape page certificate.
func (r *Renderer) Render(data Data) ([]byte, error) {
	if strings.TrimSpace(data.StudentName) == "" || strings.TrimSpace(data.CourseTitle) == "" {
		return nil, fmt.Errorf("certificate requires student name and course title")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Certificate of Completion", false)
	pdf.SetAuthor(r.issuer, false)
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetLineWidth(1.2)
	pdf.Rect(10, 10, 277, 190, "D")

	pdf.SetFont("Arial", "B", 28)
	pdf.Ln(20)
	pdf.CellFormat(0, 14, "CERTIFICATE OF COMPLETION", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 14)
	pdf.Ln(8)
	pdf.CellFormat(0, 10, "This certifies that", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 24)
	pdf.CellFormat(0, 14, data.StudentName, "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 14)
	pdf.CellFormat(0, 10, "has successfully completed the course", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 18)
	pdf.MultiCell(0, 10, data.CourseTitle, "", "C", false)

	pdf.SetFont("Arial", "", 12)
	pdf.Ln(6)
	if data.InstructorName != "" {
		pdf.CellFormat(0, 8, "Instructor: "+data.InstructorName, "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(0, 8, "Completed on "+data.CompletedAt.UTC().Format("January 2, 2006"), "", 1, "C", false, 0, "")

	pdf.SetY(-35)
	pdf.SetFont("Arial", "I", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("%s  |  Certificate No. %s", r.issuer, data.Number), "", 1, "C", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}
