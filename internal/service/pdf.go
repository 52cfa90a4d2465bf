package service

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/timmy/resumetailor/internal/domain"
)

// renderResumePDF lays a tailored resume out as a single-column A4 document:
// name and contact header, then summary, experience, education, and skills.
// Parameters:
//   - doc: validated tailored resume.
//
// Returns:
//   - []byte: the rendered PDF.
//   - error: rendering error.
func renderResumePDF(doc *domain.TailoredResume) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(doc.ContactInfo.Name+" - Resume", true)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	// Core fonts only cover cp1252; translate everything that came from
	// the model
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 8, tr(doc.ContactInfo.Name), "", 1, "C", false, 0, "")

	contact := make([]string, 0, 3)
	for _, part := range []string{doc.ContactInfo.Email, doc.ContactInfo.Phone, doc.ContactInfo.Location} {
		if part != "" {
			contact = append(contact, part)
		}
	}
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, tr(strings.Join(contact, " | ")), "", 1, "C", false, 0, "")
	if doc.ContactInfo.LinkedInURL != "" {
		pdf.CellFormat(0, 5, tr(doc.ContactInfo.LinkedInURL), "", 1, "C", false, 0, "")
	}
	pdf.Ln(2)

	section := func(title string) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 7, title, "B", 1, "L", false, 0, "")
		pdf.Ln(1)
	}

	section("Professional Summary")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5, tr(doc.Summary), "", "L", false)
	pdf.Ln(2)

	section("Experience")
	for _, exp := range doc.Experience {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s, %s", exp.Title, exp.Company)), "", 1, "L", false, 0, "")
		dates := fmt.Sprintf("%s - %s", exp.StartDate, exp.EndDate)
		if exp.Location != "" {
			dates = exp.Location + " | " + dates
		}
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(0, 5, tr(dates), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, line := range exp.Responsibilities {
			pdf.MultiCell(0, 5, tr("- "+line), "", "L", false)
		}
		pdf.Ln(1)
	}
	pdf.Ln(1)

	if len(doc.Education) > 0 {
		section("Education")
		for _, edu := range doc.Education {
			pdf.SetFont("Helvetica", "B", 11)
			pdf.CellFormat(0, 6, tr(edu.Degree), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 10)
			pdf.CellFormat(0, 5, tr(fmt.Sprintf("%s, %s", edu.Institution, edu.GraduationDate)), "", 1, "L", false, 0, "")
		}
		pdf.Ln(1)
	}

	if len(doc.Skills) > 0 {
		section("Skills")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, tr(strings.Join(doc.Skills, ", ")), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render resume PDF: %w", err)
	}
	return buf.Bytes(), nil
}
