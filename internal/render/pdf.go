package render

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// PDFGenerator renders a QuoteDocument as an A4 quotation for download or
// e-mail. It uses the built-in Helvetica fonts, so text is transliterated to
// Latin-1 and amounts carry the VND code rather than the đồng symbol.
type PDFGenerator struct{}

func NewPDFGenerator() *PDFGenerator {
	return &PDFGenerator{}
}

// Generate produces the PDF bytes for one quote document.
func (g *PDFGenerator) Generate(doc QuoteDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 7, tr(doc.Company.Name), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, line := range companyLines(doc.Company) {
		pdf.CellFormat(0, 5, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "QUOTATION", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Date: %s", formatDate(doc.IssuedAt)), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Ref: %s", doc.Title)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	addCustomerBlock(pdf, tr, doc.Customer)
	pdf.Ln(4)

	headers := []string{"#", "Description", "Category", "Unit Price", "Qty", "Amount"}
	colWidths := []float64{10, 70, 30, 35, 12, 38}
	drawQuoteRow(pdf, tr, headers, colWidths, true)

	for _, line := range doc.Lines {
		row := []string{
			fmt.Sprintf("%d", line.Index),
			line.Name,
			categoryLabel(line),
			FormatVNDCode(line.UnitPrice),
			fmt.Sprintf("%d", line.Quantity),
			FormatVNDCode(line.LineTotal),
		}
		drawQuoteRow(pdf, tr, row, colWidths, false)
	}

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 8, fmt.Sprintf("Total: %s", FormatVNDCode(doc.Total)), "", 1, "R", false, 0, "")

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 11)
	signatureBlock(pdf, tr, "Buyer", doc.Customer.ContactPerson)
	signatureBlock(pdf, tr, "Seller", doc.Company.Name)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func companyLines(company CompanyInfo) []string {
	lines := []string{}
	if company.Address != "" {
		lines = append(lines, company.Address)
	}
	if company.TaxCode != "" {
		lines = append(lines, fmt.Sprintf("Tax code: %s", company.TaxCode))
	}
	contact := []string{}
	if company.Phone != "" {
		contact = append(contact, company.Phone)
	}
	if company.Email != "" {
		contact = append(contact, company.Email)
	}
	if len(contact) > 0 {
		lines = append(lines, strings.Join(contact, " | "))
	}
	return lines
}

func addCustomerBlock(pdf *gofpdf.Fpdf, tr func(string) string, customer CustomerInfo) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, "To", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	lines := []string{
		customer.Name,
		fmt.Sprintf("Tax code: %s", safeValue(customer.TaxCode)),
		fmt.Sprintf("Address: %s", safeValue(customer.Address)),
		fmt.Sprintf("Attn: %s", safeValue(customer.ContactPerson)),
	}
	for _, line := range lines {
		pdf.MultiCell(0, 5, tr(line), "", "L", false)
	}
}

func drawQuoteRow(pdf *gofpdf.Fpdf, tr func(string) string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont("Helvetica", style, 9)
	for i, col := range cols {
		align := "L"
		if i >= 3 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, tr(col), "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func signatureBlock(pdf *gofpdf.Fpdf, tr func(string) string, label, name string) {
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s: ______________________ /%s/", label, safeValue(name))), "", 1, "L", false, 0, "")
}

func categoryLabel(line QuoteLine) string {
	if line.Category == "" {
		return "-"
	}
	if line.BillingCycle != "" && line.BillingCycle != "ONE_TIME" {
		return fmt.Sprintf("%s/%s", line.Category, line.BillingCycle)
	}
	return string(line.Category)
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02/01/2006")
}
