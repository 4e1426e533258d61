// Package render turns a saved deal quote into its outward-facing forms. The
// table, print and PDF renderers all consume the same QuoteDocument, so their
// totals can never disagree.
package render

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/vietbiz/crm-api/internal/domain"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CompanyInfo is the seller letterhead printed on quotes and contracts.
type CompanyInfo struct {
	Name    string
	TaxCode string
	Address string
	Phone   string
	Email   string
}

// CustomerInfo is the buyer block on a rendered quote.
type CustomerInfo struct {
	Name          string
	TaxCode       string
	ContactPerson string
	Address       string
	Email         string
	Phone         string
}

// QuoteLine is one rendered quote row with its precomputed amount.
type QuoteLine struct {
	Index        int
	Name         string
	Category     domain.ProductCategory
	BillingCycle domain.BillingCycle
	UnitPrice    int64
	Quantity     int
	LineTotal    int64
}

// QuoteDocument is the single aggregate every renderer works from. It is
// built once per export from the stored deal, and its Total is the stored
// deal total, not something recomputed per renderer.
type QuoteDocument struct {
	DealID   uuid.UUID
	Title    string
	Stage    domain.DealStage
	Company  CompanyInfo
	Customer CustomerInfo
	Lines    []QuoteLine
	Total    int64
	IssuedAt time.Time
}

// DealReportRow is one row of the pipeline report export.
type DealReportRow struct {
	Title             string
	CustomerName      string
	Stage             domain.DealStage
	TotalValue        int64
	AssigneeName      string
	ExpectedCloseDate *time.Time
	CreatedAt         time.Time
}

var filenameSanitizer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "-",
	"\"", "-",
	"<", "-",
	">", "-",
	"|", "-",
)

// asciiFold strips combining marks after NFD decomposition. đ/Đ carry no
// combining mark and are mapped separately.
var asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var dFolder = strings.NewReplacer("đ", "d", "Đ", "D")

func foldDiacritics(s string) string {
	folded, _, err := transform.String(asciiFold, dFolder.Replace(s))
	if err != nil {
		return s
	}
	return folded
}

// ExportFilename builds the download name for a quote export, for example
// "Quote_Cong ty ABC_2026-08-29.pdf". Vietnamese diacritics are folded to
// ASCII and characters that are unsafe in filenames are replaced.
func ExportFilename(customerName string, issued time.Time, ext string) string {
	name := strings.TrimSpace(filenameSanitizer.Replace(foldDiacritics(customerName)))
	if name == "" {
		name = "Customer"
	}
	return fmt.Sprintf("Quote_%s_%s.%s", name, issued.Format("2006-01-02"), ext)
}

// Filename returns the PDF download name for the document.
func (d QuoteDocument) Filename() string {
	return ExportFilename(d.Customer.Name, d.IssuedAt, "pdf")
}
