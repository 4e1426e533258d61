package render

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vietbiz/crm-api/internal/domain"
)

func TestFormatVND(t *testing.T) {
	cases := []struct {
		amount   int64
		expected string
	}{
		{0, "0 ₫"},
		{100, "100 ₫"},
		{250000, "250.000 ₫"},
		{250100, "250.100 ₫"},
		{12500000, "12.500.000 ₫"},
		{1234567890, "1.234.567.890 ₫"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expected, FormatVND(tc.amount))
	}
}

func TestFormatVNDCode(t *testing.T) {
	assert.Equal(t, "250.000 VND", FormatVNDCode(250000))
}

func TestExportFilename(t *testing.T) {
	issued := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	t.Run("plain name", func(t *testing.T) {
		assert.Equal(t, "Quote_Cong ty ABC_2026-08-29.pdf", ExportFilename("Cong ty ABC", issued, "pdf"))
	})

	t.Run("unsafe characters replaced", func(t *testing.T) {
		assert.Equal(t, "Quote_A-B-C_2026-08-29.pdf", ExportFilename("A/B:C", issued, "pdf"))
	})

	t.Run("diacritics folded", func(t *testing.T) {
		assert.Equal(t, "Quote_Cong ty TNHH Dai Phat_2026-08-29.pdf",
			ExportFilename("Công ty TNHH Đại Phát", issued, "pdf"))
		assert.Equal(t, "Quote_Tran Van Duong_2026-08-29.xlsx",
			ExportFilename("Trần Văn Dương", issued, "xlsx"))
	})

	t.Run("empty name falls back", func(t *testing.T) {
		assert.Equal(t, "Quote_Customer_2026-08-29.pdf", ExportFilename("  ", issued, "pdf"))
	})
}

func sampleDocument() QuoteDocument {
	return QuoteDocument{
		DealID: uuid.New(),
		Title:  "CRM rollout",
		Stage:  domain.DealStageNegotiation,
		Company: CompanyInfo{
			Name:    "VietBiz Solutions",
			TaxCode: "0312345678",
			Address: "12 Nguyen Hue, District 1, HCMC",
			Phone:   "+84 28 1234 5678",
		},
		Customer: CustomerInfo{
			Name:          "Cong ty ABC",
			TaxCode:       "0109876543",
			Address:       "45 Le Loi, Hanoi",
			ContactPerson: "Tran Van B",
		},
		Lines: []QuoteLine{
			{Index: 1, Name: "CRM Pro License", Category: domain.ProductCategorySoftware, BillingCycle: domain.BillingYearly, UnitPrice: 12_000_000, Quantity: 2, LineTotal: 24_000_000},
			{Index: 2, Name: "Onsite training", UnitPrice: 5_000_000, Quantity: 1, LineTotal: 5_000_000},
		},
		Total:    29_000_000,
		IssuedAt: time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC),
	}
}

func TestPDFGenerator(t *testing.T) {
	doc := sampleDocument()
	data, err := NewPDFGenerator().Generate(doc)
	require.NoError(t, err)
	assert.True(t, len(data) > 1000)
	assert.Equal(t, "%PDF", string(data[:4]))
	assert.Equal(t, "Quote_Cong ty ABC_2026-08-29.pdf", doc.Filename())
}

func TestPrintRenderer(t *testing.T) {
	renderer, err := NewPrintRenderer()
	require.NoError(t, err)

	data, err := renderer.Render(sampleDocument())
	require.NoError(t, err)

	html := string(data)
	assert.Contains(t, html, "BÁO GIÁ")
	assert.Contains(t, html, "Cong ty ABC")
	assert.Contains(t, html, "CRM Pro License")
	assert.Contains(t, html, "29.000.000 ₫")
	assert.Contains(t, html, "12.000.000 ₫")
}

func TestExcelGeneratorDealsReport(t *testing.T) {
	closeDate := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
	rows := []DealReportRow{
		{Title: "CRM rollout", CustomerName: "Cong ty ABC", Stage: domain.DealStageWon, TotalValue: 29_000_000, AssigneeName: "Nguyen A", ExpectedCloseDate: &closeDate, CreatedAt: time.Now()},
		{Title: "Server upgrade", CustomerName: "Cong ty XYZ", Stage: domain.DealStageNew, TotalValue: 60_000_000, CreatedAt: time.Now()},
	}

	data, err := NewExcelGenerator().DealsReport(rows, time.Now())
	require.NoError(t, err)
	// xlsx files are zip archives
	assert.True(t, strings.HasPrefix(string(data[:2]), "PK"))
}
