package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vietbiz/crm-api/internal/config"
	"github.com/vietbiz/crm-api/internal/mapper"
	"github.com/vietbiz/crm-api/internal/render"
	"github.com/vietbiz/crm-api/internal/repository"
	"github.com/vietbiz/crm-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Export is a generated document ready for download.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService turns saved deals into their outward-facing documents. Each
// export builds the quote aggregate once and hands the same aggregate to
// whichever renderer was asked for.
type ExportService struct {
	dealRepo     *repository.DealRepository
	customerRepo *repository.CustomerRepository
	company      *config.CompanyConfig
	pdf          *render.PDFGenerator
	printer      *render.PrintRenderer
	excel        *render.ExcelGenerator
	archive      storage.Storage
	logger       *zap.Logger
}

func NewExportService(
	dealRepo *repository.DealRepository,
	customerRepo *repository.CustomerRepository,
	company *config.CompanyConfig,
	archive storage.Storage,
	logger *zap.Logger,
) (*ExportService, error) {
	printer, err := render.NewPrintRenderer()
	if err != nil {
		return nil, err
	}
	return &ExportService{
		dealRepo:     dealRepo,
		customerRepo: customerRepo,
		company:      company,
		pdf:          render.NewPDFGenerator(),
		printer:      printer,
		excel:        render.NewExcelGenerator(),
		archive:      archive,
		logger:       logger,
	}, nil
}

// buildDocument loads the deal with its items and assembles the shared
// render aggregate.
func (s *ExportService) buildDocument(ctx context.Context, dealID uuid.UUID) (*render.QuoteDocument, error) {
	deal, err := s.dealRepo.GetByID(ctx, dealID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDealNotFound
		}
		return nil, fmt.Errorf("failed to get deal: %w", err)
	}

	customer := deal.Customer
	if customer == nil {
		customer, err = s.customerRepo.GetByID(ctx, deal.CustomerID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to get customer: %w", err)
		}
	}

	doc := mapper.ToQuoteDocument(deal, customer, s.company, time.Now().UTC())
	return &doc, nil
}

// QuotePDF renders the deal's quote as a PDF and archives a copy.
func (s *ExportService) QuotePDF(ctx context.Context, dealID uuid.UUID) (*Export, error) {
	doc, err := s.buildDocument(ctx, dealID)
	if err != nil {
		return nil, err
	}

	data, err := s.pdf.Generate(*doc)
	if err != nil {
		return nil, fmt.Errorf("failed to generate quote pdf: %w", err)
	}

	filename := doc.Filename()
	if s.archive != nil {
		key := fmt.Sprintf("quotes/%s/%s", dealID, filename)
		if _, err := s.archive.Put(ctx, key, "application/pdf", bytes.NewReader(data)); err != nil {
			// Archiving is best effort; the download still succeeds.
			s.logger.Warn("failed to archive quote pdf",
				zap.String("deal_id", dealID.String()),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("quote pdf generated",
		zap.String("deal_id", dealID.String()),
		zap.String("filename", filename),
		zap.Int("size", len(data)),
	)

	return &Export{
		Filename:    filename,
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

// QuotePrintView renders the deal's quote as a printable HTML page.
func (s *ExportService) QuotePrintView(ctx context.Context, dealID uuid.UUID) (*Export, error) {
	doc, err := s.buildDocument(ctx, dealID)
	if err != nil {
		return nil, err
	}

	data, err := s.printer.Render(*doc)
	if err != nil {
		return nil, fmt.Errorf("failed to render print view: %w", err)
	}

	return &Export{
		Filename:    render.ExportFilename(doc.Customer.Name, doc.IssuedAt, "html"),
		ContentType: "text/html; charset=utf-8",
		Data:        data,
	}, nil
}

// DealsReport exports the filtered deal list as an Excel workbook.
func (s *ExportService) DealsReport(ctx context.Context, filters *repository.DealFilters) (*Export, error) {
	deals, _, err := s.dealRepo.List(ctx, 1, 10000, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}

	rows := make([]render.DealReportRow, 0, len(deals))
	for i := range deals {
		rows = append(rows, mapper.ToDealReportRow(&deals[i]))
	}

	now := time.Now().UTC()
	data, err := s.excel.DealsReport(rows, now)
	if err != nil {
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}

	return &Export{
		Filename:    fmt.Sprintf("DealsReport_%s.xlsx", now.Format("2006-01-02")),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        data,
	}, nil
}
