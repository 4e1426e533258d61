package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vietbiz/crm-api/internal/domain"
	"github.com/vietbiz/crm-api/internal/mapper"
	"github.com/vietbiz/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// licenseKeyAlphabet avoids ambiguous characters (0/O, 1/I)
const licenseKeyAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

type ContractService struct {
	contractRepo *repository.ContractRepository
	dealRepo     *repository.DealRepository
	logger       *zap.Logger
}

func NewContractService(
	contractRepo *repository.ContractRepository,
	dealRepo *repository.DealRepository,
	logger *zap.Logger,
) *ContractService {
	return &ContractService{
		contractRepo: contractRepo,
		dealRepo:     dealRepo,
		logger:       logger,
	}
}

// Create turns a won deal into a contract. The contract code is issued
// sequentially per year (HD-2026-001) and the total is copied from the
// deal's stored quote total.
func (s *ContractService) Create(ctx context.Context, req *domain.CreateContractRequest) (*domain.ContractDTO, error) {
	deal, err := s.dealRepo.GetByID(ctx, req.DealID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDealNotFound
		}
		return nil, fmt.Errorf("failed to get deal: %w", err)
	}
	if deal.Stage != domain.DealStageWon {
		return nil, ErrDealNotWon
	}
	if _, err := s.contractRepo.GetByDeal(ctx, req.DealID); err == nil {
		return nil, ErrContractExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing contract: %w", err)
	}

	contract := &domain.Contract{
		DealID:      deal.ID,
		CustomerID:  deal.CustomerID,
		Status:      req.Status,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		LicenseKey:  req.LicenseKey,
		TotalValue:  deal.TotalValue,
		IsAutoRenew: req.IsAutoRenew,
	}
	if contract.Status == "" {
		contract.Status = domain.ContractStatusDraft
	}
	if contract.LicenseKey == "" {
		key, err := generateLicenseKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate license key: %w", err)
		}
		contract.LicenseKey = key
	}

	year := time.Now().UTC().Year()
	if req.StartDate != nil {
		year = req.StartDate.Year()
	}

	// Code issuing and insert share a transaction so concurrent creates
	// cannot draw the same number.
	err = s.contractRepo.WithTransaction(ctx, func(tx *gorm.DB) error {
		code, err := s.contractRepo.NextContractCode(ctx, tx, year)
		if err != nil {
			return fmt.Errorf("failed to issue contract code: %w", err)
		}
		contract.ContractCode = code
		return tx.Create(contract).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create contract: %w", err)
	}

	s.logger.Info("contract created",
		zap.String("contract_id", contract.ID.String()),
		zap.String("contract_code", contract.ContractCode),
		zap.String("deal_id", deal.ID.String()),
	)

	contract.Deal = deal
	contract.Customer = deal.Customer
	dto := mapper.ToContractDTO(contract)
	return &dto, nil
}

func (s *ContractService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ContractDTO, error) {
	contract, err := s.contractRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContractNotFound
		}
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	dto := mapper.ToContractDTO(contract)
	return &dto, nil
}

func (s *ContractService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateContractRequest) (*domain.ContractDTO, error) {
	contract, err := s.contractRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContractNotFound
		}
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}

	if req.Status != "" {
		contract.Status = req.Status
	}
	if req.StartDate != nil {
		contract.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		contract.EndDate = req.EndDate
	}
	if req.LicenseKey != "" {
		contract.LicenseKey = req.LicenseKey
	}
	if req.IsAutoRenew != nil {
		contract.IsAutoRenew = *req.IsAutoRenew
	}

	if err := s.contractRepo.Update(ctx, contract); err != nil {
		return nil, fmt.Errorf("failed to update contract: %w", err)
	}

	dto := mapper.ToContractDTO(contract)
	return &dto, nil
}

func (s *ContractService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.contractRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrContractNotFound
		}
		return fmt.Errorf("failed to get contract: %w", err)
	}
	if err := s.contractRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete contract: %w", err)
	}
	return nil
}

func (s *ContractService) List(ctx context.Context, page, pageSize int, search string, status *domain.ContractStatus) (*domain.PaginatedResponse, error) {
	contracts, total, err := s.contractRepo.List(ctx, page, pageSize, search, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}

	dtos := make([]domain.ContractDTO, 0, len(contracts))
	for i := range contracts {
		dtos = append(dtos, mapper.ToContractDTO(&contracts[i]))
	}

	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func (s *ContractService) GetByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.ContractDTO, error) {
	contracts, err := s.contractRepo.GetByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list customer contracts: %w", err)
	}
	dtos := make([]domain.ContractDTO, 0, len(contracts))
	for i := range contracts {
		dtos = append(dtos, mapper.ToContractDTO(&contracts[i]))
	}
	return dtos, nil
}

// generateLicenseKey produces a key in the form XXXX-XXXX-XXXX-XXXX.
func generateLicenseKey() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}

	var b strings.Builder
	for i, c := range raw {
		if i > 0 && i%4 == 0 {
			b.WriteByte('-')
		}
		b.WriteByte(licenseKeyAlphabet[int(c)%len(licenseKeyAlphabet)])
	}
	return b.String(), nil
}
