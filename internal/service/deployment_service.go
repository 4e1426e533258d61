package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vietbiz/crm-api/internal/domain"
	"github.com/vietbiz/crm-api/internal/mapper"
	"github.com/vietbiz/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultDeploymentVersion = "1.0.0"

// DeploymentService manages customer installations. The free-form config is
// checked to be a JSON object before any row is written; a malformed config
// never reaches the database.
type DeploymentService struct {
	deploymentRepo *repository.DeploymentRepository
	customerRepo   *repository.CustomerRepository
	logger         *zap.Logger
}

func NewDeploymentService(
	deploymentRepo *repository.DeploymentRepository,
	customerRepo *repository.CustomerRepository,
	logger *zap.Logger,
) *DeploymentService {
	return &DeploymentService{
		deploymentRepo: deploymentRepo,
		customerRepo:   customerRepo,
		logger:         logger,
	}
}

// parseDeploymentConfig decodes the submitted config. Absent and null configs
// become an empty object; arrays, scalars and broken JSON are rejected.
func parseDeploymentConfig(raw json.RawMessage) (domain.ConfigMap, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return domain.ConfigMap{}, nil
	}
	var cfg domain.ConfigMap
	if err := json.Unmarshal(trimmed, &cfg); err != nil {
		return nil, ErrInvalidConfig
	}
	if cfg == nil {
		cfg = domain.ConfigMap{}
	}
	return cfg, nil
}

func (s *DeploymentService) Create(ctx context.Context, req *domain.SaveDeploymentRequest) (*domain.DeploymentDTO, error) {
	cfg, err := parseDeploymentConfig(req.CustomConfig)
	if err != nil {
		return nil, err
	}

	deployment := &domain.Deployment{
		AppURL:         req.AppURL,
		ServerIP:       req.ServerIP,
		CurrentVersion: req.CurrentVersion,
		Status:         req.Status,
		CustomConfig:   cfg,
	}
	if deployment.CurrentVersion == "" {
		deployment.CurrentVersion = defaultDeploymentVersion
	}
	if deployment.Status == "" {
		deployment.Status = domain.DeploymentStatusLive
	}
	if err := s.applyCustomer(ctx, deployment, req.CustomerID); err != nil {
		return nil, err
	}

	if err := s.deploymentRepo.Create(ctx, deployment); err != nil {
		return nil, fmt.Errorf("failed to create deployment: %w", err)
	}

	s.logger.Info("deployment created",
		zap.String("deployment_id", deployment.ID.String()),
		zap.String("app_url", deployment.AppURL),
		zap.String("status", string(deployment.Status)),
	)

	dto := mapper.ToDeploymentDTO(deployment)
	return &dto, nil
}

func (s *DeploymentService) GetByID(ctx context.Context, id uuid.UUID) (*domain.DeploymentDTO, error) {
	deployment, err := s.deploymentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get deployment: %w", err)
	}
	dto := mapper.ToDeploymentDTO(deployment)
	return &dto, nil
}

func (s *DeploymentService) Update(ctx context.Context, id uuid.UUID, req *domain.SaveDeploymentRequest) (*domain.DeploymentDTO, error) {
	cfg, err := parseDeploymentConfig(req.CustomConfig)
	if err != nil {
		return nil, err
	}

	deployment, err := s.deploymentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get deployment: %w", err)
	}

	deployment.AppURL = req.AppURL
	deployment.ServerIP = req.ServerIP
	deployment.CustomConfig = cfg
	if req.CurrentVersion != "" {
		deployment.CurrentVersion = req.CurrentVersion
	}
	if req.Status != "" {
		deployment.Status = req.Status
	}
	if err := s.applyCustomer(ctx, deployment, req.CustomerID); err != nil {
		return nil, err
	}

	if err := s.deploymentRepo.Update(ctx, deployment); err != nil {
		return nil, fmt.Errorf("failed to update deployment: %w", err)
	}

	dto := mapper.ToDeploymentDTO(deployment)
	return &dto, nil
}

func (s *DeploymentService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.deploymentRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get deployment: %w", err)
	}
	if err := s.deploymentRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete deployment: %w", err)
	}
	return nil
}

func (s *DeploymentService) List(ctx context.Context, page, pageSize int, filters *repository.DeploymentFilters) (*domain.PaginatedResponse, error) {
	deployments, total, err := s.deploymentRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}

	dtos := make([]domain.DeploymentDTO, 0, len(deployments))
	for i := range deployments {
		dtos = append(dtos, mapper.ToDeploymentDTO(&deployments[i]))
	}

	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func (s *DeploymentService) applyCustomer(ctx context.Context, deployment *domain.Deployment, customerID uuid.UUID) error {
	customer, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCustomerNotFound
		}
		return fmt.Errorf("failed to get customer: %w", err)
	}
	deployment.CustomerID = customer.ID
	deployment.CustomerName = customer.Name
	return nil
}
