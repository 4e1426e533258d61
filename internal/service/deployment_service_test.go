package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vietbiz/crm-api/internal/domain"
	"github.com/vietbiz/crm-api/internal/repository"
	"github.com/vietbiz/crm-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newDeploymentService(t *testing.T) (*DeploymentService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	svc := NewDeploymentService(
		repository.NewDeploymentRepository(db),
		repository.NewCustomerRepository(db),
		zap.NewNop(),
	)
	return svc, db
}

func TestDeploymentServiceCreate(t *testing.T) {
	svc, db := newDeploymentService(t)
	ctx := context.Background()

	customer := testutil.CreateTestCustomer(t, db, "Cong ty ABC")

	dto, err := svc.Create(ctx, &domain.SaveDeploymentRequest{
		CustomerID:   customer.ID,
		AppURL:       "crm.congtyabc.vn",
		ServerIP:     "103.56.158.10",
		CustomConfig: json.RawMessage(`{"theme":"dark","maxUsers":25}`),
	})
	require.NoError(t, err)

	assert.Equal(t, "Cong ty ABC", dto.CustomerName)
	assert.Equal(t, "1.0.0", dto.CurrentVersion)
	assert.Equal(t, domain.DeploymentStatusLive, dto.Status)
	assert.Equal(t, "dark", dto.CustomConfig["theme"])

	// Config survives the round trip through the JSON column
	reloaded, err := svc.GetByID(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "dark", reloaded.CustomConfig["theme"])
	assert.Equal(t, float64(25), reloaded.CustomConfig["maxUsers"])
}

func TestDeploymentServiceRejectsMalformedConfig(t *testing.T) {
	svc, db := newDeploymentService(t)
	ctx := context.Background()

	customer := testutil.CreateTestCustomer(t, db, "Cong ty ABC")

	cases := []struct {
		name   string
		config string
	}{
		{"broken syntax", `{"theme":`},
		{"array", `[1,2,3]`},
		{"scalar", `42`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, &domain.SaveDeploymentRequest{
				CustomerID:   customer.ID,
				AppURL:       "crm.congtyabc.vn",
				ServerIP:     "103.56.158.10",
				CustomConfig: json.RawMessage(tc.config),
			})
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	// Nothing was written for any of the rejected requests
	var count int64
	require.NoError(t, db.Model(&domain.Deployment{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestDeploymentServiceNullConfigBecomesEmptyObject(t *testing.T) {
	svc, db := newDeploymentService(t)
	ctx := context.Background()

	customer := testutil.CreateTestCustomer(t, db, "Cong ty ABC")

	dto, err := svc.Create(ctx, &domain.SaveDeploymentRequest{
		CustomerID:   customer.ID,
		AppURL:       "crm.congtyabc.vn",
		ServerIP:     "103.56.158.10",
		CustomConfig: json.RawMessage(`null`),
	})
	require.NoError(t, err)

	require.NotNil(t, dto.CustomConfig)
	assert.Empty(t, dto.CustomConfig)

	data, err := json.Marshal(dto.CustomConfig)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestDeploymentServiceUpdate(t *testing.T) {
	svc, db := newDeploymentService(t)
	ctx := context.Background()

	customer := testutil.CreateTestCustomer(t, db, "Cong ty ABC")

	dto, err := svc.Create(ctx, &domain.SaveDeploymentRequest{
		CustomerID: customer.ID,
		AppURL:     "crm.congtyabc.vn",
		ServerIP:   "103.56.158.10",
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, dto.ID, &domain.SaveDeploymentRequest{
		CustomerID:     customer.ID,
		AppURL:         "crm.congtyabc.vn",
		ServerIP:       "103.56.158.11",
		CurrentVersion: "2.1.0",
		Status:         domain.DeploymentStatusMaintenance,
		CustomConfig:   json.RawMessage(`{"theme":"light"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, "103.56.158.11", updated.ServerIP)
	assert.Equal(t, "2.1.0", updated.CurrentVersion)
	assert.Equal(t, domain.DeploymentStatusMaintenance, updated.Status)
	assert.Equal(t, "light", updated.CustomConfig["theme"])
}

func TestDeploymentServiceListFiltersByStatus(t *testing.T) {
	svc, db := newDeploymentService(t)
	ctx := context.Background()

	customer := testutil.CreateTestCustomer(t, db, "Cong ty ABC")

	_, err := svc.Create(ctx, &domain.SaveDeploymentRequest{
		CustomerID: customer.ID,
		AppURL:     "crm.congtyabc.vn",
		ServerIP:   "103.56.158.10",
		Status:     domain.DeploymentStatusLive,
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &domain.SaveDeploymentRequest{
		CustomerID: customer.ID,
		AppURL:     "staging.congtyabc.vn",
		ServerIP:   "103.56.158.12",
		Status:     domain.DeploymentStatusDev,
	})
	require.NoError(t, err)

	status := domain.DeploymentStatusDev
	result, err := svc.List(ctx, 1, 20, &repository.DeploymentFilters{Status: &status})
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.Total)
	dtos := result.Data.([]domain.DeploymentDTO)
	require.Len(t, dtos, 1)
	assert.Equal(t, "staging.congtyabc.vn", dtos[0].AppURL)
}
