// Package testutil provides shared helpers for package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vietbiz/crm-api/internal/database"
	"github.com/vietbiz/crm-api/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbCounter atomic.Int64

// SetupTestDB opens an in-memory sqlite database with the full schema
// migrated. Each call returns an isolated database; cache=shared keeps the
// pooled connections of one test pointed at the same instance.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// CreateTestCustomer inserts a customer with sensible defaults.
func CreateTestCustomer(t *testing.T, db *gorm.DB, name string) *domain.Customer {
	t.Helper()
	customer := &domain.Customer{
		Name:           name,
		TaxCode:        "0312345678",
		ContactPerson:  "Tran Van B",
		Email:          "contact@example.com",
		Phone:          "0901234567",
		Address:        "12 Nguyen Hue, District 1",
		HealthScore:    80,
		LifecycleStage: domain.LifecycleActive,
	}
	require.NoError(t, db.Create(customer).Error)
	return customer
}

// CreateTestProduct inserts an active catalog product.
func CreateTestProduct(t *testing.T, db *gorm.DB, name string, unitPrice int64) *domain.Product {
	t.Helper()
	product := &domain.Product{
		Name:         name,
		SKU:          "SKU-" + name,
		UnitPrice:    unitPrice,
		Category:     domain.ProductCategorySoftware,
		BillingCycle: domain.BillingOneTime,
		IsActive:     true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

// CreateTestUser inserts an active employee profile.
func CreateTestUser(t *testing.T, db *gorm.DB, name string) *domain.User {
	t.Helper()
	user := &domain.User{
		FullName: name,
		Email:    name + "@vietbiz.vn",
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
