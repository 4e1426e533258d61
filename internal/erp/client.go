// Package erp provides read-only connectivity to the company's MS SQL ERP
// database. It is used only to pull the official price list into the product
// catalog; the CRM never writes to the ERP.
package erp

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb" // MS SQL Server driver
	"github.com/vietbiz/crm-api/internal/config"
	"go.uber.org/zap"
)

const (
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	maxBackoff     = 10 * time.Second
	backoffFactor  = 2.0

	healthCheckTimeout = 5 * time.Second
)

// PriceEntry is one row of the ERP price list.
type PriceEntry struct {
	SKU       string
	UnitPrice int64
}

// Client provides read-only access to the ERP database. A nil client is
// valid and means the ERP connection is disabled.
type Client struct {
	db           *sql.DB
	config       *config.ERPConfig
	logger       *zap.Logger
	queryTimeout time.Duration
}

// NewClient creates an ERP client with the given configuration. Returns
// (nil, nil) when the ERP is disabled or not fully configured, so callers
// can treat the connection as optional.
func NewClient(cfg *config.ERPConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		logger.Info("erp connection disabled")
		return nil, nil
	}

	if cfg.URL == "" || cfg.User == "" || cfg.Password == "" {
		logger.Warn("erp enabled but missing credentials, skipping connection",
			zap.Bool("url_present", cfg.URL != ""),
			zap.Bool("user_present", cfg.User != ""),
			zap.Bool("password_present", cfg.Password != ""),
		)
		return nil, nil
	}

	connStr := buildConnectionString(cfg)

	var db *sql.DB
	var err error
	backoff := initialBackoff

	for attempt := 1; attempt <= maxRetries; attempt++ {
		db, err = sql.Open("sqlserver", connStr)
		if err == nil {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
			db.SetMaxIdleConns(cfg.MaxIdleConns)
			db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

			ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
			err = db.PingContext(ctx)
			cancel()
			if err == nil {
				logger.Info("erp connection established", zap.Int("attempts", attempt))
				return &Client{
					db:           db,
					config:       cfg,
					logger:       logger,
					queryTimeout: cfg.QueryTimeoutDuration(),
				}, nil
			}
			_ = db.Close()
		}

		logger.Warn("erp connection attempt failed",
			zap.Error(err),
			zap.Int("attempt", attempt),
		)
		if attempt < maxRetries {
			time.Sleep(backoff)
			backoff = time.Duration(float64(backoff) * backoffFactor)
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}

	return nil, fmt.Errorf("failed to connect to erp after %d attempts: %w", maxRetries, err)
}

// buildConnectionString constructs a SQL Server connection string. URL
// format expected: host:port/database or host:port.
func buildConnectionString(cfg *config.ERPConfig) string {
	urlParts := strings.SplitN(cfg.URL, "/", 2)
	hostPort := urlParts[0]
	database := ""
	if len(urlParts) > 1 {
		database = urlParts[1]
	}

	hostParts := strings.SplitN(hostPort, ":", 2)
	host := hostParts[0]
	port := "1433"
	if len(hostParts) > 1 {
		port = hostParts[1]
	}

	query := url.Values{}
	query.Add("encrypt", "true")
	query.Add("TrustServerCertificate", "false")
	query.Add("connection timeout", "30")
	if database != "" {
		query.Add("database", database)
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%s", host, port),
		RawQuery: query.Encode(),
	}
	return u.String()
}

// FetchPriceList reads the current price list. Prices are stored in the ERP
// as whole VND already, so no conversion happens here.
func (c *Client) FetchPriceList(ctx context.Context) ([]PriceEntry, error) {
	if c == nil || c.db == nil {
		return nil, fmt.Errorf("erp client not initialized")
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.queryTimeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := c.db.QueryContext(ctx,
		`SELECT sku, unit_price FROM dbo.product_prices WHERE is_current = 1`)
	if err != nil {
		return nil, fmt.Errorf("price list query failed: %w", err)
	}
	defer rows.Close()

	var entries []PriceEntry
	for rows.Next() {
		var entry PriceEntry
		if err := rows.Scan(&entry.SKU, &entry.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price rows: %w", err)
	}

	c.logger.Debug("erp price list fetched",
		zap.Int("rows", len(entries)),
		zap.Duration("duration", time.Since(start)),
	)

	return entries, nil
}

// HealthCheck pings the ERP connection.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c == nil || c.db == nil {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, healthCheckTimeout)
		defer cancel()
	}
	return c.db.PingContext(ctx)
}

// IsEnabled returns true if the client is initialized and ready for queries.
func (c *Client) IsEnabled() bool {
	return c != nil && c.db != nil
}

// Close gracefully closes the ERP connection.
func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close erp connection: %w", err)
	}
	return nil
}
