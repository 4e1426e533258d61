package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns an ID when none is set. Postgres could default this,
// but assigning client-side keeps sqlite test databases working too.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// User represents an employee profile. Authentication itself is delegated to
// the identity provider; this table only carries display data for assignment
// pickers and presence.
type User struct {
	BaseModel
	FullName string `gorm:"type:varchar(200);not null;column:full_name"`
	Email    string `gorm:"type:varchar(255);uniqueIndex"`
	Phone    string `gorm:"type:varchar(50)"`
	Role     string `gorm:"type:varchar(100)"`
	IsActive bool   `gorm:"not null;default:true;column:is_active"`
}

// CustomerLifecycleStage represents where a customer sits in the funnel
type CustomerLifecycleStage string

const (
	LifecycleLead     CustomerLifecycleStage = "LEAD"
	LifecycleActive   CustomerLifecycleStage = "ACTIVE"
	LifecycleInactive CustomerLifecycleStage = "INACTIVE"
	LifecycleChurned  CustomerLifecycleStage = "CHURNED"
)

// Customer represents an organization in the CRM
type Customer struct {
	BaseModel
	Name           string                 `gorm:"type:varchar(200);not null;index"`
	TaxCode        string                 `gorm:"type:varchar(20);index;column:tax_code"`
	ContactPerson  string                 `gorm:"type:varchar(200);column:contact_person"`
	Email          string                 `gorm:"type:varchar(255)"`
	Phone          string                 `gorm:"type:varchar(50)"`
	Address        string                 `gorm:"type:varchar(500)"`
	HealthScore    int                    `gorm:"not null;default:80;column:health_score"`
	LifecycleStage CustomerLifecycleStage `gorm:"type:varchar(50);not null;default:'LEAD';column:lifecycle_stage;index"`
	Deals          []Deal                 `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
	Contracts      []Contract             `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
	Deployments    []Deployment           `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
}

// ProductCategory classifies catalog products
type ProductCategory string

const (
	ProductCategorySoftware    ProductCategory = "SOFTWARE"
	ProductCategoryServer      ProductCategory = "SERVER"
	ProductCategoryService     ProductCategory = "SERVICE"
	ProductCategoryMaintenance ProductCategory = "MAINTENANCE"
)

// IsValid checks if the ProductCategory is a valid enum value
func (c ProductCategory) IsValid() bool {
	switch c {
	case ProductCategorySoftware, ProductCategoryServer, ProductCategoryService, ProductCategoryMaintenance:
		return true
	}
	return false
}

// BillingCycle represents how a product is billed
type BillingCycle string

const (
	BillingOneTime BillingCycle = "ONE_TIME"
	BillingMonthly BillingCycle = "MONTHLY"
	BillingYearly  BillingCycle = "YEARLY"
)

// IsValid checks if the BillingCycle is a valid enum value
func (b BillingCycle) IsValid() bool {
	switch b {
	case BillingOneTime, BillingMonthly, BillingYearly:
		return true
	}
	return false
}

// Product represents a sellable catalog item. Prices are stored in whole
// Vietnamese đồng (int64); VND has no fractional minor unit, so integer
// arithmetic is exact.
//
// Quotes never reference a product's live price: selecting a product copies a
// snapshot onto the line item, so later catalog price changes do not affect
// existing quotes.
type Product struct {
	BaseModel
	Name         string          `gorm:"type:varchar(200);not null;index"`
	SKU          string          `gorm:"type:varchar(50);uniqueIndex;column:sku"`
	Description  string          `gorm:"type:text"`
	UnitPrice    int64           `gorm:"not null;default:0;column:unit_price"`
	Category     ProductCategory `gorm:"type:varchar(50);not null;default:'SOFTWARE';index"`
	BillingCycle BillingCycle    `gorm:"type:varchar(50);not null;default:'ONE_TIME';column:billing_cycle"`
	IsActive     bool            `gorm:"not null;default:true;column:is_active;index"`
}

// DealStage represents the pipeline status of a deal
type DealStage string

const (
	DealStageNew         DealStage = "NEW"
	DealStageNegotiation DealStage = "NEGOTIATION"
	DealStageWon         DealStage = "WON"
	DealStageLost        DealStage = "LOST"
)

// IsValid checks if the DealStage is a valid enum value
func (s DealStage) IsValid() bool {
	switch s {
	case DealStageNew, DealStageNegotiation, DealStageWon, DealStageLost:
		return true
	}
	return false
}

// LineItemSource tags a quote line as catalog-linked or freeform
type LineItemSource string

const (
	LineItemSourceCatalog LineItemSource = "catalog"
	LineItemSourceCustom  LineItemSource = "custom"
)

// Deal represents a sales opportunity with an itemized quote.
//
// TotalValue is derived: it always equals the sum of unit_price*quantity over
// the deal's line items as of the last save. No code path writes a total that
// was not computed by the quote aggregator.
type Deal struct {
	BaseModel
	Title             string         `gorm:"type:varchar(200);not null;index"`
	CustomerID        uuid.UUID      `gorm:"type:uuid;not null;index;column:customer_id"`
	Customer          *Customer      `gorm:"foreignKey:CustomerID"`
	CustomerName      string         `gorm:"type:varchar(200);column:customer_name"`
	Stage             DealStage      `gorm:"type:varchar(50);not null;default:'NEW';index"`
	TotalValue        int64          `gorm:"not null;default:0;column:total_value"`
	AssignedTo        *uuid.UUID     `gorm:"type:uuid;column:assigned_to;index"`
	AssigneeName      string         `gorm:"type:varchar(200);column:assignee_name"`
	ExpectedCloseDate *time.Time     `gorm:"type:date;column:expected_close_date"`
	Items             []DealLineItem `gorm:"foreignKey:DealID;constraint:OnDelete:CASCADE"`
}

// DealLineItem is one priced row in a deal's quote. Catalog-linked rows carry
// a snapshot of the product's name, price, category and billing cycle taken
// when the product was selected; custom rows are typed in freely. A price
// typed over a catalog row (sales override) is kept until the product is
// re-selected.
type DealLineItem struct {
	BaseModel
	DealID       uuid.UUID       `gorm:"type:uuid;not null;index;column:deal_id"`
	Source       LineItemSource  `gorm:"type:varchar(20);not null;default:'custom'"`
	ProductID    *uuid.UUID      `gorm:"type:uuid;column:product_id"`
	Name         string          `gorm:"type:varchar(200);not null"`
	Category     ProductCategory `gorm:"type:varchar(50)"`
	BillingCycle BillingCycle    `gorm:"type:varchar(50);column:billing_cycle"`
	UnitPrice    int64           `gorm:"not null;default:0;column:unit_price"`
	Quantity     int             `gorm:"not null;default:1"`
	Position     int             `gorm:"not null;default:0"`
}

// LineTotal returns unit price times quantity
func (i *DealLineItem) LineTotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// DealStageHistory tracks stage changes for audit purposes
type DealStageHistory struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	DealID        uuid.UUID  `gorm:"type:uuid;not null;index;column:deal_id"`
	FromStage     *DealStage `gorm:"type:varchar(50);column:from_stage"`
	ToStage       DealStage  `gorm:"type:varchar(50);not null;column:to_stage"`
	ChangedByID   *uuid.UUID `gorm:"type:uuid;column:changed_by_id"`
	ChangedByName string     `gorm:"type:varchar(200);column:changed_by_name"`
	ChangedAt     time.Time  `gorm:"not null;column:changed_at"`
}

// TableName overrides the default table name to match the migration
func (DealStageHistory) TableName() string {
	return "deal_stage_history"
}

// BeforeCreate assigns an ID and timestamp when none is set
func (h *DealStageHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if h.ChangedAt.IsZero() {
		h.ChangedAt = time.Now().UTC()
	}
	return nil
}

// ContractStatus represents the lifecycle status of a contract
type ContractStatus string

const (
	ContractStatusDraft      ContractStatus = "DRAFT"
	ContractStatusActive     ContractStatus = "ACTIVE"
	ContractStatusExpired    ContractStatus = "EXPIRED"
	ContractStatusTerminated ContractStatus = "TERMINATED"
)

// Contract represents a signed agreement created from a WON deal
type Contract struct {
	BaseModel
	ContractCode string         `gorm:"type:varchar(50);uniqueIndex;column:contract_code"`
	DealID       uuid.UUID      `gorm:"type:uuid;not null;index;column:deal_id"`
	Deal         *Deal          `gorm:"foreignKey:DealID"`
	CustomerID   uuid.UUID      `gorm:"type:uuid;not null;index;column:customer_id"`
	Customer     *Customer      `gorm:"foreignKey:CustomerID"`
	Status       ContractStatus `gorm:"type:varchar(50);not null;default:'DRAFT';index"`
	StartDate    *time.Time     `gorm:"type:date;column:start_date"`
	EndDate      *time.Time     `gorm:"type:date;column:end_date"`
	LicenseKey   string         `gorm:"type:varchar(50);column:license_key"`
	TotalValue   int64          `gorm:"not null;default:0;column:total_value"`
	IsAutoRenew  bool           `gorm:"not null;default:false;column:is_auto_renew"`
}

// TaskStatus represents the status of a task
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

// Task represents a to-do optionally linked to a customer, deal or ticket
type Task struct {
	BaseModel
	Title        string     `gorm:"type:varchar(200);not null"`
	Status       TaskStatus `gorm:"type:varchar(50);not null;default:'TODO';index"`
	CustomerID   *uuid.UUID `gorm:"type:uuid;column:customer_id;index"`
	DealID       *uuid.UUID `gorm:"type:uuid;column:deal_id;index"`
	TicketID     *uuid.UUID `gorm:"type:uuid;column:ticket_id"`
	AssignedTo   *uuid.UUID `gorm:"type:uuid;column:assigned_to;index"`
	AssigneeName string     `gorm:"type:varchar(200);column:assignee_name"`
	DueDate      *time.Time `gorm:"type:date;column:due_date"`
}

// TicketStatus represents the status of a support ticket
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// TicketPriority represents the urgency of a support ticket
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityNormal TicketPriority = "NORMAL"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Ticket represents a customer support request
type Ticket struct {
	BaseModel
	Title        string         `gorm:"type:varchar(200);not null"`
	Status       TicketStatus   `gorm:"type:varchar(50);not null;default:'OPEN';index"`
	Priority     TicketPriority `gorm:"type:varchar(50);not null;default:'NORMAL'"`
	CustomerID   *uuid.UUID     `gorm:"type:uuid;column:customer_id;index"`
	CustomerName string         `gorm:"type:varchar(200);column:customer_name"`
	AssignedTo   *uuid.UUID     `gorm:"type:uuid;column:assigned_to;index"`
	AssigneeName string         `gorm:"type:varchar(200);column:assignee_name"`
	Deadline     *time.Time     `gorm:"type:date"`
}

// DeploymentStatus represents the runtime state of a customer installation
type DeploymentStatus string

const (
	DeploymentStatusLive        DeploymentStatus = "LIVE"
	DeploymentStatusMaintenance DeploymentStatus = "MAINTENANCE"
	DeploymentStatusDown        DeploymentStatus = "DOWN"
	DeploymentStatusDev         DeploymentStatus = "DEV"
)

// IsValid checks if the DeploymentStatus is a valid enum value
func (s DeploymentStatus) IsValid() bool {
	switch s {
	case DeploymentStatusLive, DeploymentStatusMaintenance, DeploymentStatusDown, DeploymentStatusDev:
		return true
	}
	return false
}

// ConfigMap holds a deployment's free-form JSON configuration as a JSON
// object column. NULL and empty columns scan to an empty map, so readers
// never see a nil or malformed config.
type ConfigMap map[string]interface{}

// Value implements driver.Valuer
func (c ConfigMap) Value() (driver.Value, error) {
	if c == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner
func (c *ConfigMap) Scan(value interface{}) error {
	if value == nil {
		*c = ConfigMap{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported custom_config column type %T", value)
	}
	if len(data) == 0 {
		*c = ConfigMap{}
		return nil
	}
	return json.Unmarshal(data, c)
}

// Deployment tracks one customer installation: where it runs, which version
// it is on and its per-customer configuration.
type Deployment struct {
	BaseModel
	CustomerID     uuid.UUID        `gorm:"type:uuid;not null;index;column:customer_id"`
	Customer       *Customer        `gorm:"foreignKey:CustomerID"`
	CustomerName   string           `gorm:"type:varchar(200);column:customer_name"`
	AppURL         string           `gorm:"type:varchar(255);not null;index;column:app_url"`
	ServerIP       string           `gorm:"type:varchar(45);column:server_ip"`
	CurrentVersion string           `gorm:"type:varchar(50);not null;default:'1.0.0';column:current_version"`
	Status         DeploymentStatus `gorm:"type:varchar(50);not null;default:'LIVE';index"`
	CustomConfig   ConfigMap        `gorm:"type:jsonb;column:custom_config"`
}
