package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PaginatedResponse wraps list results with paging metadata
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// --- Users ---

// UserDTO is the employee profile returned to assignment pickers
type UserDTO struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"fullName"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone,omitempty"`
	Role     string    `json:"role,omitempty"`
	IsActive bool      `json:"isActive"`
}

// --- Customers ---

type CreateCustomerRequest struct {
	Name           string                 `json:"name" validate:"required,max=200"`
	TaxCode        string                 `json:"taxCode" validate:"max=20"`
	ContactPerson  string                 `json:"contactPerson" validate:"max=200"`
	Email          string                 `json:"email" validate:"omitempty,email"`
	Phone          string                 `json:"phone" validate:"max=50"`
	Address        string                 `json:"address" validate:"max=500"`
	HealthScore    int                    `json:"healthScore" validate:"gte=0,lte=100"`
	LifecycleStage CustomerLifecycleStage `json:"lifecycleStage" validate:"omitempty,oneof=LEAD ACTIVE INACTIVE CHURNED"`
}

type UpdateCustomerRequest struct {
	Name           string                 `json:"name" validate:"required,max=200"`
	TaxCode        string                 `json:"taxCode" validate:"max=20"`
	ContactPerson  string                 `json:"contactPerson" validate:"max=200"`
	Email          string                 `json:"email" validate:"omitempty,email"`
	Phone          string                 `json:"phone" validate:"max=50"`
	Address        string                 `json:"address" validate:"max=500"`
	HealthScore    int                    `json:"healthScore" validate:"gte=0,lte=100"`
	LifecycleStage CustomerLifecycleStage `json:"lifecycleStage" validate:"omitempty,oneof=LEAD ACTIVE INACTIVE CHURNED"`
}

// CustomerDTO is the full customer representation
type CustomerDTO struct {
	ID             uuid.UUID              `json:"id"`
	Name           string                 `json:"name"`
	TaxCode        string                 `json:"taxCode,omitempty"`
	ContactPerson  string                 `json:"contactPerson,omitempty"`
	Email          string                 `json:"email,omitempty"`
	Phone          string                 `json:"phone,omitempty"`
	Address        string                 `json:"address,omitempty"`
	HealthScore    int                    `json:"healthScore"`
	LifecycleStage CustomerLifecycleStage `json:"lifecycleStage"`
	OpenDeals      int                    `json:"openDeals"`
	TotalWonValue  int64                  `json:"totalWonValue"`
	CreatedAt      string                 `json:"createdAt"`
	UpdatedAt      string                 `json:"updatedAt"`
}

// CustomerRefDTO is the minimal {id, name} pair used by selection pickers
type CustomerRefDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// --- Products ---

type CreateProductRequest struct {
	Name         string          `json:"name" validate:"required,max=200"`
	SKU          string          `json:"sku" validate:"max=50"`
	Description  string          `json:"description"`
	UnitPrice    int64           `json:"unitPrice" validate:"gte=0"`
	Category     ProductCategory `json:"category" validate:"omitempty,oneof=SOFTWARE SERVER SERVICE MAINTENANCE"`
	BillingCycle BillingCycle    `json:"billingCycle" validate:"omitempty,oneof=ONE_TIME MONTHLY YEARLY"`
}

type UpdateProductRequest struct {
	Name         string          `json:"name" validate:"required,max=200"`
	SKU          string          `json:"sku" validate:"max=50"`
	Description  string          `json:"description"`
	UnitPrice    int64           `json:"unitPrice" validate:"gte=0"`
	Category     ProductCategory `json:"category" validate:"omitempty,oneof=SOFTWARE SERVER SERVICE MAINTENANCE"`
	BillingCycle BillingCycle    `json:"billingCycle" validate:"omitempty,oneof=ONE_TIME MONTHLY YEARLY"`
	IsActive     *bool           `json:"isActive"`
}

// ProductDTO is the catalog product representation
type ProductDTO struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	SKU          string          `json:"sku,omitempty"`
	Description  string          `json:"description,omitempty"`
	UnitPrice    int64           `json:"unitPrice"`
	Category     ProductCategory `json:"category"`
	BillingCycle BillingCycle    `json:"billingCycle"`
	IsActive     bool            `json:"isActive"`
	CreatedAt    string          `json:"createdAt"`
	UpdatedAt    string          `json:"updatedAt"`
}

// --- Deals ---

// LineItemRequest is one quote row as submitted by the editor. Catalog rows
// must carry the product reference; custom rows must carry a name. Both rules
// are enforced by the quote validation gate before anything is written.
type LineItemRequest struct {
	Source    LineItemSource `json:"source" validate:"required,oneof=catalog custom"`
	ProductID *uuid.UUID     `json:"productId"`
	Name      string         `json:"name" validate:"max=200"`
	UnitPrice int64          `json:"unitPrice" validate:"gte=0"`
	Quantity  int            `json:"quantity" validate:"gte=1"`
}

// SaveDealRequest is shared by create and edit: a save always carries the
// full in-memory line item set, which replaces whatever was stored before.
type SaveDealRequest struct {
	Title             string            `json:"title" validate:"required,max=200"`
	CustomerID        *uuid.UUID        `json:"customerId"`
	Stage             DealStage         `json:"stage" validate:"omitempty,oneof=NEW NEGOTIATION WON LOST"`
	AssignedTo        *uuid.UUID        `json:"assignedTo"`
	ExpectedCloseDate *time.Time        `json:"expectedCloseDate"`
	Items             []LineItemRequest `json:"items" validate:"dive"`
}

// UpdateDealStageRequest moves a deal through the pipeline
type UpdateDealStageRequest struct {
	Stage DealStage `json:"stage" validate:"required,oneof=NEW NEGOTIATION WON LOST"`
}

// LineItemDTO is one stored quote row
type LineItemDTO struct {
	ID           uuid.UUID       `json:"id"`
	Source       LineItemSource  `json:"source"`
	ProductID    *uuid.UUID      `json:"productId,omitempty"`
	Name         string          `json:"name"`
	Category     ProductCategory `json:"category,omitempty"`
	BillingCycle BillingCycle    `json:"billingCycle,omitempty"`
	UnitPrice    int64           `json:"unitPrice"`
	Quantity     int             `json:"quantity"`
	LineTotal    int64           `json:"lineTotal"`
}

// DealDTO is the full deal representation including its quote
type DealDTO struct {
	ID                uuid.UUID     `json:"id"`
	Title             string        `json:"title"`
	CustomerID        uuid.UUID     `json:"customerId"`
	CustomerName      string        `json:"customerName,omitempty"`
	Stage             DealStage     `json:"stage"`
	TotalValue        int64         `json:"totalValue"`
	AssignedTo        *uuid.UUID    `json:"assignedTo,omitempty"`
	AssigneeName      string        `json:"assigneeName,omitempty"`
	ExpectedCloseDate string        `json:"expectedCloseDate,omitempty"`
	Items             []LineItemDTO `json:"items"`
	CreatedAt         string        `json:"createdAt"`
	UpdatedAt         string        `json:"updatedAt"`
}

// DealStageHistoryDTO is one recorded stage transition
type DealStageHistoryDTO struct {
	ID            uuid.UUID  `json:"id"`
	DealID        uuid.UUID  `json:"dealId"`
	FromStage     *DealStage `json:"fromStage,omitempty"`
	ToStage       DealStage  `json:"toStage"`
	ChangedByName string     `json:"changedByName,omitempty"`
	ChangedAt     string     `json:"changedAt"`
}

// --- Contracts ---

type CreateContractRequest struct {
	DealID      uuid.UUID      `json:"dealId" validate:"required"`
	Status      ContractStatus `json:"status" validate:"omitempty,oneof=DRAFT ACTIVE EXPIRED TERMINATED"`
	StartDate   *time.Time     `json:"startDate"`
	EndDate     *time.Time     `json:"endDate"`
	LicenseKey  string         `json:"licenseKey" validate:"max=50"`
	IsAutoRenew bool           `json:"isAutoRenew"`
}

type UpdateContractRequest struct {
	Status      ContractStatus `json:"status" validate:"omitempty,oneof=DRAFT ACTIVE EXPIRED TERMINATED"`
	StartDate   *time.Time     `json:"startDate"`
	EndDate     *time.Time     `json:"endDate"`
	LicenseKey  string         `json:"licenseKey" validate:"max=50"`
	IsAutoRenew *bool          `json:"isAutoRenew"`
}

// ContractDTO is the contract representation including the customer block
// needed by the print view
type ContractDTO struct {
	ID                    uuid.UUID      `json:"id"`
	ContractCode          string         `json:"contractCode"`
	DealID                uuid.UUID      `json:"dealId"`
	DealTitle             string         `json:"dealTitle,omitempty"`
	CustomerID            uuid.UUID      `json:"customerId"`
	CustomerName          string         `json:"customerName,omitempty"`
	CustomerAddress       string         `json:"customerAddress,omitempty"`
	CustomerTaxCode       string         `json:"customerTaxCode,omitempty"`
	CustomerContactPerson string         `json:"customerContactPerson,omitempty"`
	Status                ContractStatus `json:"status"`
	StartDate             string         `json:"startDate,omitempty"`
	EndDate               string         `json:"endDate,omitempty"`
	LicenseKey            string         `json:"licenseKey,omitempty"`
	TotalValue            int64          `json:"totalValue"`
	IsAutoRenew           bool           `json:"isAutoRenew"`
	CreatedAt             string         `json:"createdAt"`
}

// --- Tasks ---

type CreateTaskRequest struct {
	Title      string     `json:"title" validate:"required,max=200"`
	Status     TaskStatus `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS DONE"`
	CustomerID *uuid.UUID `json:"customerId"`
	DealID     *uuid.UUID `json:"dealId"`
	TicketID   *uuid.UUID `json:"ticketId"`
	AssignedTo *uuid.UUID `json:"assignedTo"`
	DueDate    *time.Time `json:"dueDate"`
}

type UpdateTaskRequest struct {
	Title      string     `json:"title" validate:"required,max=200"`
	Status     TaskStatus `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS DONE"`
	CustomerID *uuid.UUID `json:"customerId"`
	DealID     *uuid.UUID `json:"dealId"`
	TicketID   *uuid.UUID `json:"ticketId"`
	AssignedTo *uuid.UUID `json:"assignedTo"`
	DueDate    *time.Time `json:"dueDate"`
}

// TaskDTO is the task representation
type TaskDTO struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Status       TaskStatus `json:"status"`
	CustomerID   *uuid.UUID `json:"customerId,omitempty"`
	DealID       *uuid.UUID `json:"dealId,omitempty"`
	TicketID     *uuid.UUID `json:"ticketId,omitempty"`
	AssignedTo   *uuid.UUID `json:"assignedTo,omitempty"`
	AssigneeName string     `json:"assigneeName,omitempty"`
	DueDate      string     `json:"dueDate,omitempty"`
	CreatedAt    string     `json:"createdAt"`
	UpdatedAt    string     `json:"updatedAt"`
}

// --- Tickets ---

type CreateTicketRequest struct {
	Title      string         `json:"title" validate:"required,max=200"`
	Status     TicketStatus   `json:"status" validate:"omitempty,oneof=OPEN IN_PROGRESS RESOLVED CLOSED"`
	Priority   TicketPriority `json:"priority" validate:"omitempty,oneof=LOW NORMAL HIGH URGENT"`
	CustomerID *uuid.UUID     `json:"customerId"`
	AssignedTo *uuid.UUID     `json:"assignedTo"`
	Deadline   *time.Time     `json:"deadline"`
}

type UpdateTicketRequest struct {
	Title      string         `json:"title" validate:"required,max=200"`
	Status     TicketStatus   `json:"status" validate:"omitempty,oneof=OPEN IN_PROGRESS RESOLVED CLOSED"`
	Priority   TicketPriority `json:"priority" validate:"omitempty,oneof=LOW NORMAL HIGH URGENT"`
	CustomerID *uuid.UUID     `json:"customerId"`
	AssignedTo *uuid.UUID     `json:"assignedTo"`
	Deadline   *time.Time     `json:"deadline"`
}

// TicketDTO is the support ticket representation
type TicketDTO struct {
	ID           uuid.UUID      `json:"id"`
	Title        string         `json:"title"`
	Status       TicketStatus   `json:"status"`
	Priority     TicketPriority `json:"priority"`
	CustomerID   *uuid.UUID     `json:"customerId,omitempty"`
	CustomerName string         `json:"customerName,omitempty"`
	AssignedTo   *uuid.UUID     `json:"assignedTo,omitempty"`
	AssigneeName string         `json:"assigneeName,omitempty"`
	Deadline     string         `json:"deadline,omitempty"`
	CreatedAt    string         `json:"createdAt"`
	UpdatedAt    string         `json:"updatedAt"`
}

// --- Deployments ---

// SaveDeploymentRequest is shared by create and update. CustomConfig arrives
// as raw JSON and must decode to an object; anything else is rejected before
// a row is written.
type SaveDeploymentRequest struct {
	CustomerID     uuid.UUID        `json:"customerId" validate:"required"`
	AppURL         string           `json:"appUrl" validate:"required,max=255"`
	ServerIP       string           `json:"serverIp" validate:"required,max=45"`
	CurrentVersion string           `json:"currentVersion" validate:"max=50"`
	Status         DeploymentStatus `json:"status" validate:"omitempty,oneof=LIVE MAINTENANCE DOWN DEV"`
	CustomConfig   json.RawMessage  `json:"customConfig" swaggertype:"object"`
}

// DeploymentDTO is the customer installation representation
type DeploymentDTO struct {
	ID             uuid.UUID        `json:"id"`
	CustomerID     uuid.UUID        `json:"customerId"`
	CustomerName   string           `json:"customerName,omitempty"`
	AppURL         string           `json:"appUrl"`
	ServerIP       string           `json:"serverIp"`
	CurrentVersion string           `json:"currentVersion"`
	Status         DeploymentStatus `json:"status"`
	CustomConfig   ConfigMap        `json:"customConfig"`
	CreatedAt      string           `json:"createdAt"`
	UpdatedAt      string           `json:"updatedAt"`
}

// --- Dashboard ---

// DashboardMetrics aggregates the KPI tiles on the reports page
type DashboardMetrics struct {
	TotalCustomers int64               `json:"totalCustomers"`
	TotalProducts  int64               `json:"totalProducts"`
	OpenDeals      int64               `json:"openDeals"`
	WonRevenue     int64               `json:"wonRevenue"`
	PipelineValue  int64               `json:"pipelineValue"`
	DealsByStage   map[DealStage]int64 `json:"dealsByStage"`
	OpenTickets    int64               `json:"openTickets"`
	OverdueTasks   int64               `json:"overdueTasks"`
	RecentDeals    []DealDTO           `json:"recentDeals"`
}
