// Package mapper converts between domain models and API DTOs.
package mapper

import (
	"time"

	"github.com/vietbiz/crm-api/internal/config"
	"github.com/vietbiz/crm-api/internal/domain"
	"github.com/vietbiz/crm-api/internal/render"
)

const timeFormat = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(timeFormat)
}

func ToUserDTO(user *domain.User) domain.UserDTO {
	return domain.UserDTO{
		ID:       user.ID,
		FullName: user.FullName,
		Email:    user.Email,
		Phone:    user.Phone,
		Role:     user.Role,
		IsActive: user.IsActive,
	}
}

func ToCustomerDTO(customer *domain.Customer, openDeals int, totalWonValue int64) domain.CustomerDTO {
	return domain.CustomerDTO{
		ID:             customer.ID,
		Name:           customer.Name,
		TaxCode:        customer.TaxCode,
		ContactPerson:  customer.ContactPerson,
		Email:          customer.Email,
		Phone:          customer.Phone,
		Address:        customer.Address,
		HealthScore:    customer.HealthScore,
		LifecycleStage: customer.LifecycleStage,
		OpenDeals:      openDeals,
		TotalWonValue:  totalWonValue,
		CreatedAt:      formatTime(customer.CreatedAt),
		UpdatedAt:      formatTime(customer.UpdatedAt),
	}
}

func ToCustomerRefDTO(customer *domain.Customer) domain.CustomerRefDTO {
	return domain.CustomerRefDTO{
		ID:   customer.ID,
		Name: customer.Name,
	}
}

func ToProductDTO(product *domain.Product) domain.ProductDTO {
	return domain.ProductDTO{
		ID:           product.ID,
		Name:         product.Name,
		SKU:          product.SKU,
		Description:  product.Description,
		UnitPrice:    product.UnitPrice,
		Category:     product.Category,
		BillingCycle: product.BillingCycle,
		IsActive:     product.IsActive,
		CreatedAt:    formatTime(product.CreatedAt),
		UpdatedAt:    formatTime(product.UpdatedAt),
	}
}

func ToLineItemDTO(item *domain.DealLineItem) domain.LineItemDTO {
	return domain.LineItemDTO{
		ID:           item.ID,
		Source:       item.Source,
		ProductID:    item.ProductID,
		Name:         item.Name,
		Category:     item.Category,
		BillingCycle: item.BillingCycle,
		UnitPrice:    item.UnitPrice,
		Quantity:     item.Quantity,
		LineTotal:    item.LineTotal(),
	}
}

func ToDealDTO(deal *domain.Deal) domain.DealDTO {
	items := make([]domain.LineItemDTO, 0, len(deal.Items))
	for i := range deal.Items {
		items = append(items, ToLineItemDTO(&deal.Items[i]))
	}

	customerName := deal.CustomerName
	if deal.Customer != nil {
		customerName = deal.Customer.Name
	}

	return domain.DealDTO{
		ID:                deal.ID,
		Title:             deal.Title,
		CustomerID:        deal.CustomerID,
		CustomerName:      customerName,
		Stage:             deal.Stage,
		TotalValue:        deal.TotalValue,
		AssignedTo:        deal.AssignedTo,
		AssigneeName:      deal.AssigneeName,
		ExpectedCloseDate: formatTimePtr(deal.ExpectedCloseDate),
		Items:             items,
		CreatedAt:         formatTime(deal.CreatedAt),
		UpdatedAt:         formatTime(deal.UpdatedAt),
	}
}

func ToDealStageHistoryDTO(entry *domain.DealStageHistory) domain.DealStageHistoryDTO {
	return domain.DealStageHistoryDTO{
		ID:            entry.ID,
		DealID:        entry.DealID,
		FromStage:     entry.FromStage,
		ToStage:       entry.ToStage,
		ChangedByName: entry.ChangedByName,
		ChangedAt:     formatTime(entry.ChangedAt),
	}
}

func ToContractDTO(contract *domain.Contract) domain.ContractDTO {
	dto := domain.ContractDTO{
		ID:           contract.ID,
		ContractCode: contract.ContractCode,
		DealID:       contract.DealID,
		CustomerID:   contract.CustomerID,
		Status:       contract.Status,
		StartDate:    formatTimePtr(contract.StartDate),
		EndDate:      formatTimePtr(contract.EndDate),
		LicenseKey:   contract.LicenseKey,
		TotalValue:   contract.TotalValue,
		IsAutoRenew:  contract.IsAutoRenew,
		CreatedAt:    formatTime(contract.CreatedAt),
	}
	if contract.Deal != nil {
		dto.DealTitle = contract.Deal.Title
	}
	if contract.Customer != nil {
		dto.CustomerName = contract.Customer.Name
		dto.CustomerAddress = contract.Customer.Address
		dto.CustomerTaxCode = contract.Customer.TaxCode
		dto.CustomerContactPerson = contract.Customer.ContactPerson
	}
	return dto
}

func ToTaskDTO(task *domain.Task) domain.TaskDTO {
	return domain.TaskDTO{
		ID:           task.ID,
		Title:        task.Title,
		Status:       task.Status,
		CustomerID:   task.CustomerID,
		DealID:       task.DealID,
		TicketID:     task.TicketID,
		AssignedTo:   task.AssignedTo,
		AssigneeName: task.AssigneeName,
		DueDate:      formatTimePtr(task.DueDate),
		CreatedAt:    formatTime(task.CreatedAt),
		UpdatedAt:    formatTime(task.UpdatedAt),
	}
}

func ToTicketDTO(ticket *domain.Ticket) domain.TicketDTO {
	return domain.TicketDTO{
		ID:           ticket.ID,
		Title:        ticket.Title,
		Status:       ticket.Status,
		Priority:     ticket.Priority,
		CustomerID:   ticket.CustomerID,
		CustomerName: ticket.CustomerName,
		AssignedTo:   ticket.AssignedTo,
		AssigneeName: ticket.AssigneeName,
		Deadline:     formatTimePtr(ticket.Deadline),
		CreatedAt:    formatTime(ticket.CreatedAt),
		UpdatedAt:    formatTime(ticket.UpdatedAt),
	}
}

func ToDeploymentDTO(deployment *domain.Deployment) domain.DeploymentDTO {
	cfg := deployment.CustomConfig
	if cfg == nil {
		cfg = domain.ConfigMap{}
	}

	customerName := deployment.CustomerName
	if deployment.Customer != nil {
		customerName = deployment.Customer.Name
	}

	return domain.DeploymentDTO{
		ID:             deployment.ID,
		CustomerID:     deployment.CustomerID,
		CustomerName:   customerName,
		AppURL:         deployment.AppURL,
		ServerIP:       deployment.ServerIP,
		CurrentVersion: deployment.CurrentVersion,
		Status:         deployment.Status,
		CustomConfig:   cfg,
		CreatedAt:      formatTime(deployment.CreatedAt),
		UpdatedAt:      formatTime(deployment.UpdatedAt),
	}
}

// ToQuoteDocument assembles the render aggregate for a saved deal. The
// document's Total is the deal's stored total, not a fresh computation, so
// every renderer shows exactly what the table shows.
func ToQuoteDocument(deal *domain.Deal, customer *domain.Customer, company *config.CompanyConfig, issuedAt time.Time) render.QuoteDocument {
	lines := make([]render.QuoteLine, 0, len(deal.Items))
	for i := range deal.Items {
		item := deal.Items[i]
		lines = append(lines, render.QuoteLine{
			Index:        i + 1,
			Name:         item.Name,
			Category:     item.Category,
			BillingCycle: item.BillingCycle,
			UnitPrice:    item.UnitPrice,
			Quantity:     item.Quantity,
			LineTotal:    item.LineTotal(),
		})
	}

	doc := render.QuoteDocument{
		DealID:   deal.ID,
		Title:    deal.Title,
		Stage:    deal.Stage,
		Lines:    lines,
		Total:    deal.TotalValue,
		IssuedAt: issuedAt,
	}
	if company != nil {
		doc.Company = render.CompanyInfo{
			Name:    company.Name,
			TaxCode: company.TaxCode,
			Address: company.Address,
			Phone:   company.Phone,
			Email:   company.Email,
		}
	}
	if customer != nil {
		doc.Customer = render.CustomerInfo{
			Name:          customer.Name,
			TaxCode:       customer.TaxCode,
			ContactPerson: customer.ContactPerson,
			Address:       customer.Address,
			Email:         customer.Email,
			Phone:         customer.Phone,
		}
	}
	return doc
}

// ToDealReportRow converts a deal into one pipeline report export row.
func ToDealReportRow(deal *domain.Deal) render.DealReportRow {
	return render.DealReportRow{
		Title:             deal.Title,
		CustomerName:      deal.CustomerName,
		Stage:             deal.Stage,
		TotalValue:        deal.TotalValue,
		AssigneeName:      deal.AssigneeName,
		ExpectedCloseDate: deal.ExpectedCloseDate,
		CreatedAt:         deal.CreatedAt,
	}
}
