package service

import "errors"

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrCustomerNotFound is returned when a customer is not found
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrProductNotFound is returned when a product is not found or inactive
	ErrProductNotFound = errors.New("product not found")

	// ErrDealNotFound is returned when a deal is not found
	ErrDealNotFound = errors.New("deal not found")

	// ErrContractNotFound is returned when a contract is not found
	ErrContractNotFound = errors.New("contract not found")

	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")

	// ErrCustomerRequired is returned when a deal is saved without a customer
	ErrCustomerRequired = errors.New("deal must reference a customer")

	// ErrInvalidStage is returned when an unknown pipeline stage is provided
	ErrInvalidStage = errors.New("invalid deal stage")

	// ErrDealNotWon is returned when creating a contract from a deal that is not won
	ErrDealNotWon = errors.New("contract requires a won deal")

	// ErrContractExists is returned when a deal already has a contract
	ErrContractExists = errors.New("deal already has a contract")

	// ErrDuplicateSKU is returned when a product SKU is already taken
	ErrDuplicateSKU = errors.New("product sku already exists")

	// ErrInvalidConfig is returned when a deployment config is not a JSON object
	ErrInvalidConfig = errors.New("custom config must be a JSON object")
)
