package service

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidProduct  = errors.New("product id must not be empty")
	ErrPersist         = errors.New("failed to persist cart")
	ErrNoProvider      = errors.New("cart store must be used within a provider")
)
