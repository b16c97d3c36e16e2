package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Service manages the procurement catalog.
type Service interface {
	CreateProvider(ctx context.Context, req CreateProviderRequest) (*Provider, error)
	GetProvider(ctx context.Context, id snowflake.ID) (*Provider, error)
	ListProviders(ctx context.Context) ([]Provider, error)
	UpdateProvider(ctx context.Context, id snowflake.ID, req UpdateProviderRequest) (*Provider, error)
	DeleteProvider(ctx context.Context, id snowflake.ID) error

	CreateItem(ctx context.Context, req CreateItemRequest) (*Item, error)
	GetItem(ctx context.Context, id snowflake.ID) (*Item, error)
	ListItems(ctx context.Context) ([]Item, error)
	UpdateItem(ctx context.Context, id snowflake.ID, req UpdateItemRequest) (*Item, error)
	DeleteItem(ctx context.Context, id snowflake.ID) error

	CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error)
	GetProduct(ctx context.Context, id snowflake.ID) (*Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	UpdateProduct(ctx context.Context, id snowflake.ID, req UpdateProductRequest) (*Product, error)
	DeleteProduct(ctx context.Context, id snowflake.ID) error

	SetProductItems(ctx context.Context, productID snowflake.ID, itemIDs []snowflake.ID) error
	ItemsForProduct(ctx context.Context, productID snowflake.ID) ([]Item, error)

	SetAllocation(ctx context.Context, productID snowflake.ID, allocation Allocation) error
	AllocationForProduct(ctx context.Context, productID snowflake.ID) (Allocation, error)

	SetMultipliers(ctx context.Context, productID snowflake.ID, multipliers []SetMultiplierEntry) error
	MultipliersForProduct(ctx context.Context, productID snowflake.ID) (map[snowflake.ID]PriceMultiplier, error)
}

var (
	ErrProviderNotFound  = errors.New("provider_not_found")
	ErrItemNotFound      = errors.New("item_not_found")
	ErrProductNotFound   = errors.New("product_not_found")
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidAllocation = errors.New("invalid_allocation")
	ErrInvalidMultiplier = errors.New("invalid_multiplier")
)

type CreateProviderRequest struct {
	Name    string `json:"name"`
	Details string `json:"details"`
	Status  string `json:"status"`
}

type UpdateProviderRequest struct {
	Name    *string `json:"name"`
	Details *string `json:"details"`
	Status  *string `json:"status"`
}

type CreateItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

type UpdateItemRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

type CreateProductRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	ProxyQuantity int64  `json:"proxy_quantity"`
	Status        string `json:"status"`
}

type UpdateProductRequest struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	ProxyQuantity *int64  `json:"proxy_quantity"`
	Status        *string `json:"status"`
}

// SetMultiplierEntry is one multiplier assignment for a product item.
type SetMultiplierEntry struct {
	ItemID     snowflake.ID `json:"item_id"`
	Multiplier float64      `json:"multiplier"`
	Notes      string       `json:"notes"`
}
