package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Service manages processes, contracts and contract tiers.
type Service interface {
	CreateProcess(ctx context.Context, req CreateProcessRequest) (*Process, error)
	GetProcess(ctx context.Context, id snowflake.ID) (*Process, error)
	ListProcesses(ctx context.Context) ([]Process, error)
	UpdateProcess(ctx context.Context, id snowflake.ID, req UpdateProcessRequest) (*Process, error)
	DeleteProcess(ctx context.Context, id snowflake.ID) error

	CreateContract(ctx context.Context, req CreateContractRequest) (*Contract, error)
	GetContract(ctx context.Context, id snowflake.ID) (*Contract, error)
	ListContracts(ctx context.Context, filter ContractFilter) ([]Contract, error)
	UpdateContract(ctx context.Context, id snowflake.ID, req UpdateContractRequest) (*Contract, error)
	DeleteContract(ctx context.Context, id snowflake.ID) error

	SetTiers(ctx context.Context, contractID snowflake.ID, tiers []TierSpec) ([]ContractTier, error)
	TiersForContract(ctx context.Context, contractID snowflake.ID) ([]ContractTier, error)
	SelectTier(ctx context.Context, contractID snowflake.ID, tierNumber int) error
	ClearSelectedTier(ctx context.Context, contractID snowflake.ID) error
}

var (
	ErrProcessNotFound   = errors.New("process_not_found")
	ErrContractNotFound  = errors.New("contract_not_found")
	ErrTierNotFound      = errors.New("tier_not_found")
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidTier       = errors.New("invalid_tier")
	ErrDuplicateContract = errors.New("active_contract_exists")
)

type CreateProcessRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

type UpdateProcessRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

type CreateContractRequest struct {
	ProcessID  snowflake.ID `json:"process_id"`
	ProviderID snowflake.ID `json:"provider_id"`
	Name       string       `json:"name"`
	Status     string       `json:"status"`
	Tiers      []TierSpec   `json:"tiers"`
}

type UpdateContractRequest struct {
	Name   *string `json:"name"`
	Status *string `json:"status"`
}

// ContractFilter narrows ListContracts; zero fields match everything.
type ContractFilter struct {
	ProcessID  snowflake.ID `form:"process_id"`
	ProviderID snowflake.ID `form:"provider_id"`
	Status     string       `form:"status"`
}

// TierSpec is one rung of the ladder as submitted by callers.
type TierSpec struct {
	TierNumber     int   `json:"tier_number"`
	ThresholdUnits int64 `json:"threshold_units"`
	IsSelected     bool  `json:"is_selected"`
}
