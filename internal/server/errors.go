package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/smallbiznis/procura/internal/catalog/domain"
	contractdomain "github.com/smallbiznis/procura/internal/contract/domain"
	costingdomain "github.com/smallbiznis/procura/internal/costing/domain"
	offerdomain "github.com/smallbiznis/procura/internal/offer/domain"
	volumedomain "github.com/smallbiznis/procura/internal/volume/domain"
)

var (
	ErrNotFound           = errors.New("not_found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrTooManyRequests    = errors.New("too_many_requests")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

// APIError is the wire shape of every error response.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *APIError) Error() string { return e.Code }

func invalidRequestError() *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "invalid_request",
		Message: "request body could not be parsed",
	}
}

func newValidationError(field, code, message string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    code,
		Message: message,
		Field:   field,
	}
}

var notFoundErrors = []error{
	ErrNotFound,
	catalogdomain.ErrProviderNotFound,
	catalogdomain.ErrItemNotFound,
	catalogdomain.ErrProductNotFound,
	contractdomain.ErrProcessNotFound,
	contractdomain.ErrContractNotFound,
	contractdomain.ErrTierNotFound,
	offerdomain.ErrOfferNotFound,
	offerdomain.ErrNoRankedOffers,
	volumedomain.ErrVolumeNotFound,
}

var validationErrors = []error{
	catalogdomain.ErrInvalidName,
	catalogdomain.ErrInvalidStatus,
	catalogdomain.ErrInvalidAllocation,
	catalogdomain.ErrInvalidMultiplier,
	contractdomain.ErrInvalidName,
	contractdomain.ErrInvalidStatus,
	contractdomain.ErrInvalidTier,
	offerdomain.ErrInvalidOffer,
	offerdomain.ErrInvalidStatus,
	volumedomain.ErrInvalidPeriod,
	volumedomain.ErrInvalidUnits,
	volumedomain.ErrInvalidBasis,
	costingdomain.ErrNoQuantities,
	costingdomain.ErrInvalidVolume,
}

// AbortWithError maps domain errors onto HTTP statuses and writes the
// response body.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case matchesAny(err, notFoundErrors):
		status = http.StatusNotFound
	case matchesAny(err, validationErrors):
		status = http.StatusBadRequest
	case errors.Is(err, contractdomain.ErrDuplicateContract):
		status = http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, ErrTooManyRequests):
		status = http.StatusTooManyRequests
	case errors.Is(err, ErrServiceUnavailable):
		status = http.StatusServiceUnavailable
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		// Do not leak driver errors to clients.
		message = "internal_error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": &APIError{
		Status:  status,
		Code:    message,
		Message: message,
	}})
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
