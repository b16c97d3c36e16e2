package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	costingdomain "github.com/smallbiznis/procura/internal/costing/domain"
	volumedomain "github.com/smallbiznis/procura/internal/volume/domain"
)

// calculateRequest extends the calculation input with an optional monthly
// volume lookup. When product_quantities is empty and a basis is given, the
// quantities are loaded from the forecast or actual series for that month.
type calculateRequest struct {
	costingdomain.CalculateRequest
	Basis string `json:"basis"`
	Year  int    `json:"year"`
	Month int    `json:"month"`
}

// @Summary      Calculate Cost
// @Description  Run a tier-aware cost calculation over product quantities
// @Tags         costing
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        request body calculateRequest true "Calculation Request"
// @Success      200  {object}  costingdomain.CostResult
// @Router       /costing/calculate [post]
func (s *Server) Calculate(c *gin.Context) {
	var req calculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if len(req.ProductQuantities) == 0 && req.Basis != "" {
		quantities, err := s.volumeSvc.QuantitiesForMonth(
			c.Request.Context(), volumedomain.Basis(req.Basis), req.Year, req.Month)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		req.ProductQuantities = quantities
	}
	resp, err := s.costingSvc.Calculate(c.Request.Context(), req.CalculateRequest)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Compare Allocations
// @Description  Price the same quantities under current and proposed allocations
// @Tags         costing
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        request body costingdomain.CompareRequest true "Compare Request"
// @Success      200  {object}  costingdomain.CompareResult
// @Router       /costing/compare [post]
func (s *Server) Compare(c *gin.Context) {
	var req costingdomain.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	resp, err := s.costingSvc.Compare(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Tier Status
// @Description  Report each provider's effective tier for the given volumes
// @Tags         costing
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        request body costingdomain.TierStatusRequest true "Tier Status Request"
// @Success      200  {object}  map[string]costingdomain.ProviderTierStatus
// @Router       /costing/tier-status [post]
func (s *Server) TierStatus(c *gin.Context) {
	var req costingdomain.TierStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	resp, err := s.costingSvc.TierStatus(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Active Products
// @Description  List active products with item counts for calculation input
// @Tags         costing
// @Produce      json
// @Security     ApiKeyAuth
// @Success      200  {object}  []costingdomain.ProductSummary
// @Router       /costing/products [get]
func (s *Server) ActiveProducts(c *gin.Context) {
	resp, err := s.costingSvc.ActiveProducts(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
