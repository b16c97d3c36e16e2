package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	offerdomain "github.com/smallbiznis/procura/internal/offer/domain"
)

// @Summary      Create Offer
// @Tags         offers
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        request body offerdomain.CreateOfferRequest true "Create Offer Request"
// @Success      200  {object}  offerdomain.Offer
// @Router       /offers [post]
func (s *Server) CreateOffer(c *gin.Context) {
	var req offerdomain.CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	resp, err := s.offerSvc.CreateOffer(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Offers
// @Tags         offers
// @Produce      json
// @Security     ApiKeyAuth
// @Param        item_id      query     string  false  "Item ID"
// @Param        provider_id  query     string  false  "Provider ID"
// @Param        process_id   query     string  false  "Process ID"
// @Param        status       query     string  false  "Status"
// @Success      200  {object}  []offerdomain.Offer
// @Router       /offers [get]
func (s *Server) ListOffers(c *gin.Context) {
	itemID, ok := queryID(c, "item_id")
	if !ok {
		return
	}
	providerID, ok := queryID(c, "provider_id")
	if !ok {
		return
	}
	processID, ok := queryID(c, "process_id")
	if !ok {
		return
	}
	resp, err := s.offerSvc.ListOffers(c.Request.Context(), offerdomain.OfferFilter{
		ItemID:     itemID,
		ProviderID: providerID,
		ProcessID:  processID,
		Status:     strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get Offer
// @Tags         offers
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id   path      string  true  "Offer ID"
// @Success      200  {object}  offerdomain.Offer
// @Router       /offers/{id} [get]
func (s *Server) GetOffer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := s.offerSvc.GetOffer(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Update Offer
// @Tags         offers
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id       path      string                              true  "Offer ID"
// @Param        request  body      offerdomain.UpdateOfferRequest      true  "Update Offer Request"
// @Success      200  {object}  offerdomain.Offer
// @Router       /offers/{id} [patch]
func (s *Server) UpdateOffer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req offerdomain.UpdateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	resp, err := s.offerSvc.UpdateOffer(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Delete Offer
// @Tags         offers
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id   path      string  true  "Offer ID"
// @Success      200  {object}  map[string]string
// @Router       /offers/{id} [delete]
func (s *Server) DeleteOffer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.offerSvc.DeleteOffer(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary      Rank Offers
// @Description  Rank active offers for an item at a purchase quantity
// @Tags         costing
// @Produce      json
// @Security     ApiKeyAuth
// @Param        item_id   query     string  true  "Item ID"
// @Param        quantity  query     int     true  "Quantity"
// @Success      200  {object}  offerdomain.Ranking
// @Router       /costing/rank [get]
func (s *Server) RankOffers(c *gin.Context) {
	itemID, ok := queryID(c, "item_id")
	if !ok {
		return
	}
	if itemID == 0 {
		AbortWithError(c, newValidationError("item_id", "required", "item_id is required"))
		return
	}
	quantity, err := strconv.ParseInt(strings.TrimSpace(c.Query("quantity")), 10, 64)
	if err != nil || quantity <= 0 {
		AbortWithError(c, newValidationError("quantity", "invalid_quantity", "quantity must be positive"))
		return
	}
	resp, err := s.offerSvc.RankOffers(c.Request.Context(), itemID, quantity)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
