package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	catalogdomain "github.com/smallbiznis/procura/internal/catalog/domain"
)

// @Summary      Create Provider
// @Description  Register a new provider
// @Tags         providers
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        request body catalogdomain.CreateProviderRequest true "Create Provider Request"
// @Success      200  {object}  catalogdomain.Provider
// @Router       /providers [post]
func (s *Server) CreateProvider(c *gin.Context) {
	var req catalogdomain.CreateProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	resp, err := s.catalogSvc.CreateProvider(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Providers
// @Tags         providers
// @Produce      json
// @Security     ApiKeyAuth
// @Success      200  {object}  []catalogdomain.Provider
// @Router       /providers [get]
func (s *Server) ListProviders(c *gin.Context) {
	resp, err := s.catalogSvc.ListProviders(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get Provider
// @Tags         providers
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id   path      string  true  "Provider ID"
// @Success      200  {object}  catalogdomain.Provider
// @Router       /providers/{id} [get]
func (s *Server) GetProvider(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := s.catalogSvc.GetProvider(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Update Provider
// @Tags         providers
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id       path      string                                  true  "Provider ID"
// @Param        request  body      catalogdomain.UpdateProviderRequest     true  "Update Provider Request"
// @Success      200  {object}  catalogdomain.Provider
// @Router       /providers/{id} [patch]
func (s *Server) UpdateProvider(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req catalogdomain.UpdateProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	resp, err := s.catalogSvc.UpdateProvider(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Delete Provider
// @Description  Delete a provider and its offers, allocations and contracts
// @Tags         providers
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id   path      string  true  "Provider ID"
// @Success      200  {object}  map[string]string
// @Router       /providers/{id} [delete]
func (s *Server) DeleteProvider(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.catalogSvc.DeleteProvider(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary      Create Item
// @Tags         items
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        request body catalogdomain.CreateItemRequest true "Create Item Request"
// @Success      200  {object}  catalogdomain.Item
// @Router       /items [post]
func (s *Server) CreateItem(c *gin.Context) {
	var req catalogdomain.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	resp, err := s.catalogSvc.CreateItem(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Items
// @Tags         items
// @Produce      json
// @Security     ApiKeyAuth
// @Success      200  {object}  []catalogdomain.Item
// @Router       /items [get]
func (s *Server) ListItems(c *gin.Context) {
	resp, err := s.catalogSvc.ListItems(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get Item
// @Tags         items
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  catalogdomain.Item
// @Router       /items/{id} [get]
func (s *Server) GetItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := s.catalogSvc.GetItem(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Update Item
// @Tags         items
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id       path      string                              true  "Item ID"
// @Param        request  body      catalogdomain.UpdateItemRequest     true  "Update Item Request"
// @Success      200  {object}  catalogdomain.Item
// @Router       /items/{id} [patch]
func (s *Server) UpdateItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req catalogdomain.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	resp, err := s.catalogSvc.UpdateItem(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Delete Item
// @Tags         items
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  map[string]string
// @Router       /items/{id} [delete]
func (s *Server) DeleteItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.catalogSvc.DeleteItem(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary      Create Product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        request body catalogdomain.CreateProductRequest true "Create Product Request"
// @Success      200  {object}  catalogdomain.Product
// @Router       /products [post]
func (s *Server) CreateProduct(c *gin.Context) {
	var req catalogdomain.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	resp, err := s.catalogSvc.CreateProduct(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Products
// @Tags         products
// @Produce      json
// @Security     ApiKeyAuth
// @Success      200  {object}  []catalogdomain.Product
// @Router       /products [get]
func (s *Server) ListProducts(c *gin.Context) {
	resp, err := s.catalogSvc.ListProducts(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get Product
// @Tags         products
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  catalogdomain.Product
// @Router       /products/{id} [get]
func (s *Server) GetProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := s.catalogSvc.GetProduct(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Update Product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id       path      string                                 true  "Product ID"
// @Param        request  body      catalogdomain.UpdateProductRequest     true  "Update Product Request"
// @Success      200  {object}  catalogdomain.Product
// @Router       /products/{id} [patch]
func (s *Server) UpdateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req catalogdomain.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	resp, err := s.catalogSvc.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Delete Product
// @Description  Delete a product with its items, allocations and volumes
// @Tags         products
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  map[string]string
// @Router       /products/{id} [delete]
func (s *Server) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.catalogSvc.DeleteProduct(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type setProductItemsRequest struct {
	ItemIDs []snowflake.ID `json:"item_ids"`
}

// @Summary      Set Product Items
// @Description  Replace the product's item list
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id       path      string                  true  "Product ID"
// @Param        request  body      setProductItemsRequest  true  "Item IDs"
// @Success      200  {object}  []catalogdomain.Item
// @Router       /products/{id}/items [put]
func (s *Server) SetProductItems(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req setProductItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if err := s.catalogSvc.SetProductItems(c.Request.Context(), id, req.ItemIDs); err != nil {
		AbortWithError(c, err)
		return
	}
	resp, err := s.catalogSvc.ItemsForProduct(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Product Items
// @Tags         products
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  []catalogdomain.Item
// @Router       /products/{id}/items [get]
func (s *Server) ListProductItems(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := s.catalogSvc.GetProduct(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	resp, err := s.catalogSvc.ItemsForProduct(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Set Allocation
// @Description  Replace the product's provider allocation
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id       path      string                    true  "Product ID"
// @Param        request  body      catalogdomain.Allocation  true  "Allocation"
// @Success      200  {object}  catalogdomain.Allocation
// @Router       /products/{id}/allocations [put]
func (s *Server) SetAllocation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req catalogdomain.Allocation
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if err := s.catalogSvc.SetAllocation(c.Request.Context(), id, req); err != nil {
		AbortWithError(c, err)
		return
	}
	resp, err := s.catalogSvc.AllocationForProduct(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get Allocation
// @Tags         products
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  catalogdomain.Allocation
// @Router       /products/{id}/allocations [get]
func (s *Server) GetAllocation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := s.catalogSvc.GetProduct(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	resp, err := s.catalogSvc.AllocationForProduct(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type setMultipliersRequest struct {
	Multipliers []catalogdomain.SetMultiplierEntry `json:"multipliers"`
}

// @Summary      Set Multipliers
// @Description  Replace the product's price multipliers
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id       path      string                 true  "Product ID"
// @Param        request  body      setMultipliersRequest  true  "Multipliers"
// @Success      200  {object}  map[string]catalogdomain.PriceMultiplier
// @Router       /products/{id}/multipliers [put]
func (s *Server) SetMultipliers(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req setMultipliersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if err := s.catalogSvc.SetMultipliers(c.Request.Context(), id, req.Multipliers); err != nil {
		AbortWithError(c, err)
		return
	}
	resp, err := s.catalogSvc.MultipliersForProduct(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get Multipliers
// @Tags         products
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  map[string]catalogdomain.PriceMultiplier
// @Router       /products/{id}/multipliers [get]
func (s *Server) GetMultipliers(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := s.catalogSvc.GetProduct(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	resp, err := s.catalogSvc.MultipliersForProduct(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
