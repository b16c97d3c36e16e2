package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	contractdomain "github.com/smallbiznis/procura/internal/contract/domain"
)

// @Summary      Create Process
// @Tags         processes
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        request body contractdomain.CreateProcessRequest true "Create Process Request"
// @Success      200  {object}  contractdomain.Process
// @Router       /processes [post]
func (s *Server) CreateProcess(c *gin.Context) {
	var req contractdomain.CreateProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	resp, err := s.contractSvc.CreateProcess(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Processes
// @Tags         processes
// @Produce      json
// @Security     ApiKeyAuth
// @Success      200  {object}  []contractdomain.Process
// @Router       /processes [get]
func (s *Server) ListProcesses(c *gin.Context) {
	resp, err := s.contractSvc.ListProcesses(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get Process
// @Tags         processes
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id   path      string  true  "Process ID"
// @Success      200  {object}  contractdomain.Process
// @Router       /processes/{id} [get]
func (s *Server) GetProcess(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := s.contractSvc.GetProcess(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Update Process
// @Tags         processes
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id       path      string                                  true  "Process ID"
// @Param        request  body      contractdomain.UpdateProcessRequest     true  "Update Process Request"
// @Success      200  {object}  contractdomain.Process
// @Router       /processes/{id} [patch]
func (s *Server) UpdateProcess(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req contractdomain.UpdateProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	resp, err := s.contractSvc.UpdateProcess(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Delete Process
// @Description  Delete a process with its contracts and offers
// @Tags         processes
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id   path      string  true  "Process ID"
// @Success      200  {object}  map[string]string
// @Router       /processes/{id} [delete]
func (s *Server) DeleteProcess(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.contractSvc.DeleteProcess(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary      Create Contract
// @Description  Create a contract, optionally with its tier ladder
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        request body contractdomain.CreateContractRequest true "Create Contract Request"
// @Success      200  {object}  contractdomain.Contract
// @Router       /contracts [post]
func (s *Server) CreateContract(c *gin.Context) {
	var req contractdomain.CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	resp, err := s.contractSvc.CreateContract(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Contracts
// @Tags         contracts
// @Produce      json
// @Security     ApiKeyAuth
// @Param        process_id   query     string  false  "Process ID"
// @Param        provider_id  query     string  false  "Provider ID"
// @Param        status       query     string  false  "Status"
// @Success      200  {object}  []contractdomain.Contract
// @Router       /contracts [get]
func (s *Server) ListContracts(c *gin.Context) {
	processID, ok := queryID(c, "process_id")
	if !ok {
		return
	}
	providerID, ok := queryID(c, "provider_id")
	if !ok {
		return
	}
	resp, err := s.contractSvc.ListContracts(c.Request.Context(), contractdomain.ContractFilter{
		ProcessID:  processID,
		ProviderID: providerID,
		Status:     strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get Contract
// @Tags         contracts
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id   path      string  true  "Contract ID"
// @Success      200  {object}  contractdomain.Contract
// @Router       /contracts/{id} [get]
func (s *Server) GetContract(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := s.contractSvc.GetContract(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Update Contract
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id       path      string                                   true  "Contract ID"
// @Param        request  body      contractdomain.UpdateContractRequest     true  "Update Contract Request"
// @Success      200  {object}  contractdomain.Contract
// @Router       /contracts/{id} [patch]
func (s *Server) UpdateContract(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req contractdomain.UpdateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	resp, err := s.contractSvc.UpdateContract(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Delete Contract
// @Tags         contracts
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id   path      string  true  "Contract ID"
// @Success      200  {object}  map[string]string
// @Router       /contracts/{id} [delete]
func (s *Server) DeleteContract(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.contractSvc.DeleteContract(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type setTiersRequest struct {
	Tiers []contractdomain.TierSpec `json:"tiers"`
}

// @Summary      Set Contract Tiers
// @Description  Replace the contract's tier ladder
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id       path      string           true  "Contract ID"
// @Param        request  body      setTiersRequest  true  "Tier ladder"
// @Success      200  {object}  []contractdomain.ContractTier
// @Router       /contracts/{id}/tiers [put]
func (s *Server) SetTiers(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req setTiersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	resp, err := s.contractSvc.SetTiers(c.Request.Context(), id, req.Tiers)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Contract Tiers
// @Tags         contracts
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id   path      string  true  "Contract ID"
// @Success      200  {object}  []contractdomain.ContractTier
// @Router       /contracts/{id}/tiers [get]
func (s *Server) ListTiers(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := s.contractSvc.GetContract(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	resp, err := s.contractSvc.TiersForContract(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Select Tier
// @Description  Mark one tier as the manual selection for the contract
// @Tags         contracts
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id    path      string  true  "Contract ID"
// @Param        tier  path      int     true  "Tier number"
// @Success      200  {object}  map[string]string
// @Router       /contracts/{id}/tiers/{tier}/select [post]
func (s *Server) SelectTier(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tierNumber, err := strconv.Atoi(strings.TrimSpace(c.Param("tier")))
	if err != nil || tierNumber < 1 {
		AbortWithError(c, newValidationError("tier", "invalid_tier", "invalid tier number"))
		return
	}
	if err := s.contractSvc.SelectTier(c.Request.Context(), id, tierNumber); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary      Clear Tier Selection
// @Description  Return the contract to calculated tier resolution
// @Tags         contracts
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id   path      string  true  "Contract ID"
// @Success      200  {object}  map[string]string
// @Router       /contracts/{id}/tiers/selection [delete]
func (s *Server) ClearSelectedTier(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.contractSvc.ClearSelectedTier(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
