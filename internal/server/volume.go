package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	volumedomain "github.com/smallbiznis/procura/internal/volume/domain"
)

type upsertVolumeRequest struct {
	Year  int   `json:"year"`
	Month int   `json:"month"`
	Units int64 `json:"units"`
}

// @Summary      Upsert Forecast
// @Description  Create or replace the forecast for one month
// @Tags         volumes
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id       path      string               true  "Product ID"
// @Param        request  body      upsertVolumeRequest  true  "Forecast"
// @Success      200  {object}  volumedomain.Forecast
// @Router       /products/{id}/forecasts [put]
func (s *Server) UpsertForecast(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req upsertVolumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if _, err := s.catalogSvc.GetProduct(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	resp, err := s.volumeSvc.UpsertForecast(c.Request.Context(), volumedomain.UpsertVolumeRequest{
		ProductID: id,
		Year:      req.Year,
		Month:     req.Month,
		Units:     req.Units,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Forecasts
// @Tags         volumes
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  []volumedomain.Forecast
// @Router       /products/{id}/forecasts [get]
func (s *Server) ListForecasts(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := s.catalogSvc.GetProduct(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	resp, err := s.volumeSvc.ListForecasts(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Delete Forecast
// @Description  Delete the forecast row for one month
// @Tags         volumes
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id     path      string  true  "Product ID"
// @Param        year   query     int     true  "Year"
// @Param        month  query     int     true  "Month"
// @Success      200  {object}  map[string]string
// @Router       /products/{id}/forecasts [delete]
func (s *Server) DeleteForecast(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	year, _, ok := queryInt(c, "year")
	if !ok {
		return
	}
	month, _, ok := queryInt(c, "month")
	if !ok {
		return
	}
	if err := s.volumeSvc.DeleteForecast(c.Request.Context(), id, year, month); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary      Upsert Actual
// @Description  Create or replace the actual for one month
// @Tags         volumes
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id       path      string               true  "Product ID"
// @Param        request  body      upsertVolumeRequest  true  "Actual"
// @Success      200  {object}  volumedomain.Actual
// @Router       /products/{id}/actuals [put]
func (s *Server) UpsertActual(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req upsertVolumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if _, err := s.catalogSvc.GetProduct(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	resp, err := s.volumeSvc.UpsertActual(c.Request.Context(), volumedomain.UpsertVolumeRequest{
		ProductID: id,
		Year:      req.Year,
		Month:     req.Month,
		Units:     req.Units,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Actuals
// @Tags         volumes
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  []volumedomain.Actual
// @Router       /products/{id}/actuals [get]
func (s *Server) ListActuals(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := s.catalogSvc.GetProduct(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	resp, err := s.volumeSvc.ListActuals(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Delete Actual
// @Description  Delete the actual row for one month
// @Tags         volumes
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id     path      string  true  "Product ID"
// @Param        year   query     int     true  "Year"
// @Param        month  query     int     true  "Month"
// @Success      200  {object}  map[string]string
// @Router       /products/{id}/actuals [delete]
func (s *Server) DeleteActual(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	year, _, ok := queryInt(c, "year")
	if !ok {
		return
	}
	month, _, ok := queryInt(c, "month")
	if !ok {
		return
	}
	if err := s.volumeSvc.DeleteActual(c.Request.Context(), id, year, month); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
