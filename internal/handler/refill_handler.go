package handler

import (
	"net/http"

	"pharmacy/internal/middleware"
	"pharmacy/internal/model"
	"pharmacy/internal/service"
	"pharmacy/pkg/response"

	"github.com/gin-gonic/gin"
)

type RefillHandler struct {
	refillService service.RefillService
}

func NewRefillHandler(refillService service.RefillService) *RefillHandler {
	return &RefillHandler{refillService: refillService}
}

func (h *RefillHandler) RegisterRoutes(router *gin.RouterGroup) {
	refills := router.Group("/refills")
	refills.Use(middleware.RequireRole(model.RoleAdmin, model.RolePharmacist))
	{
		refills.GET("", h.ListRefills)
		refills.POST("", h.CreateRefill)
		refills.GET("/:id", h.GetRefill)
	}
}

// CreateRefill adds a batch to stock and makes its price current
// @Summary      Create refill
// @Description  Appends a refill ledger entry, increments the medicine's stock by its quantity and sets the medicine's price to the refill price.
// @Tags         refills
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RefillRequest  true  "Refill Payload"
// @Success      201      {object}  response.Response{data=service.RefillResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/refills [post]
func (h *RefillHandler) CreateRefill(c *gin.Context) {
	var req service.RefillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	refill, err := h.refillService.CreateRefill(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, refill))
}

// GetRefill
// @Summary      Get refill
// @Tags         refills
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Refill ID"
// @Success      200  {object}  response.Response{data=service.RefillResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/refills/{id} [get]
func (h *RefillHandler) GetRefill(c *gin.Context) {
	refill, err := h.refillService.GetRefill(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, refill))
}

// ListRefills
// @Summary      List refills
// @Tags         refills
// @Security     BearerAuth
// @Produce      json
// @Param        medicine  query     string  false  "Only refills of this medicine"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Number of items per page (default 20)"
// @Success      200       {object}  response.Response{data=object}
// @Router       /api/refills [get]
func (h *RefillHandler) ListRefills(c *gin.Context) {
	p := pageParams(c)

	refills, total, err := h.refillService.ListRefills(c.Request.Context(), c.Query("medicine"), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Page("refills", refills, total, p.Page, p.Limit)))
}
