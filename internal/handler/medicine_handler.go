package handler

import (
	"net/http"
	"strconv"

	"pharmacy/internal/apperror"
	"pharmacy/internal/middleware"
	"pharmacy/internal/model"
	"pharmacy/internal/repository"
	"pharmacy/internal/service"
	"pharmacy/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const defaultMovementLimit = 50

type MedicineHandler struct {
	medicineService service.MedicineService
}

func NewMedicineHandler(medicineService service.MedicineService) *MedicineHandler {
	return &MedicineHandler{medicineService: medicineService}
}

func (h *MedicineHandler) RegisterRoutes(router *gin.RouterGroup) {
	medicines := router.Group("/medicines")
	staff := middleware.RequireRole(model.RoleAdmin, model.RolePharmacist)
	adminOnly := middleware.RequireRole(model.RoleAdmin)
	{
		medicines.GET("", staff, h.ListMedicines)
		medicines.GET("/:id", staff, h.GetMedicine)
		medicines.GET("/:id/movements", staff, h.ListMovements)
		medicines.POST("", adminOnly, h.CreateMedicine)
		medicines.PUT("/:id", adminOnly, h.UpdateMedicine)
		medicines.DELETE("/:id", adminOnly, h.DeleteMedicine)
	}
}

// ListMedicines
// @Summary      List medicines
// @Description  Searches code_no, brand_name and generic_name. ordering accepts expire_date, price or stock with an optional "-" prefix.
// @Tags         medicines
// @Security     BearerAuth
// @Produce      json
// @Param        search      query     string  false  "Search term"
// @Param        department  query     string  false  "Department ID"
// @Param        ordering    query     string  false  "Sort field"
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Number of items per page (default 20)"
// @Success      200         {object}  response.Response{data=object}
// @Failure      400         {object}  response.Response
// @Router       /api/medicines [get]
func (h *MedicineHandler) ListMedicines(c *gin.Context) {
	p := pageParams(c)
	filter := repository.MedicineFilter{
		Search:   c.Query("search"),
		Ordering: c.Query("ordering"),
		Page:     p.Page,
		Limit:    p.Limit,
	}

	if raw := c.Query("department"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, apperror.NewValidation("department", "Must be a valid UUID."))
			return
		}
		filter.DepartmentID = &id
	}

	medicines, total, err := h.medicineService.ListMedicines(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Page("medicines", medicines, total, p.Page, p.Limit)))
}

// GetMedicine
// @Summary      Get medicine
// @Tags         medicines
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Medicine ID"
// @Success      200  {object}  response.Response{data=service.MedicineResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/medicines/{id} [get]
func (h *MedicineHandler) GetMedicine(c *gin.Context) {
	medicine, err := h.medicineService.GetMedicine(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, medicine))
}

// ListMovements returns the stock history of one medicine, newest first
// @Summary      List stock movements
// @Tags         medicines
// @Security     BearerAuth
// @Produce      json
// @Param        id     path      string  true   "Medicine ID"
// @Param        limit  query     int     false  "Maximum entries (default 50)"
// @Success      200    {object}  response.Response{data=[]service.StockMovementResponse}
// @Failure      404    {object}  response.Response
// @Router       /api/medicines/{id}/movements [get]
func (h *MedicineHandler) ListMovements(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultMovementLimit)))
	if err != nil || limit < 1 {
		limit = defaultMovementLimit
	}

	movements, err := h.medicineService.ListMovements(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, movements))
}

// CreateMedicine
// @Summary      Create medicine
// @Tags         medicines
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateMedicineRequest  true  "Medicine Payload"
// @Success      201      {object}  response.Response{data=service.MedicineResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/medicines [post]
func (h *MedicineHandler) CreateMedicine(c *gin.Context) {
	var req service.CreateMedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	medicine, err := h.medicineService.CreateMedicine(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, medicine))
}

// UpdateMedicine changes catalogue metadata. Stock and price only move
// through sales and refills.
// @Summary      Update medicine
// @Tags         medicines
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Medicine ID"
// @Param        payload  body      service.UpdateMedicineRequest  true  "Medicine Payload"
// @Success      200      {object}  response.Response{data=service.MedicineResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/medicines/{id} [put]
func (h *MedicineHandler) UpdateMedicine(c *gin.Context) {
	var req service.UpdateMedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	medicine, err := h.medicineService.UpdateMedicine(c.Request.Context(), currentUser(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, medicine))
}

// DeleteMedicine
// @Summary      Delete medicine
// @Description  Refused with 409 once the medicine appears on any sale.
// @Tags         medicines
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Medicine ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/medicines/{id} [delete]
func (h *MedicineHandler) DeleteMedicine(c *gin.Context) {
	if err := h.medicineService.DeleteMedicine(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Medicine deleted"}))
}
