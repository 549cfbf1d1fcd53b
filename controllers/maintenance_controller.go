package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/hostel-server/services"
)

type MaintenanceController struct {
	maintenance *services.MaintenanceService
}

func NewMaintenanceController(m *services.MaintenanceService) *MaintenanceController {
	return &MaintenanceController{maintenance: m}
}

// GET /api/maintenance
func (mc *MaintenanceController) List(c *gin.Context) {
	rows, err := mc.maintenance.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": rows})
}

// GET /api/maintenance/:id
func (mc *MaintenanceController) Get(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		badRequest(c, err)
		return
	}
	detail, err := mc.maintenance.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}
