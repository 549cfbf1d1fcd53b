package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/hostel-server/services"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExportController struct {
	exports *services.ExportService
}

func NewExportController(exports *services.ExportService) *ExportController {
	return &ExportController{exports: exports}
}

// GET /api/exports/roster
func (ec *ExportController) DownloadRoster(c *gin.Context) {
	meta, data, err := ec.exports.BuildRoster(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, meta.FileName))
	c.Data(http.StatusOK, xlsxMIME, data)
}

// POST /api/exports/roster
func (ec *ExportController) PublishRoster(c *gin.Context) {
	meta, err := ec.exports.PublishRoster(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, meta)
}
