package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kreaker/cnc-backend/internal/http/response"
	"github.com/kreaker/cnc-backend/internal/services"
)

const (
	contentTypeCSV  = "text/csv"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type ExportImportHandler struct {
	exportImportService services.ExportImportService
}

func NewExportImportHandler(exportImportService services.ExportImportService) *ExportImportHandler {
	return &ExportImportHandler{exportImportService: exportImportService}
}

func (eh *ExportImportHandler) ExportCatalogCSV(c *gin.Context) {
	filter, err := parseCatalogFilter(c)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	data, err := eh.exportImportService.ExportCatalogCSV(c.Request.Context(), filter)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	sendFile(c, exportFilename("catalog", "csv"), contentTypeCSV, data)
}

func (eh *ExportImportHandler) ExportCatalogExcel(c *gin.Context) {
	filter, err := parseCatalogFilter(c)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	data, err := eh.exportImportService.ExportCatalogExcel(c.Request.Context(), filter)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	sendFile(c, exportFilename("catalog", "xlsx"), contentTypeXLSX, data)
}

func (eh *ExportImportHandler) ExportConversionsCSV(c *gin.Context) {
	filter, err := parseCatalogFilter(c)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	data, err := eh.exportImportService.ExportConversionsCSV(c.Request.Context(), filter)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	sendFile(c, exportFilename("conversions", "csv"), contentTypeCSV, data)
}

func (eh *ExportImportHandler) ExportConversionsExcel(c *gin.Context) {
	filter, err := parseCatalogFilter(c)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	data, err := eh.exportImportService.ExportConversionsExcel(c.Request.Context(), filter)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	sendFile(c, exportFilename("conversions", "xlsx"), contentTypeXLSX, data)
}

func (eh *ExportImportHandler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	ctx := c.Request.Context()
	switch ext {
	case ".csv":
		result, err := eh.exportImportService.ImportCSV(ctx, file)
		if err != nil {
			response.RespondServiceError(c, err)
			return
		}
		response.RespondOK(c, result)
	case ".xlsx", ".xls":
		result, err := eh.exportImportService.ImportExcel(ctx, file)
		if err != nil {
			response.RespondServiceError(c, err)
			return
		}
		response.RespondOK(c, result)
	default:
		response.RespondError(c, http.StatusBadRequest, "unsupported_format",
			fmt.Errorf("unsupported file extension %q, expected .csv, .xlsx or .xls", ext))
	}
}

func exportFilename(prefix, ext string) string {
	return fmt.Sprintf("%s_%s.%s", prefix, time.Now().Format("20060102_150405"), ext)
}

func sendFile(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}
