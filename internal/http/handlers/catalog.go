package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kreaker/cnc-backend/internal/apierr"
	"github.com/kreaker/cnc-backend/internal/http/response"
	"github.com/kreaker/cnc-backend/internal/services"
	"github.com/kreaker/cnc-backend/internal/types"
)

type CatalogHandler struct {
	catalogService services.CatalogService
	editingEnabled bool
}

func NewCatalogHandler(catalogService services.CatalogService, editingEnabled bool) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService, editingEnabled: editingEnabled}
}

func (ch *CatalogHandler) List(c *gin.Context) {
	filter, err := parseCatalogFilter(c)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	// The list view always scopes to one chain; default matches the UI.
	if filter.SbsNo == nil {
		defaultSbsNo := 1
		filter.SbsNo = &defaultSbsNo
	}

	page, err := queryInt(c, "page", 0)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	size, err := queryInt(c, "size", 10)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}

	content, total, err := ch.catalogService.GetUnifiedCatalogPage(c.Request.Context(), filter, page, size)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"content":        content,
		"total_elements": total,
		"page":           page,
		"size":           size,
	})
}

func (ch *CatalogHandler) FilterOptions(c *gin.Context) {
	ctx := c.Request.Context()

	modulos, err := ch.catalogService.DistinctModulos(ctx)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	campos, err := ch.catalogService.DistinctCampos(ctx)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	sbsNos, err := ch.catalogService.DistinctSbsNos(ctx)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	camposByModulo, err := ch.catalogService.CamposByModulo(ctx)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}

	response.RespondOK(c, gin.H{
		"modulos":          modulos,
		"campos":           campos,
		"sbs_nos":          sbsNos,
		"campos_by_modulo": camposByModulo,
	})
}

func (ch *CatalogHandler) Get(c *gin.Context) {
	source, err := types.ParseCatalogSource(c.Param("source"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_source", err)
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}

	item, err := ch.catalogService.GetCatalogItem(c.Request.Context(), source, id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, item)
}

func (ch *CatalogHandler) CreateLegacy(c *gin.Context) {
	if !ch.editingEnabled {
		response.RespondError(c, http.StatusForbidden, "editing_disabled", apierr.Forbidden("editing_disabled", "catalog editing is disabled"))
		return
	}

	var item types.CatalogItem
	if err := c.ShouldBindJSON(&item); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	created, err := ch.catalogService.CreateLegacyCatalog(c.Request.Context(), &item)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (ch *CatalogHandler) UpdateLegacy(c *gin.Context) {
	if !ch.editingEnabled {
		response.RespondError(c, http.StatusForbidden, "editing_disabled", apierr.Forbidden("editing_disabled", "catalog editing is disabled"))
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var item types.CatalogItem
	if err := c.ShouldBindJSON(&item); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	updated, err := ch.catalogService.UpdateLegacyCatalog(c.Request.Context(), id, &item)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, updated)
}

func (ch *CatalogHandler) DeleteLegacy(c *gin.Context) {
	if !ch.editingEnabled {
		response.RespondError(c, http.StatusForbidden, "editing_disabled", apierr.Forbidden("editing_disabled", "catalog editing is disabled"))
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := ch.catalogService.DeleteLegacyCatalog(c.Request.Context(), id); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// parseCatalogFilter builds the unified-view filter from query params;
// absent params stay nil and match everything.
func parseCatalogFilter(c *gin.Context) (*types.CatalogFilter, error) {
	filter := &types.CatalogFilter{}

	if modulo := c.Query("modulo"); modulo != "" {
		filter.Modulo = &modulo
	}
	if campo := c.Query("campo"); campo != "" {
		filter.Campo = &campo
	}
	if sbsNoRaw := c.Query("sbsNo"); sbsNoRaw != "" {
		sbsNo, err := strconv.Atoi(sbsNoRaw)
		if err != nil {
			return nil, apierr.Invalid("invalid_filter", "sbsNo must be an integer: %q", sbsNoRaw)
		}
		filter.SbsNo = &sbsNo
	}
	if sourceRaw := c.Query("source"); sourceRaw != "" {
		source, err := types.ParseCatalogSource(sourceRaw)
		if err != nil {
			return nil, apierr.Invalid("invalid_filter", "%v", err)
		}
		filter.Source = &source
	}
	if hasConvRaw := c.Query("hasConversion"); hasConvRaw != "" {
		hasConv, err := strconv.ParseBool(hasConvRaw)
		if err != nil {
			return nil, apierr.Invalid("invalid_filter", "hasConversion must be a boolean: %q", hasConvRaw)
		}
		filter.HasConversion = &hasConv
	}
	filter.SearchTerm = c.Query("searchTerm")

	return filter, nil
}

func queryInt(c *gin.Context, name string, defaultVal int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return defaultVal, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierr.Invalid("invalid_query", "%s must be an integer: %q", name, raw)
	}
	return val, nil
}
