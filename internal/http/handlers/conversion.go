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

type ConversionHandler struct {
	conversionService services.ConversionService
}

func NewConversionHandler(conversionService services.ConversionService) *ConversionHandler {
	return &ConversionHandler{conversionService: conversionService}
}

func (vh *ConversionHandler) List(c *gin.Context) {
	conversions, err := vh.conversionService.GetAllConversions(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"conversions": conversions})
}

func (vh *ConversionHandler) Get(c *gin.Context) {
	key, err := conversionKeyFromQuery(c)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}

	conv, err := vh.conversionService.GetConversion(c.Request.Context(), key)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, conv)
}

func (vh *ConversionHandler) Create(c *gin.Context) {
	var req struct {
		Modulo string  `json:"modulo"`
		Campo  string  `json:"campo"`
		Valor  string  `json:"valor"`
		Cadena int     `json:"cadena"`
		Domain *string `json:"domain"`
		Status *int    `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	conv := types.Conversion{
		ConversionKey: types.ConversionKey{
			Modulo: req.Modulo,
			Campo:  req.Campo,
			Valor:  req.Valor,
			Cadena: req.Cadena,
		},
		Domain: req.Domain,
		Status: req.Status,
	}
	created, err := vh.conversionService.CreateConversion(c.Request.Context(), &conv)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (vh *ConversionHandler) Update(c *gin.Context) {
	key, err := conversionKeyFromQuery(c)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}

	var req struct {
		Domain *string `json:"domain"`
		Status *int    `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	updated, err := vh.conversionService.UpdateConversion(c.Request.Context(), key, req.Domain, req.Status)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, updated)
}

func (vh *ConversionHandler) Delete(c *gin.Context) {
	key, err := conversionKeyFromQuery(c)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}

	if err := vh.conversionService.DeleteConversion(c.Request.Context(), key); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// conversionKeyFromQuery reads the composite key from query params;
// valor may contain slashes, so the key never travels in the path.
func conversionKeyFromQuery(c *gin.Context) (types.ConversionKey, error) {
	key := types.ConversionKey{
		Modulo: c.Query("modulo"),
		Campo:  c.Query("campo"),
		Valor:  c.Query("valor"),
	}
	if key.Modulo == "" || key.Campo == "" || key.Valor == "" {
		return key, apierr.Invalid("invalid_key", "modulo, campo and valor are required")
	}

	cadenaRaw := c.Query("cadena")
	if cadenaRaw == "" {
		return key, apierr.Invalid("invalid_key", "cadena is required")
	}
	cadena, err := strconv.Atoi(cadenaRaw)
	if err != nil {
		return key, apierr.Invalid("invalid_key", "cadena must be an integer: %q", cadenaRaw)
	}
	key.Cadena = cadena
	return key, nil
}
