package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"neowatch/internal/export"
	"neowatch/internal/filters"
	"neowatch/internal/models"
	"neowatch/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const limitKey = "limit"

var criteriaKeys = []string{
	filters.KeyDate,
	filters.KeyStartDate,
	filters.KeyEndDate,
	filters.KeyDistanceMin,
	filters.KeyDistanceMax,
	filters.KeyVelocityMin,
	filters.KeyVelocityMax,
	filters.KeyDiameterMin,
	filters.KeyDiameterMax,
	filters.KeyHazardous,
}

type NEOHandler struct {
	service service.NEOService
	log     *zap.Logger
}

func NewNEOHandler(service service.NEOService, log *zap.Logger) *NEOHandler {
	return &NEOHandler{service: service, log: log}
}

type neoResponse struct {
	NEO        *models.NearEarthObject `json:"neo"`
	Approaches []export.Row            `json:"approaches"`
}

func newNEOResponse(neo *models.NearEarthObject) neoResponse {
	rows := make([]export.Row, 0, len(neo.Approaches))
	for _, ca := range neo.Approaches {
		rows = append(rows, export.NewRow(ca))
	}
	return neoResponse{NEO: neo, Approaches: rows}
}

// GetNEO handles GET /neos/:designation.
func (h *NEOHandler) GetNEO(c *gin.Context) {
	designation := c.Param("designation")

	neo, ok := h.service.GetByDesignation(c.Request.Context(), designation)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "neo not found",
			"message": "no matching NEO for designation " + strconv.Quote(designation),
		})
		return
	}

	c.JSON(http.StatusOK, newNEOResponse(neo))
}

// FindNEO handles GET /neos?name=.
func (h *NEOHandler) FindNEO(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "missing parameter",
			"message": "name is required",
		})
		return
	}

	neo, ok := h.service.GetByName(c.Request.Context(), name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "neo not found",
			"message": "no matching NEO for name " + strconv.Quote(name),
		})
		return
	}

	c.JSON(http.StatusOK, newNEOResponse(neo))
}

// GetApproaches handles GET /approaches.
func (h *NEOHandler) GetApproaches(c *gin.Context) {
	criteria, limit, ok := h.parseQuery(c)
	if !ok {
		return
	}

	result, err := h.service.QueryApproaches(c.Request.Context(), criteria, limit)
	if err != nil {
		h.fail(c, err, "failed to query approaches")
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportApproaches handles GET /approaches/export.
func (h *NEOHandler) ExportApproaches(c *gin.Context) {
	format, err := export.ParseFormat(c.DefaultQuery("format", string(export.FormatCSV)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid format",
			"message": err.Error(),
		})
		return
	}

	criteria, limit, ok := h.parseQuery(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if _, err := h.service.ExportApproaches(c.Request.Context(), &buf, format, criteria, limit); err != nil {
		h.fail(c, err, "failed to export approaches")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="approaches.`+string(format)+`"`)
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (h *NEOHandler) parseQuery(c *gin.Context) (filters.Criteria, int, bool) {
	opts := make(map[string]string, len(criteriaKeys))
	for _, key := range criteriaKeys {
		if v, ok := c.GetQuery(key); ok {
			opts[key] = v
		}
	}

	criteria, err := filters.ParseCriteria(opts)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid criteria",
			"message": err.Error(),
		})
		return filters.Criteria{}, 0, false
	}

	limit := 0
	if limitStr := c.Query(limitKey); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid criteria",
				"message": "limit must be a non-negative integer",
			})
			return filters.Criteria{}, 0, false
		}
		limit = l
	}

	return criteria, limit, true
}

func (h *NEOHandler) fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, filters.ErrInvalidCriteria), errors.Is(err, export.ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid criteria",
			"message": err.Error(),
		})
	default:
		h.log.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   msg,
			"message": err.Error(),
		})
	}
}
