package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/media-pipeline-go/internal/app"
	"github.com/yourusername/media-pipeline-go/internal/domain"
)

// DomainHandler exposes the per-domain strategy statistics
type DomainHandler struct {
	service *app.MediaService
}

// NewDomainHandler creates a new domain handler
func NewDomainHandler(service *app.MediaService) *DomainHandler {
	return &DomainHandler{service: service}
}

// ListDomains handles GET /api/v1/domains
func (h *DomainHandler) ListDomains(c *gin.Context) {
	stats := h.service.Tracker().AllStats()
	sort.Slice(stats, func(i, j int) bool { return stats[i].Domain < stats[j].Domain })

	c.JSON(http.StatusOK, gin.H{
		"count":   len(stats),
		"domains": stats,
	})
}

// GetDomain handles GET /api/v1/domains/:domain
func (h *DomainHandler) GetDomain(c *gin.Context) {
	name := c.Param("domain")
	stats, ok := h.service.Tracker().Stats("https://" + name + "/")
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "domain not tracked", Kind: domain.ErrorNotFound})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ResetDomains handles DELETE /api/v1/domains
func (h *DomainHandler) ResetDomains(c *gin.Context) {
	h.service.Tracker().Clear()
	c.JSON(http.StatusOK, gin.H{"message": "domain statistics cleared"})
}
