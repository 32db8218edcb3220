package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/infracit/filetracker-api/internal/models"
	appErrors "github.com/infracit/filetracker-api/pkg/errors"
	"github.com/infracit/filetracker-api/pkg/response"
)

type catalogService interface {
	FilesForDepartment(ctx context.Context, actor *models.JWTClaims) ([]models.DepartmentFile, error)
	FoldersForDepartment(ctx context.Context, actor *models.JWTClaims) ([]models.Folder, error)
}

// CatalogHandler serves the request-builder lookups.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(service catalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// Files godoc
// @Summary List files requestable by the actor's department
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /files/my-department [get]
func (h *CatalogHandler) Files(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	files, err := h.service.FilesForDepartment(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, files, nil)
}

// Folders godoc
// @Summary List folders owned by the actor's department
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /folders/my-department [get]
func (h *CatalogHandler) Folders(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	folders, err := h.service.FoldersForDepartment(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, folders, nil)
}
