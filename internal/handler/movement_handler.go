package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/infracit/filetracker-api/internal/dto"
	"github.com/infracit/filetracker-api/internal/models"
	appErrors "github.com/infracit/filetracker-api/pkg/errors"
	"github.com/infracit/filetracker-api/pkg/response"
)

type movementService interface {
	Create(ctx context.Context, req dto.CreateMovementRequest, actor *models.JWTClaims) (*dto.CreateMovementResponse, error)
	Approve(ctx context.Context, moveID int64, actor *models.JWTClaims) (*models.Movement, error)
	Reject(ctx context.Context, moveID int64, remark string, actor *models.JWTClaims) (*models.Movement, error)
	TakeOut(ctx context.Context, moveID int64, actor *models.JWTClaims) (*models.Movement, error)
	Return(ctx context.Context, moveID int64, actor *models.JWTClaims) (*models.Movement, error)
	List(ctx context.Context, actor *models.JWTClaims) ([]dto.MovementView, error)
	Mine(ctx context.Context, actor *models.JWTClaims) ([]dto.MovementView, error)
	PendingQueue(ctx context.Context, actor *models.JWTClaims) ([]dto.MovementView, error)
	Notifications(ctx context.Context, actor *models.JWTClaims) ([]dto.MovementView, error)
	Get(ctx context.Context, moveID int64, actor *models.JWTClaims) (*dto.MovementView, error)
	CheckDuplicate(ctx context.Context, userID, fileID int64) (bool, error)
	Update(ctx context.Context, moveID int64, req dto.UpdateMovementRequest, actor *models.JWTClaims) error
	Delete(ctx context.Context, moveID int64, actor *models.JWTClaims) error
}

// MovementHandler exposes the file movement workflow over REST.
type MovementHandler struct {
	service movementService
}

// NewMovementHandler constructs the handler.
func NewMovementHandler(service movementService) *MovementHandler {
	return &MovementHandler{service: service}
}

// Create godoc
// @Summary Submit a movement request
// @Tags Movements
// @Accept json
// @Produce json
// @Param payload body dto.CreateMovementRequest true "Movement payload"
// @Success 201 {object} response.Envelope
// @Router /movements [post]
func (h *MovementHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid movement payload"))
		return
	}
	result, err := h.service.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, result, nil)
}

// List godoc
// @Summary List movements visible to the actor
// @Tags Movements
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /movements [get]
func (h *MovementHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	views, err := h.service.List(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil)
}

// Mine godoc
// @Summary List the actor's own requests
// @Tags Movements
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /movements/mine [get]
func (h *MovementHandler) Mine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	views, err := h.service.Mine(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil)
}

// Pending godoc
// @Summary List movements awaiting a decision
// @Tags Movements
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /movements/pending [get]
func (h *MovementHandler) Pending(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	views, err := h.service.PendingQueue(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil)
}

// Notifications godoc
// @Summary List the actor's reviewed requests awaiting attention
// @Tags Movements
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /movements/notifications [get]
func (h *MovementHandler) Notifications(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	views, err := h.service.Notifications(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil)
}

// CheckDuplicate godoc
// @Summary Check for an outstanding pending request
// @Tags Movements
// @Produce json
// @Param file_id query int true "File ID"
// @Param user_id query int false "User ID, defaults to the caller"
// @Success 200 {object} response.Envelope
// @Router /movements/check-duplicate [get]
func (h *MovementHandler) CheckDuplicate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	userID := claims.UserID
	if raw := c.Query("user_id"); raw != "" {
		userID, _ = strconv.ParseInt(raw, 10, 64)
	}
	fileID, _ := strconv.ParseInt(c.Query("file_id"), 10, 64)
	pending, err := h.service.CheckDuplicate(c.Request.Context(), userID, fileID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.DuplicateCheckResponse{HasPendingRequest: pending}, nil)
}

// Get godoc
// @Summary Get one movement, enriched
// @Tags Movements
// @Produce json
// @Param id path int true "Movement ID"
// @Success 200 {object} response.Envelope
// @Router /movements/{id} [get]
func (h *MovementHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	moveID, ok := moveIDParam(c)
	if !ok {
		return
	}
	view, err := h.service.Get(c.Request.Context(), moveID, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Approve godoc
// @Summary Approve a pending movement
// @Tags Movements
// @Produce json
// @Param id path int true "Movement ID"
// @Success 200 {object} response.Envelope
// @Router /movements/{id}/approve [put]
func (h *MovementHandler) Approve(c *gin.Context) {
	h.applyTransition(c, func(ctx context.Context, moveID int64, claims *models.JWTClaims) (*models.Movement, error) {
		return h.service.Approve(ctx, moveID, claims)
	})
}

// Reject godoc
// @Summary Reject a pending movement
// @Tags Movements
// @Accept json
// @Produce json
// @Param id path int true "Movement ID"
// @Param payload body dto.RejectMovementRequest true "Rejection reason"
// @Success 200 {object} response.Envelope
// @Router /movements/{id}/reject [put]
func (h *MovementHandler) Reject(c *gin.Context) {
	var req dto.RejectMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid rejection payload"))
		return
	}
	h.applyTransition(c, func(ctx context.Context, moveID int64, claims *models.JWTClaims) (*models.Movement, error) {
		return h.service.Reject(ctx, moveID, req.Remark, claims)
	})
}

// TakeOut godoc
// @Summary Record custody of an approved movement
// @Tags Movements
// @Produce json
// @Param id path int true "Movement ID"
// @Success 200 {object} response.Envelope
// @Router /movements/{id}/take-out [put]
func (h *MovementHandler) TakeOut(c *gin.Context) {
	h.applyTransition(c, func(ctx context.Context, moveID int64, claims *models.JWTClaims) (*models.Movement, error) {
		return h.service.TakeOut(ctx, moveID, claims)
	})
}

// Return godoc
// @Summary Return a taken-out movement
// @Tags Movements
// @Produce json
// @Param id path int true "Movement ID"
// @Success 200 {object} response.Envelope
// @Router /movements/{id}/return [put]
func (h *MovementHandler) Return(c *gin.Context) {
	h.applyTransition(c, func(ctx context.Context, moveID int64, claims *models.JWTClaims) (*models.Movement, error) {
		return h.service.Return(ctx, moveID, claims)
	})
}

// Update godoc
// @Summary Patch descriptive fields of a movement
// @Tags Movements
// @Accept json
// @Produce json
// @Param id path int true "Movement ID"
// @Param payload body dto.UpdateMovementRequest true "Patch payload"
// @Success 200 {object} response.Envelope
// @Router /movements/{id} [put]
func (h *MovementHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	moveID, ok := moveIDParam(c)
	if !ok {
		return
	}
	var req dto.UpdateMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid patch payload"))
		return
	}
	if err := h.service.Update(c.Request.Context(), moveID, req, claims); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"updated": true}, nil)
}

// Delete godoc
// @Summary Remove a movement (administrative override)
// @Tags Movements
// @Param id path int true "Movement ID"
// @Success 204
// @Router /movements/{id} [delete]
func (h *MovementHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	moveID, ok := moveIDParam(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), moveID, claims); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *MovementHandler) applyTransition(c *gin.Context, apply func(ctx context.Context, moveID int64, claims *models.JWTClaims) (*models.Movement, error)) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	moveID, ok := moveIDParam(c)
	if !ok {
		return
	}
	movement, err := apply(c.Request.Context(), moveID, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, movement, nil)
}

func moveIDParam(c *gin.Context) (int64, bool) {
	moveID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || moveID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid movement id"))
		return 0, false
	}
	return moveID, true
}
