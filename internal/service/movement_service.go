package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/infracit/filetracker-api/internal/dto"
	"github.com/infracit/filetracker-api/internal/models"
	"github.com/infracit/filetracker-api/internal/repository"
	"github.com/infracit/filetracker-api/pkg/config"
	appErrors "github.com/infracit/filetracker-api/pkg/errors"
)

type movementStore interface {
	Create(ctx context.Context, movement *models.Movement, fileIDs []int64) error
	GetByID(ctx context.Context, moveID int64) (*models.Movement, error)
	List(ctx context.Context, filter models.MovementFilter) ([]models.Movement, error)
	FilesForMovements(ctx context.Context, moveIDs []int64) (map[int64][]models.MovementFile, error)
	Transition(ctx context.Context, moveID int64, from, to models.MovementStatus, params repository.TransitionParams) error
	HasPendingForFile(ctx context.Context, userID, fileID int64) (bool, error)
	Update(ctx context.Context, moveID int64, params repository.UpdateMovementParams) error
	Delete(ctx context.Context, moveID int64) error
}

type scopeValidator interface {
	Validate(ctx context.Context, fileIDs []int64, departmentID int64) error
}

type identityResolver interface {
	ResolveUsers(ctx context.Context, ids []int64) (map[int64]models.DirectoryUser, error)
	ResolveDepartments(ctx context.Context, ids []int64) (map[int64]string, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type transitionObserver interface {
	ObserveTransition(transition string, ok bool)
}

const defaultMoveType = "Take Out"

// MovementService owns the custody lifecycle of file movements:
// creation, the status transitions, and the enriched read views.
type MovementService struct {
	repo     movementStore
	scope    scopeValidator
	resolver identityResolver
	audit    auditLogger
	metrics  transitionObserver
	logger   *zap.Logger
	cfg      config.MovementsConfig
}

// NewMovementService constructs the service.
func NewMovementService(repo movementStore, scope scopeValidator, resolver identityResolver, audit auditLogger, logger *zap.Logger, cfg config.MovementsConfig) *MovementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MovementService{
		repo:     repo,
		scope:    scope,
		resolver: resolver,
		audit:    audit,
		logger:   logger,
		cfg:      cfg,
	}
}

// WithTransitionMetrics attaches a workflow transition counter.
func (s *MovementService) WithTransitionMetrics(metrics transitionObserver) *MovementService {
	s.metrics = metrics
	return s
}

// Create validates and stores a new movement request. The movement row
// and its file associations are written in one transaction; nothing is
// persisted when any guard fails.
func (s *MovementService) Create(ctx context.Context, req dto.CreateMovementRequest, actor *models.JWTClaims) (*dto.CreateMovementResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.DepartmentID == nil {
		return nil, appErrors.ErrNoDepartment
	}

	fileIDs := dedupeIDs(req.Files)
	if err := s.scope.Validate(ctx, fileIDs, *actor.DepartmentID); err != nil {
		return nil, err
	}

	if s.cfg.BlockDuplicates {
		for _, fileID := range fileIDs {
			pending, err := s.repo.HasPendingForFile(ctx, actor.UserID, fileID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending requests")
			}
			if pending {
				return nil, appErrors.WithDetails(appErrors.ErrDuplicateRequest, []int64{fileID})
			}
		}
	}

	moveType := strings.TrimSpace(req.MoveType)
	if moveType == "" {
		moveType = defaultMoveType
	}
	movement := &models.Movement{
		MoveType:    moveType,
		StatusID:    models.StatusPending,
		Remark:      optionalString(req.Remark),
		RequestedBy: actor.UserID,
		FolderID:    req.FolderID,
	}
	if err := s.repo.Create(ctx, movement, fileIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create movement")
	}

	s.emitAudit(ctx, actor, models.AuditActionMovementCreate, movement.MoveID, map[string]interface{}{
		"move_type": moveType,
		"files":     fileIDs,
	})
	return &dto.CreateMovementResponse{MoveID: movement.MoveID, StatusID: movement.StatusID}, nil
}

// Approve moves a pending request to Approved, recording the deciding
// administrator.
func (s *MovementService) Approve(ctx context.Context, moveID int64, actor *models.JWTClaims) (*models.Movement, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !actor.Role.Administrative() {
		return nil, appErrors.ErrForbidden
	}

	now := time.Now().UTC()
	params := repository.TransitionParams{ApprovedBy: &actor.UserID, ApprovedAt: &now}
	if err := s.transition(ctx, moveID, models.StatusPending, models.StatusApproved, params); err != nil {
		return nil, err
	}

	s.emitAudit(ctx, actor, models.AuditActionMovementReview, moveID, map[string]interface{}{"decision": "approved"})
	return s.reload(ctx, moveID)
}

// Reject moves a pending request to Rejected. A remark explaining the
// decision is mandatory.
func (s *MovementService) Reject(ctx context.Context, moveID int64, remark string, actor *models.JWTClaims) (*models.Movement, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !actor.Role.Administrative() {
		return nil, appErrors.ErrForbidden
	}
	reason := strings.TrimSpace(remark)
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a rejection remark is required")
	}

	now := time.Now().UTC()
	params := repository.TransitionParams{ApprovedBy: &actor.UserID, ApprovedAt: &now, Remark: &reason}
	if err := s.transition(ctx, moveID, models.StatusPending, models.StatusRejected, params); err != nil {
		return nil, err
	}

	s.emitAudit(ctx, actor, models.AuditActionMovementReview, moveID, map[string]interface{}{"decision": "rejected", "remark": reason})
	return s.reload(ctx, moveID)
}

// TakeOut records physical custody of an approved request. Only custody
// roles (and administrators) may execute it.
func (s *MovementService) TakeOut(ctx context.Context, moveID int64, actor *models.JWTClaims) (*models.Movement, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !s.custodyRole(actor.Role) {
		return nil, appErrors.ErrForbidden
	}

	now := time.Now().UTC()
	if err := s.transition(ctx, moveID, models.StatusApproved, models.StatusTakenOut, repository.TransitionParams{TakenAt: &now}); err != nil {
		return nil, err
	}

	s.emitAudit(ctx, actor, models.AuditActionMovementCustody, moveID, map[string]interface{}{"action": "take_out"})
	return s.reload(ctx, moveID)
}

// Return closes the loop on a taken-out movement.
func (s *MovementService) Return(ctx context.Context, moveID int64, actor *models.JWTClaims) (*models.Movement, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	now := time.Now().UTC()
	if err := s.transition(ctx, moveID, models.StatusTakenOut, models.StatusReturned, repository.TransitionParams{ReturnAt: &now}); err != nil {
		return nil, err
	}

	s.emitAudit(ctx, actor, models.AuditActionMovementCustody, moveID, map[string]interface{}{"action": "return"})
	return s.reload(ctx, moveID)
}

// List returns the movement view matching the actor's role: admins see
// everything, custody roles see their department's movements, everyone
// else sees their own requests.
func (s *MovementService) List(ctx context.Context, actor *models.JWTClaims) ([]dto.MovementView, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	filter := models.MovementFilter{Limit: s.cfg.ListLimit}
	switch {
	case actor.Role.Administrative():
		// unfiltered
	case s.custodyRole(actor.Role):
		if actor.DepartmentID == nil {
			return nil, appErrors.ErrNoDepartment
		}
		filter.DepartmentID = *actor.DepartmentID
	default:
		filter.RequestedBy = actor.UserID
	}

	movements, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list movements")
	}
	return s.project(ctx, movements)
}

// Mine returns the actor's own requests, newest first.
func (s *MovementService) Mine(ctx context.Context, actor *models.JWTClaims) ([]dto.MovementView, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	movements, err := s.repo.List(ctx, models.MovementFilter{RequestedBy: actor.UserID, Limit: s.cfg.ListLimit})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list movements")
	}
	return s.project(ctx, movements)
}

// PendingQueue lists all movements awaiting a decision.
func (s *MovementService) PendingQueue(ctx context.Context, actor *models.JWTClaims) ([]dto.MovementView, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	movements, err := s.repo.List(ctx, models.MovementFilter{
		Statuses: []models.MovementStatus{models.StatusPending},
		Limit:    s.cfg.ListLimit,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending movements")
	}
	return s.project(ctx, movements)
}

// Notifications lists the actor's movements awaiting their attention,
// i.e. recently approved or rejected requests.
func (s *MovementService) Notifications(ctx context.Context, actor *models.JWTClaims) ([]dto.MovementView, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	movements, err := s.repo.List(ctx, models.MovementFilter{
		RequestedBy: actor.UserID,
		Statuses:    []models.MovementStatus{models.StatusRejected, models.StatusApproved},
		Limit:       s.cfg.ListLimit,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return s.project(ctx, movements)
}

// Get returns one enriched movement. Staff may only see their own.
func (s *MovementService) Get(ctx context.Context, moveID int64, actor *models.JWTClaims) (*dto.MovementView, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	movement, err := s.repo.GetByID(ctx, moveID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load movement")
	}
	if !actor.Role.Administrative() && !s.custodyRole(actor.Role) && movement.RequestedBy != actor.UserID {
		return nil, appErrors.ErrForbidden
	}

	views, err := s.project(ctx, []models.Movement{*movement})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// CheckDuplicate answers whether a user already has a pending request
// for a file.
func (s *MovementService) CheckDuplicate(ctx context.Context, userID, fileID int64) (bool, error) {
	if userID <= 0 || fileID <= 0 {
		return false, appErrors.Clone(appErrors.ErrValidation, "user_id and file_id are required")
	}
	pending, err := s.repo.HasPendingForFile(ctx, userID, fileID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending requests")
	}
	return pending, nil
}

// Update patches descriptive fields of a movement. The file set and
// lifecycle columns are not touchable through this path.
func (s *MovementService) Update(ctx context.Context, moveID int64, req dto.UpdateMovementRequest, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if !actor.Role.Administrative() {
		return appErrors.ErrForbidden
	}

	params := repository.UpdateMovementParams{
		MoveType: req.MoveType,
		Remark:   req.Remark,
		FolderID: req.FolderID,
	}
	if err := s.repo.Update(ctx, moveID, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update movement")
	}
	s.emitAudit(ctx, actor, models.AuditActionMovementUpdate, moveID, req)
	return nil
}

// Delete removes a movement entirely. An administrative override, not a
// workflow transition.
func (s *MovementService) Delete(ctx context.Context, moveID int64, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleSuperAdmin {
		return appErrors.ErrForbidden
	}
	if err := s.repo.Delete(ctx, moveID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete movement")
	}
	s.emitAudit(ctx, actor, models.AuditActionMovementDelete, moveID, nil)
	return nil
}

// transition runs one guarded status change. A zero-row update is
// disambiguated by re-reading: a missing row is NotFound, anything else
// means the movement was not in the required state.
func (s *MovementService) transition(ctx context.Context, moveID int64, from, to models.MovementStatus, params repository.TransitionParams) error {
	err := s.repo.Transition(ctx, moveID, from, to, params)
	if s.metrics != nil {
		s.metrics.ObserveTransition(transitionLabel(to), err == nil)
	}
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply transition")
	}

	current, getErr := s.repo.GetByID(ctx, moveID)
	if getErr != nil {
		if errors.Is(getErr, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(getErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load movement")
	}
	return appErrors.Clone(appErrors.ErrInvalidTransition,
		fmt.Sprintf("movement is %s, expected %s", current.StatusID.Name(), from.Name()))
}

func (s *MovementService) reload(ctx context.Context, moveID int64) (*models.Movement, error) {
	movement, err := s.repo.GetByID(ctx, moveID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload movement")
	}
	return movement, nil
}

// project assembles enriched views: resolved actor and department names
// plus the per-movement file lists, fetched in single batched queries.
// A name the directory no longer knows renders as null, never an error.
func (s *MovementService) project(ctx context.Context, movements []models.Movement) ([]dto.MovementView, error) {
	views := make([]dto.MovementView, 0, len(movements))
	if len(movements) == 0 {
		return views, nil
	}

	moveIDs := make([]int64, 0, len(movements))
	userIDs := make([]int64, 0, len(movements)*2)
	for _, m := range movements {
		moveIDs = append(moveIDs, m.MoveID)
		userIDs = append(userIDs, m.RequestedBy)
		if m.ApprovedBy != nil {
			userIDs = append(userIDs, *m.ApprovedBy)
		}
	}

	userMap, err := s.resolver.ResolveUsers(ctx, userIDs)
	if err != nil {
		s.logger.Warn("user name resolution failed", zap.Error(err))
		userMap = map[int64]models.DirectoryUser{}
	}

	deptIDs := make([]int64, 0, len(movements))
	for _, user := range userMap {
		if user.DepartmentID != nil {
			deptIDs = append(deptIDs, *user.DepartmentID)
		}
	}
	deptMap, err := s.resolver.ResolveDepartments(ctx, deptIDs)
	if err != nil {
		s.logger.Warn("department name resolution failed", zap.Error(err))
		deptMap = map[int64]string{}
	}

	fileMap, err := s.repo.FilesForMovements(ctx, moveIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load movement files")
	}

	for _, m := range movements {
		view := dto.MovementView{
			Movement:   m,
			StatusName: m.StatusID.Name(),
			Files:      fileMap[m.MoveID],
		}
		if view.Files == nil {
			view.Files = []models.MovementFile{}
		}
		if requester, ok := userMap[m.RequestedBy]; ok {
			name := requester.Name
			view.RequestedByName = &name
			view.DepartmentID = requester.DepartmentID
			if requester.DepartmentID != nil {
				if deptName, ok := deptMap[*requester.DepartmentID]; ok {
					view.DepartmentName = &deptName
				}
			}
		}
		if m.ApprovedBy != nil {
			if approver, ok := userMap[*m.ApprovedBy]; ok {
				name := approver.Name
				view.ApprovedByName = &name
			}
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *MovementService) custodyRole(role models.UserRole) bool {
	if role.Administrative() {
		return true
	}
	for _, custody := range s.cfg.CustodyRoles {
		if string(role) == custody {
			return true
		}
	}
	return false
}

func (s *MovementService) emitAudit(ctx context.Context, actor *models.JWTClaims, action string, moveID int64, payload interface{}) {
	if s.audit == nil {
		return
	}
	resourceID := fmt.Sprintf("%d", moveID)
	log := &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   "file_movement",
		ResourceID: &resourceID,
		IPAddress:  "system",
		UserAgent:  "movement-service",
	}
	if payload != nil {
		if body, err := json.Marshal(payload); err == nil {
			log.NewValues = body
		}
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func transitionLabel(to models.MovementStatus) string {
	switch to {
	case models.StatusApproved:
		return "approve"
	case models.StatusRejected:
		return "reject"
	case models.StatusTakenOut:
		return "take_out"
	case models.StatusReturned:
		return "return"
	default:
		return "unknown"
	}
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
