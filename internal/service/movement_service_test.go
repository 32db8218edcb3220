package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/infracit/filetracker-api/internal/dto"
	"github.com/infracit/filetracker-api/internal/models"
	"github.com/infracit/filetracker-api/internal/repository"
	"github.com/infracit/filetracker-api/pkg/config"
	appErrors "github.com/infracit/filetracker-api/pkg/errors"
)

type movementStoreStub struct {
	nextID    int64
	movements map[int64]*models.Movement
	files     map[int64][]int64
	filter    models.MovementFilter
}

func newMovementStoreStub() *movementStoreStub {
	return &movementStoreStub{
		nextID:    1,
		movements: make(map[int64]*models.Movement),
		files:     make(map[int64][]int64),
	}
}

func (m *movementStoreStub) Create(ctx context.Context, movement *models.Movement, fileIDs []int64) error {
	movement.MoveID = m.nextID
	m.nextID++
	copy := *movement
	m.movements[movement.MoveID] = &copy
	m.files[movement.MoveID] = fileIDs
	return nil
}

func (m *movementStoreStub) GetByID(ctx context.Context, moveID int64) (*models.Movement, error) {
	if movement, ok := m.movements[moveID]; ok {
		copy := *movement
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *movementStoreStub) List(ctx context.Context, filter models.MovementFilter) ([]models.Movement, error) {
	m.filter = filter
	result := make([]models.Movement, 0, len(m.movements))
	for _, movement := range m.movements {
		if filter.RequestedBy != 0 && movement.RequestedBy != filter.RequestedBy {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, status := range filter.Statuses {
				if movement.StatusID == status {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		result = append(result, *movement)
	}
	return result, nil
}

func (m *movementStoreStub) FilesForMovements(ctx context.Context, moveIDs []int64) (map[int64][]models.MovementFile, error) {
	result := make(map[int64][]models.MovementFile)
	for _, moveID := range moveIDs {
		for _, fileID := range m.files[moveID] {
			result[moveID] = append(result[moveID], models.MovementFile{MoveID: moveID, FileID: fileID})
		}
	}
	return result, nil
}

func (m *movementStoreStub) Transition(ctx context.Context, moveID int64, from, to models.MovementStatus, params repository.TransitionParams) error {
	movement, ok := m.movements[moveID]
	if !ok || movement.StatusID != from {
		return sql.ErrNoRows
	}
	movement.StatusID = to
	if params.ApprovedBy != nil {
		movement.ApprovedBy = params.ApprovedBy
	}
	if params.ApprovedAt != nil {
		movement.ApprovedAt = params.ApprovedAt
	}
	if params.TakenAt != nil {
		movement.TakenAt = params.TakenAt
	}
	if params.ReturnAt != nil {
		movement.ReturnAt = params.ReturnAt
	}
	if params.Remark != nil {
		movement.Remark = params.Remark
	}
	return nil
}

func (m *movementStoreStub) HasPendingForFile(ctx context.Context, userID, fileID int64) (bool, error) {
	for moveID, movement := range m.movements {
		if movement.RequestedBy != userID || movement.StatusID != models.StatusPending {
			continue
		}
		for _, id := range m.files[moveID] {
			if id == fileID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (m *movementStoreStub) Update(ctx context.Context, moveID int64, params repository.UpdateMovementParams) error {
	movement, ok := m.movements[moveID]
	if !ok {
		return sql.ErrNoRows
	}
	if params.MoveType != nil {
		movement.MoveType = *params.MoveType
	}
	if params.Remark != nil {
		movement.Remark = params.Remark
	}
	if params.FolderID != nil {
		movement.FolderID = params.FolderID
	}
	return nil
}

func (m *movementStoreStub) Delete(ctx context.Context, moveID int64) error {
	if _, ok := m.movements[moveID]; !ok {
		return sql.ErrNoRows
	}
	delete(m.movements, moveID)
	delete(m.files, moveID)
	return nil
}

type scopeValidatorStub struct {
	err error
}

func (s *scopeValidatorStub) Validate(ctx context.Context, fileIDs []int64, departmentID int64) error {
	return s.err
}

type resolverStub struct {
	users map[int64]models.DirectoryUser
	depts map[int64]string
	err   error
}

func (r *resolverStub) ResolveUsers(ctx context.Context, ids []int64) (map[int64]models.DirectoryUser, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.users == nil {
		return map[int64]models.DirectoryUser{}, nil
	}
	return r.users, nil
}

func (r *resolverStub) ResolveDepartments(ctx context.Context, ids []int64) (map[int64]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.depts == nil {
		return map[int64]string{}, nil
	}
	return r.depts, nil
}

type transitionObserverStub struct {
	observed map[string]int
}

func (o *transitionObserverStub) ObserveTransition(transition string, ok bool) {
	if o.observed == nil {
		o.observed = make(map[string]int)
	}
	key := transition + ":error"
	if ok {
		key = transition + ":ok"
	}
	o.observed[key]++
}

type auditStub struct {
	logs []*models.AuditLog
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func deptPtr(id int64) *int64 { return &id }

func staffActor() *models.JWTClaims {
	return &models.JWTClaims{UserID: 3, Role: models.RoleStaff, DepartmentID: deptPtr(12)}
}

func adminActor() *models.JWTClaims {
	return &models.JWTClaims{UserID: 9, Role: models.RoleAdmin, DepartmentID: deptPtr(12)}
}

func hrActor() *models.JWTClaims {
	return &models.JWTClaims{UserID: 5, Role: models.RoleHR, DepartmentID: deptPtr(12)}
}

func newTestMovementService(store *movementStoreStub, audit auditLogger) *MovementService {
	return NewMovementService(store, &scopeValidatorStub{}, &resolverStub{}, audit, nil, config.MovementsConfig{
		ListLimit:       100,
		BlockDuplicates: true,
		CustodyRoles:    []string{"hr"},
	})
}

func TestMovementServiceFullLifecycle(t *testing.T) {
	store := newMovementStoreStub()
	audit := &auditStub{}
	observer := &transitionObserverStub{}
	svc := newTestMovementService(store, audit).WithTransitionMetrics(observer)
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.CreateMovementRequest{Files: []int64{7, 9}}, staffActor())
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, created.StatusID)

	approved, err := svc.Approve(ctx, created.MoveID, adminActor())
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, approved.StatusID)
	require.NotNil(t, approved.ApprovedBy)
	require.Equal(t, int64(9), *approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)

	taken, err := svc.TakeOut(ctx, created.MoveID, hrActor())
	require.NoError(t, err)
	require.Equal(t, models.StatusTakenOut, taken.StatusID)
	require.NotNil(t, taken.TakenAt)

	returned, err := svc.Return(ctx, created.MoveID, staffActor())
	require.NoError(t, err)
	require.Equal(t, models.StatusReturned, returned.StatusID)
	require.NotNil(t, returned.ReturnAt)

	require.Len(t, audit.logs, 4)
	require.Equal(t, map[string]int{
		"approve:ok":  1,
		"take_out:ok": 1,
		"return:ok":   1,
	}, observer.observed)
}

func TestMovementServiceCreateDefaultsMoveType(t *testing.T) {
	store := newMovementStoreStub()
	svc := newTestMovementService(store, nil)

	created, err := svc.Create(context.Background(), dto.CreateMovementRequest{Files: []int64{7}}, staffActor())
	require.NoError(t, err)
	require.Equal(t, "Take Out", store.movements[created.MoveID].MoveType)
}

func TestMovementServiceCreateRequiresDepartment(t *testing.T) {
	svc := newTestMovementService(newMovementStoreStub(), nil)
	actor := &models.JWTClaims{UserID: 3, Role: models.RoleStaff}

	_, err := svc.Create(context.Background(), dto.CreateMovementRequest{Files: []int64{7}}, actor)
	require.ErrorIs(t, err, appErrors.ErrNoDepartment)
}

func TestMovementServiceCreateBlocksDuplicatePending(t *testing.T) {
	store := newMovementStoreStub()
	svc := newTestMovementService(store, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, dto.CreateMovementRequest{Files: []int64{7}}, staffActor())
	require.NoError(t, err)

	_, err = svc.Create(ctx, dto.CreateMovementRequest{Files: []int64{7}}, staffActor())
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrDuplicateRequest.Code, appErr.Code)
	require.Equal(t, []int64{7}, appErr.Details)
}

func TestMovementServiceCreateAllowsDuplicateAfterDecision(t *testing.T) {
	store := newMovementStoreStub()
	svc := newTestMovementService(store, nil)
	ctx := context.Background()

	first, err := svc.Create(ctx, dto.CreateMovementRequest{Files: []int64{7}}, staffActor())
	require.NoError(t, err)
	_, err = svc.Reject(ctx, first.MoveID, "not needed", adminActor())
	require.NoError(t, err)

	_, err = svc.Create(ctx, dto.CreateMovementRequest{Files: []int64{7}}, staffActor())
	require.NoError(t, err)
}

func TestMovementServiceApproveRequiresAdministrativeRole(t *testing.T) {
	store := newMovementStoreStub()
	svc := newTestMovementService(store, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.CreateMovementRequest{Files: []int64{7}}, staffActor())
	require.NoError(t, err)

	_, err = svc.Approve(ctx, created.MoveID, staffActor())
	require.ErrorIs(t, err, appErrors.ErrForbidden)
	_, err = svc.Approve(ctx, created.MoveID, hrActor())
	require.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestMovementServiceRejectRequiresRemark(t *testing.T) {
	store := newMovementStoreStub()
	svc := newTestMovementService(store, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.CreateMovementRequest{Files: []int64{7}}, staffActor())
	require.NoError(t, err)

	_, err = svc.Reject(ctx, created.MoveID, "   ", adminActor())
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	rejected, err := svc.Reject(ctx, created.MoveID, "missing signature", adminActor())
	require.NoError(t, err)
	require.Equal(t, models.StatusRejected, rejected.StatusID)
	require.NotNil(t, rejected.Remark)
	require.Equal(t, "missing signature", *rejected.Remark)
}

func TestMovementServiceTransitionConflictsAreExplicit(t *testing.T) {
	store := newMovementStoreStub()
	svc := newTestMovementService(store, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.CreateMovementRequest{Files: []int64{7}}, staffActor())
	require.NoError(t, err)

	// Not yet approved, cannot take out.
	_, err = svc.TakeOut(ctx, created.MoveID, hrActor())
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)

	_, err = svc.Approve(ctx, created.MoveID, adminActor())
	require.NoError(t, err)

	// Approving twice conflicts.
	_, err = svc.Approve(ctx, created.MoveID, adminActor())
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)

	// Rejected and approved are mutually exclusive.
	_, err = svc.Reject(ctx, created.MoveID, "too late", adminActor())
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func TestMovementServiceTransitionMissingMovement(t *testing.T) {
	svc := newTestMovementService(newMovementStoreStub(), nil)

	_, err := svc.Approve(context.Background(), 404, adminActor())
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestMovementServiceListScopesByRole(t *testing.T) {
	store := newMovementStoreStub()
	svc := newTestMovementService(store, nil)
	ctx := context.Background()

	_, err := svc.List(ctx, adminActor())
	require.NoError(t, err)
	require.Zero(t, store.filter.RequestedBy)
	require.Zero(t, store.filter.DepartmentID)

	_, err = svc.List(ctx, hrActor())
	require.NoError(t, err)
	require.Equal(t, int64(12), store.filter.DepartmentID)

	_, err = svc.List(ctx, staffActor())
	require.NoError(t, err)
	require.Equal(t, int64(3), store.filter.RequestedBy)
}

func TestMovementServiceNotificationsFilterDecidedStatuses(t *testing.T) {
	store := newMovementStoreStub()
	svc := newTestMovementService(store, nil)

	_, err := svc.Notifications(context.Background(), staffActor())
	require.NoError(t, err)
	require.Equal(t, int64(3), store.filter.RequestedBy)
	require.ElementsMatch(t,
		[]models.MovementStatus{models.StatusRejected, models.StatusApproved},
		store.filter.Statuses)
}

func TestMovementServiceGetStaffSeesOnlyOwn(t *testing.T) {
	store := newMovementStoreStub()
	svc := newTestMovementService(store, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.CreateMovementRequest{Files: []int64{7}}, staffActor())
	require.NoError(t, err)

	other := &models.JWTClaims{UserID: 99, Role: models.RoleStaff, DepartmentID: deptPtr(12)}
	_, err = svc.Get(ctx, created.MoveID, other)
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	view, err := svc.Get(ctx, created.MoveID, staffActor())
	require.NoError(t, err)
	require.Equal(t, created.MoveID, view.MoveID)

	_, err = svc.Get(ctx, created.MoveID, adminActor())
	require.NoError(t, err)
}

func TestMovementServiceProjectionSurvivesResolverOutage(t *testing.T) {
	store := newMovementStoreStub()
	svc := NewMovementService(store, &scopeValidatorStub{}, &resolverStub{err: errors.New("directory down")}, nil, nil, config.MovementsConfig{ListLimit: 100})
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.CreateMovementRequest{Files: []int64{7}}, staffActor())
	require.NoError(t, err)

	view, err := svc.Get(ctx, created.MoveID, staffActor())
	require.NoError(t, err)
	require.Nil(t, view.RequestedByName)
	require.NotNil(t, view.Files)
	require.Len(t, view.Files, 1)
}

func TestMovementServiceProjectionResolvesNames(t *testing.T) {
	store := newMovementStoreStub()
	resolver := &resolverStub{
		users: map[int64]models.DirectoryUser{
			3: {UserID: 3, Name: "Alice Tan", DepartmentID: deptPtr(12)},
		},
		depts: map[int64]string{12: "Legal"},
	}
	svc := NewMovementService(store, &scopeValidatorStub{}, resolver, nil, nil, config.MovementsConfig{ListLimit: 100})
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.CreateMovementRequest{Files: []int64{7}}, staffActor())
	require.NoError(t, err)

	view, err := svc.Get(ctx, created.MoveID, staffActor())
	require.NoError(t, err)
	require.NotNil(t, view.RequestedByName)
	require.Equal(t, "Alice Tan", *view.RequestedByName)
	require.NotNil(t, view.DepartmentName)
	require.Equal(t, "Legal", *view.DepartmentName)
}

func TestMovementServiceCheckDuplicateValidatesInput(t *testing.T) {
	svc := newTestMovementService(newMovementStoreStub(), nil)

	_, err := svc.CheckDuplicate(context.Background(), 0, 7)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestMovementServiceUpdateAndDeleteAuthorization(t *testing.T) {
	store := newMovementStoreStub()
	svc := newTestMovementService(store, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.CreateMovementRequest{Files: []int64{7}}, staffActor())
	require.NoError(t, err)

	remark := "corrected"
	err = svc.Update(ctx, created.MoveID, dto.UpdateMovementRequest{Remark: &remark}, staffActor())
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	require.NoError(t, svc.Update(ctx, created.MoveID, dto.UpdateMovementRequest{Remark: &remark}, adminActor()))
	require.Equal(t, "corrected", *store.movements[created.MoveID].Remark)

	err = svc.Delete(ctx, created.MoveID, adminActor())
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	super := &models.JWTClaims{UserID: 1, Role: models.RoleSuperAdmin}
	require.NoError(t, svc.Delete(ctx, created.MoveID, super))
	require.Empty(t, store.movements)
}
