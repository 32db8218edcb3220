package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/infracit/filetracker-api/internal/models"
	appErrors "github.com/infracit/filetracker-api/pkg/errors"
)

type assignmentStoreStub struct {
	assignments []models.FolderAssignment
	err         error
}

func (a *assignmentStoreStub) FolderAssignments(ctx context.Context, fileIDs []int64) ([]models.FolderAssignment, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.assignments, nil
}

func TestScopeValidatorEmptySelection(t *testing.T) {
	validator := NewScopeValidator(&assignmentStoreStub{})

	err := validator.Validate(context.Background(), nil, 12)
	require.ErrorIs(t, err, appErrors.ErrEmptySelection)

	err = validator.Validate(context.Background(), []int64{0, -1}, 12)
	require.ErrorIs(t, err, appErrors.ErrEmptySelection)
}

func TestScopeValidatorUnknownFilesEnumerated(t *testing.T) {
	validator := NewScopeValidator(&assignmentStoreStub{assignments: []models.FolderAssignment{
		{FileID: 7, FolderID: 2, DepartmentID: 12},
	}})

	err := validator.Validate(context.Background(), []int64{7, 404, 405}, 12)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrUnknownFiles.Code, appErr.Code)
	require.Equal(t, []int64{404, 405}, appErr.Details)
}

func TestScopeValidatorCrossDepartmentEnumerated(t *testing.T) {
	validator := NewScopeValidator(&assignmentStoreStub{assignments: []models.FolderAssignment{
		{FileID: 7, FolderID: 2, DepartmentID: 12},
		{FileID: 9, FolderID: 5, DepartmentID: 44},
		{FileID: 11, FolderID: 6, DepartmentID: 44},
	}})

	err := validator.Validate(context.Background(), []int64{7, 9, 11}, 12)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrCrossDepartment.Code, appErr.Code)
	require.Equal(t, []int64{9, 11}, appErr.Details)
}

func TestScopeValidatorAllInDepartmentPasses(t *testing.T) {
	validator := NewScopeValidator(&assignmentStoreStub{assignments: []models.FolderAssignment{
		{FileID: 7, FolderID: 2, DepartmentID: 12},
		{FileID: 9, FolderID: 2, DepartmentID: 12},
	}})

	require.NoError(t, validator.Validate(context.Background(), []int64{7, 9, 7}, 12))
}

func TestScopeValidatorStoreErrorWrapped(t *testing.T) {
	validator := NewScopeValidator(&assignmentStoreStub{err: errors.New("db down")})

	err := validator.Validate(context.Background(), []int64{7}, 12)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
}
