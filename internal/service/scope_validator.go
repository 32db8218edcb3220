package service

import (
	"context"

	"github.com/infracit/filetracker-api/internal/models"
	appErrors "github.com/infracit/filetracker-api/pkg/errors"
)

type folderAssignmentStore interface {
	FolderAssignments(ctx context.Context, fileIDs []int64) ([]models.FolderAssignment, error)
}

// ScopeValidator confirms that every file in a candidate set belongs to
// a folder owned by the requesting department. The check is
// all-or-nothing: one bad file rejects the whole batch, and the error
// enumerates exactly the offending ids.
type ScopeValidator struct {
	repo folderAssignmentStore
}

// NewScopeValidator constructs the validator.
func NewScopeValidator(repo folderAssignmentStore) *ScopeValidator {
	return &ScopeValidator{repo: repo}
}

// Validate checks the file set against the requesting department.
func (v *ScopeValidator) Validate(ctx context.Context, fileIDs []int64, departmentID int64) error {
	unique := dedupeIDs(fileIDs)
	if len(unique) == 0 {
		return appErrors.ErrEmptySelection
	}

	assignments, err := v.repo.FolderAssignments(ctx, unique)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve folder assignments")
	}

	found := make(map[int64]struct{}, len(assignments))
	for _, a := range assignments {
		found[a.FileID] = struct{}{}
	}
	missing := make([]int64, 0)
	for _, id := range unique {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return appErrors.WithDetails(appErrors.ErrUnknownFiles, missing)
	}

	badSeen := make(map[int64]struct{})
	bad := make([]int64, 0)
	for _, a := range assignments {
		if a.DepartmentID == departmentID {
			continue
		}
		if _, ok := badSeen[a.FileID]; ok {
			continue
		}
		badSeen[a.FileID] = struct{}{}
		bad = append(bad, a.FileID)
	}
	if len(bad) > 0 {
		return appErrors.WithDetails(appErrors.ErrCrossDepartment, bad)
	}

	return nil
}
