package service

import (
	"context"

	"github.com/infracit/filetracker-api/internal/models"
	appErrors "github.com/infracit/filetracker-api/pkg/errors"
)

type catalogStore interface {
	FilesByDepartment(ctx context.Context, departmentID int64) ([]models.DepartmentFile, error)
	FoldersByDepartment(ctx context.Context, departmentID int64) ([]models.Folder, error)
}

// CatalogService serves the request-builder lookups: which files and
// folders the actor's department may request from.
type CatalogService struct {
	repo catalogStore
}

// NewCatalogService constructs the service.
func NewCatalogService(repo catalogStore) *CatalogService {
	return &CatalogService{repo: repo}
}

// FilesForDepartment lists the files the actor may include in a request.
func (s *CatalogService) FilesForDepartment(ctx context.Context, actor *models.JWTClaims) ([]models.DepartmentFile, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.DepartmentID == nil {
		return nil, appErrors.ErrNoDepartment
	}
	files, err := s.repo.FilesByDepartment(ctx, *actor.DepartmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list department files")
	}
	if files == nil {
		files = []models.DepartmentFile{}
	}
	return files, nil
}

// FoldersForDepartment lists the folders owned by the actor's department.
func (s *CatalogService) FoldersForDepartment(ctx context.Context, actor *models.JWTClaims) ([]models.Folder, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.DepartmentID == nil {
		return nil, appErrors.ErrNoDepartment
	}
	folders, err := s.repo.FoldersByDepartment(ctx, *actor.DepartmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list department folders")
	}
	if folders == nil {
		folders = []models.Folder{}
	}
	return folders, nil
}
