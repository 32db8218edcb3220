package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/infracit/filetracker-api/internal/models"
)

// CatalogRepository reads folder and file associations from the tracker
// store. Folder and file CRUD lives elsewhere; the workflow only needs
// these lookups.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// FolderAssignments resolves each file id to its folder and owning
// department in one batched query. Files without a folder association
// are simply absent from the result.
func (r *CatalogRepository) FolderAssignments(ctx context.Context, fileIDs []int64) ([]models.FolderAssignment, error) {
	if len(fileIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT ff.file_id, ff.folder_id, f.department_id
	FROM folder_files ff
	JOIN folder f ON ff.folder_id = f.folder_id
	WHERE ff.file_id IN (?)`, fileIDs)
	if err != nil {
		return nil, fmt.Errorf("build folder assignments query: %w", err)
	}

	var assignments []models.FolderAssignment
	if err := r.db.SelectContext(ctx, &assignments, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("load folder assignments: %w", err)
	}
	return assignments, nil
}

// FilesByDepartment lists the files selectable by a department, ordered
// for deterministic display.
func (r *CatalogRepository) FilesByDepartment(ctx context.Context, departmentID int64) ([]models.DepartmentFile, error) {
	const query = `SELECT f.file_id, f.file_name, fol.folder_id, fol.folder_name
	FROM file f
	JOIN folder_files ff ON ff.file_id = f.file_id
	JOIN folder fol ON fol.folder_id = ff.folder_id
	WHERE fol.department_id = $1
	ORDER BY fol.folder_name, f.file_name`
	var files []models.DepartmentFile
	if err := r.db.SelectContext(ctx, &files, query, departmentID); err != nil {
		return nil, fmt.Errorf("list department files: %w", err)
	}
	return files, nil
}

// FoldersByDepartment lists the folders owned by a department.
func (r *CatalogRepository) FoldersByDepartment(ctx context.Context, departmentID int64) ([]models.Folder, error) {
	const query = `SELECT folder_id, folder_name, department_id FROM folder WHERE department_id = $1 ORDER BY folder_name`
	var folders []models.Folder
	if err := r.db.SelectContext(ctx, &folders, query, departmentID); err != nil {
		return nil, fmt.Errorf("list department folders: %w", err)
	}
	return folders, nil
}
