package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/infracit/filetracker-api/internal/models"
)

// DirectoryRepository reads users and departments from the remote
// shared directory. It is strictly read-only: the tracker never writes
// to the directory store.
type DirectoryRepository struct {
	db *sqlx.DB
}

// NewDirectoryRepository constructs the repository.
func NewDirectoryRepository(db *sqlx.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// UsersByIDs fetches directory users for a batch of ids. Ids not present
// in the directory are absent from the result, not an error.
func (r *DirectoryRepository) UsersByIDs(ctx context.Context, ids []int64) ([]models.DirectoryUser, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT user_id, usr_name, usr_email, usr_dept, usr_role, password_hash
	FROM users WHERE user_id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build users query: %w", err)
	}

	var users []models.DirectoryUser
	if err := r.db.SelectContext(ctx, &users, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("load directory users: %w", err)
	}
	return users, nil
}

// DepartmentsByIDs fetches department reference rows for a batch of ids.
func (r *DirectoryRepository) DepartmentsByIDs(ctx context.Context, ids []int64) ([]models.Department, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT department_id, department FROM tref_department WHERE department_id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build departments query: %w", err)
	}

	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("load departments: %w", err)
	}
	return departments, nil
}

// FindUserByEmail looks up a directory user for login.
func (r *DirectoryRepository) FindUserByEmail(ctx context.Context, email string) (*models.DirectoryUser, error) {
	const query = `SELECT user_id, usr_name, usr_email, usr_dept, usr_role, password_hash
	FROM users WHERE usr_email = $1`
	var user models.DirectoryUser
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}
