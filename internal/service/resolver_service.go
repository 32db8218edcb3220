package service

import (
	"context"
	"fmt"

	"github.com/infracit/filetracker-api/internal/models"
)

type directoryStore interface {
	UsersByIDs(ctx context.Context, ids []int64) ([]models.DirectoryUser, error)
	DepartmentsByIDs(ctx context.Context, ids []int64) ([]models.Department, error)
}

// DirectoryResolver batches name lookups against the remote shared
// directory. It is read-only and side-effect free; ids missing from the
// directory are simply absent from the returned map, and callers render
// a placeholder instead of failing.
type DirectoryResolver struct {
	repo directoryStore
}

// NewDirectoryResolver constructs the resolver.
func NewDirectoryResolver(repo directoryStore) *DirectoryResolver {
	return &DirectoryResolver{repo: repo}
}

// ResolveUsers maps user ids to their directory records. The input may
// contain duplicates and zero values; both are filtered before the
// single batched lookup. An empty input returns an empty map without
// touching the directory.
func (r *DirectoryResolver) ResolveUsers(ctx context.Context, ids []int64) (map[int64]models.DirectoryUser, error) {
	unique := dedupeIDs(ids)
	result := make(map[int64]models.DirectoryUser, len(unique))
	if len(unique) == 0 {
		return result, nil
	}

	users, err := r.repo.UsersByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("resolve users: %w", err)
	}
	for _, user := range users {
		result[user.UserID] = user
	}
	return result, nil
}

// ResolveDepartments maps department ids to display names, with the
// same filtering and absence semantics as ResolveUsers.
func (r *DirectoryResolver) ResolveDepartments(ctx context.Context, ids []int64) (map[int64]string, error) {
	unique := dedupeIDs(ids)
	result := make(map[int64]string, len(unique))
	if len(unique) == 0 {
		return result, nil
	}

	departments, err := r.repo.DepartmentsByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("resolve departments: %w", err)
	}
	for _, dept := range departments {
		result[dept.DepartmentID] = dept.Name
	}
	return result, nil
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}
