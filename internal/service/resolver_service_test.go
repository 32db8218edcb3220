package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/infracit/filetracker-api/internal/models"
)

type directoryStoreStub struct {
	users       map[int64]models.DirectoryUser
	departments map[int64]string
	userCalls   [][]int64
	deptCalls   [][]int64
	err         error
}

func (d *directoryStoreStub) UsersByIDs(ctx context.Context, ids []int64) ([]models.DirectoryUser, error) {
	d.userCalls = append(d.userCalls, ids)
	if d.err != nil {
		return nil, d.err
	}
	result := make([]models.DirectoryUser, 0, len(ids))
	for _, id := range ids {
		if user, ok := d.users[id]; ok {
			result = append(result, user)
		}
	}
	return result, nil
}

func (d *directoryStoreStub) DepartmentsByIDs(ctx context.Context, ids []int64) ([]models.Department, error) {
	d.deptCalls = append(d.deptCalls, ids)
	if d.err != nil {
		return nil, d.err
	}
	result := make([]models.Department, 0, len(ids))
	for _, id := range ids {
		if name, ok := d.departments[id]; ok {
			result = append(result, models.Department{DepartmentID: id, Name: name})
		}
	}
	return result, nil
}

func TestDirectoryResolverResolveUsersDedupes(t *testing.T) {
	store := &directoryStoreStub{users: map[int64]models.DirectoryUser{
		3: {UserID: 3, Name: "Alice Tan"},
		9: {UserID: 9, Name: "Budi Santoso"},
	}}
	resolver := NewDirectoryResolver(store)

	result, err := resolver.ResolveUsers(context.Background(), []int64{3, 9, 3, 0, -1, 9})
	require.NoError(t, err)
	require.Len(t, result, 2)
	require.Equal(t, "Alice Tan", result[3].Name)
	require.Len(t, store.userCalls, 1)
	require.Equal(t, []int64{3, 9}, store.userCalls[0])
}

func TestDirectoryResolverResolveUsersEmptySkipsQuery(t *testing.T) {
	store := &directoryStoreStub{}
	resolver := NewDirectoryResolver(store)

	result, err := resolver.ResolveUsers(context.Background(), []int64{0, -5})
	require.NoError(t, err)
	require.Empty(t, result)
	require.Empty(t, store.userCalls)
}

func TestDirectoryResolverMissingUsersAbsentNotError(t *testing.T) {
	store := &directoryStoreStub{users: map[int64]models.DirectoryUser{3: {UserID: 3, Name: "Alice Tan"}}}
	resolver := NewDirectoryResolver(store)

	result, err := resolver.ResolveUsers(context.Background(), []int64{3, 404})
	require.NoError(t, err)
	require.Len(t, result, 1)
	_, found := result[404]
	require.False(t, found)
}

func TestDirectoryResolverResolveDepartments(t *testing.T) {
	store := &directoryStoreStub{departments: map[int64]string{12: "Legal"}}
	resolver := NewDirectoryResolver(store)

	result, err := resolver.ResolveDepartments(context.Background(), []int64{12, 12, 99})
	require.NoError(t, err)
	require.Equal(t, map[int64]string{12: "Legal"}, result)
	require.Len(t, store.deptCalls, 1)
}

func TestDirectoryResolverPropagatesStoreError(t *testing.T) {
	store := &directoryStoreStub{err: errors.New("directory unreachable")}
	resolver := NewDirectoryResolver(store)

	_, err := resolver.ResolveUsers(context.Background(), []int64{3})
	require.Error(t, err)
}
