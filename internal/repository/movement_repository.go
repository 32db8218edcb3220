package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/infracit/filetracker-api/internal/models"
)

// MovementRepository persists the file movement workflow in the tracker store.
type MovementRepository struct {
	db *sqlx.DB
}

// NewMovementRepository constructs the repository.
func NewMovementRepository(db *sqlx.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

// Create inserts a movement row and all of its file associations in one
// transaction. A movement without file rows must never become visible,
// so any failure rolls back the whole unit.
func (r *MovementRepository) Create(ctx context.Context, movement *models.Movement, fileIDs []int64) error {
	if movement.StatusID == 0 {
		movement.StatusID = models.StatusPending
	}
	if movement.MoveDate.IsZero() {
		movement.MoveDate = time.Now().UTC().Truncate(24 * time.Hour)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin movement tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertMovement = `INSERT INTO file_movement
	(move_type, move_date, status_id, remark, requested_by, approved_by, folder_id, approved_at, taken_at, return_at)
	VALUES ($1, $2, $3, $4, $5, NULL, $6, NULL, NULL, NULL)
	RETURNING move_id`
	if err := tx.QueryRowxContext(ctx, insertMovement,
		movement.MoveType,
		movement.MoveDate,
		movement.StatusID,
		movement.Remark,
		movement.RequestedBy,
		movement.FolderID,
	).Scan(&movement.MoveID); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}

	const insertFile = `INSERT INTO file_movement_files (move_id, file_id) VALUES ($1, $2)`
	for _, fileID := range fileIDs {
		if _, err := tx.ExecContext(ctx, insertFile, movement.MoveID, fileID); err != nil {
			return fmt.Errorf("insert movement file %d: %w", fileID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit movement tx: %w", err)
	}
	return nil
}

// GetByID fetches a movement by identifier.
func (r *MovementRepository) GetByID(ctx context.Context, moveID int64) (*models.Movement, error) {
	const query = `SELECT move_id, move_type, move_date, status_id, remark,
       requested_by, approved_by, folder_id, approved_at, taken_at, return_at
	FROM file_movement WHERE move_id = $1`
	var movement models.Movement
	if err := r.db.GetContext(ctx, &movement, query, moveID); err != nil {
		return nil, err
	}
	return &movement, nil
}

// List returns movements matching the filter, most recent first.
func (r *MovementRepository) List(ctx context.Context, filter models.MovementFilter) ([]models.Movement, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(`SELECT move_id, move_type, move_date, status_id, remark,
       requested_by, approved_by, folder_id, approved_at, taken_at, return_at FROM file_movement`)

	conditions := make([]string, 0, 3)
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status_id IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.RequestedBy != 0 {
		args = append(args, filter.RequestedBy)
		conditions = append(conditions, fmt.Sprintf("requested_by = $%d", len(args)))
	}
	if filter.DepartmentID != 0 {
		args = append(args, filter.DepartmentID)
		conditions = append(conditions, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM file_movement_files fmf
			JOIN folder_files ff ON ff.file_id = fmf.file_id
			JOIN folder f ON f.folder_id = ff.folder_id
			WHERE fmf.move_id = file_movement.move_id AND f.department_id = $%d)`, len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY move_id DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var movements []models.Movement
	if err := r.db.SelectContext(ctx, &movements, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return movements, nil
}

// FilesForMovements loads the associated files for a batch of movements
// in a single query, ordered by folder then file name.
func (r *MovementRepository) FilesForMovements(ctx context.Context, moveIDs []int64) (map[int64][]models.MovementFile, error) {
	result := make(map[int64][]models.MovementFile, len(moveIDs))
	if len(moveIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT fmf.move_id, f.file_id, f.file_name, fol.folder_id, fol.folder_name
	FROM file_movement_files fmf
	JOIN file f ON f.file_id = fmf.file_id
	JOIN folder_files ff ON ff.file_id = f.file_id
	JOIN folder fol ON fol.folder_id = ff.folder_id
	WHERE fmf.move_id IN (?)
	ORDER BY fol.folder_name, f.file_name`, moveIDs)
	if err != nil {
		return nil, fmt.Errorf("build movement files query: %w", err)
	}

	var rows []models.MovementFile
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("load movement files: %w", err)
	}
	for _, row := range rows {
		result[row.MoveID] = append(result[row.MoveID], row)
	}
	return result, nil
}

// TransitionParams groups the columns a single transition may set. Each
// field is written at most once over a movement's lifetime.
type TransitionParams struct {
	ApprovedBy *int64
	ApprovedAt *time.Time
	TakenAt    *time.Time
	ReturnAt   *time.Time
	Remark     *string
}

// Transition applies a guarded status change: the UPDATE carries the
// expected from-state in its WHERE clause so the guard and the mutation
// are one atomic statement. Returns sql.ErrNoRows when the row is
// missing or not in the expected state.
func (r *MovementRepository) Transition(ctx context.Context, moveID int64, from, to models.MovementStatus, params TransitionParams) error {
	setParts := []string{"status_id = $1"}
	args := []interface{}{to}
	appendSet := func(column string, value interface{}) {
		args = append(args, value)
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if params.ApprovedBy != nil {
		appendSet("approved_by", *params.ApprovedBy)
	}
	if params.ApprovedAt != nil {
		appendSet("approved_at", *params.ApprovedAt)
	}
	if params.TakenAt != nil {
		appendSet("taken_at", *params.TakenAt)
	}
	if params.ReturnAt != nil {
		appendSet("return_at", *params.ReturnAt)
	}
	if params.Remark != nil {
		appendSet("remark", *params.Remark)
	}

	args = append(args, moveID)
	movePos := len(args)
	args = append(args, from)
	query := fmt.Sprintf("UPDATE file_movement SET %s WHERE move_id = $%d AND status_id = $%d",
		strings.Join(setParts, ", "), movePos, movePos+1)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("transition movement: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check transition rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// HasPendingForFile answers whether the user already has an outstanding
// pending request naming the file.
func (r *MovementRepository) HasPendingForFile(ctx context.Context, userID, fileID int64) (bool, error) {
	const query = `SELECT COUNT(*) FROM file_movement fm
	JOIN file_movement_files fmf ON fm.move_id = fmf.move_id
	WHERE fm.requested_by = $1 AND fmf.file_id = $2 AND fm.status_id = $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID, fileID, models.StatusPending); err != nil {
		return false, fmt.Errorf("count pending requests: %w", err)
	}
	return count > 0, nil
}

// UpdateMovementParams groups the administratively patchable columns.
// Absent pointers leave the column untouched.
type UpdateMovementParams struct {
	MoveType *string
	Remark   *string
	FolderID *int64
}

// Update patches descriptive columns of a movement. The file set and
// lifecycle columns are deliberately not reachable from here.
func (r *MovementRepository) Update(ctx context.Context, moveID int64, params UpdateMovementParams) error {
	setParts := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)
	if params.MoveType != nil {
		args = append(args, *params.MoveType)
		setParts = append(setParts, fmt.Sprintf("move_type = $%d", len(args)))
	}
	if params.Remark != nil {
		args = append(args, *params.Remark)
		setParts = append(setParts, fmt.Sprintf("remark = $%d", len(args)))
	}
	if params.FolderID != nil {
		args = append(args, *params.FolderID)
		setParts = append(setParts, fmt.Sprintf("folder_id = $%d", len(args)))
	}
	if len(setParts) == 0 {
		return nil
	}

	args = append(args, moveID)
	query := fmt.Sprintf("UPDATE file_movement SET %s WHERE move_id = $%d", strings.Join(setParts, ", "), len(args))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update movement: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a movement and its file associations. This is the
// administrative override path, not part of the workflow.
func (r *MovementRepository) Delete(ctx context.Context, moveID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM file_movement_files WHERE move_id = $1`, moveID); err != nil {
		return fmt.Errorf("delete movement files: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM file_movement WHERE move_id = $1`, moveID)
	if err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}
