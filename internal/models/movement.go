package models

import "time"

// MovementStatus is the persisted lifecycle code of a movement.
//
// The numbering is fixed: historical clients stored these codes, so the
// canonical mapping below must never be reshuffled.
type MovementStatus int

const (
	StatusPending  MovementStatus = 1
	StatusRejected MovementStatus = 2
	StatusApproved MovementStatus = 3
	StatusReturned MovementStatus = 4
	StatusTakenOut MovementStatus = 5
)

// Name returns the display label for a status code.
func (s MovementStatus) Name() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusRejected:
		return "Rejected"
	case StatusApproved:
		return "Approved"
	case StatusReturned:
		return "Returned"
	case StatusTakenOut:
		return "Taken Out"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s MovementStatus) Terminal() bool {
	return s == StatusRejected || s == StatusReturned
}

// Movement is the aggregate root of the custody workflow. Its file set
// is written once at creation and never modified afterwards.
type Movement struct {
	MoveID      int64          `db:"move_id" json:"move_id"`
	MoveType    string         `db:"move_type" json:"move_type"`
	MoveDate    time.Time      `db:"move_date" json:"move_date"`
	StatusID    MovementStatus `db:"status_id" json:"status_id"`
	Remark      *string        `db:"remark" json:"remark,omitempty"`
	RequestedBy int64          `db:"requested_by" json:"requested_by"`
	ApprovedBy  *int64         `db:"approved_by" json:"approved_by,omitempty"`
	FolderID    *int64         `db:"folder_id" json:"folder_id,omitempty"`
	ApprovedAt  *time.Time     `db:"approved_at" json:"approved_at,omitempty"`
	TakenAt     *time.Time     `db:"taken_at" json:"taken_at,omitempty"`
	ReturnAt    *time.Time     `db:"return_at" json:"return_at,omitempty"`
}

// MovementFile links a movement to one tracked file, including the
// folder names needed for display.
type MovementFile struct {
	MoveID     int64  `db:"move_id" json:"-"`
	FileID     int64  `db:"file_id" json:"file_id"`
	FileName   string `db:"file_name" json:"file_name"`
	FolderID   int64  `db:"folder_id" json:"folder_id"`
	FolderName string `db:"folder_name" json:"folder_name"`
}

// MovementFilter constrains listing queries.
type MovementFilter struct {
	Statuses     []MovementStatus
	RequestedBy  int64
	DepartmentID int64
	Limit        int
	Offset       int
}
