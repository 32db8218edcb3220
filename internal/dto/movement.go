package dto

import "github.com/infracit/filetracker-api/internal/models"

// CreateMovementRequest is the payload for submitting a file request.
type CreateMovementRequest struct {
	MoveType string  `json:"move_type"`
	Remark   string  `json:"remark"`
	FolderID *int64  `json:"folder_id"`
	Files    []int64 `json:"files"`
}

// RejectMovementRequest carries the mandatory rejection reason.
type RejectMovementRequest struct {
	Remark string `json:"remark"`
}

// UpdateMovementRequest is an administrative patch. Absent fields are
// left untouched; presence is modelled with pointers, not zero values.
type UpdateMovementRequest struct {
	MoveType *string `json:"move_type"`
	Remark   *string `json:"remark"`
	FolderID *int64  `json:"folder_id"`
}

// MovementView is a movement row enriched for display: resolved actor
// and department names plus the ordered file list.
type MovementView struct {
	models.Movement

	StatusName      string                `json:"status_name"`
	RequestedByName *string               `json:"requested_by_name"`
	ApprovedByName  *string               `json:"approved_by_name"`
	DepartmentID    *int64                `json:"department_id,omitempty"`
	DepartmentName  *string               `json:"department_name"`
	Files           []models.MovementFile `json:"files"`
}

// CreateMovementResponse acknowledges a submitted request.
type CreateMovementResponse struct {
	MoveID   int64                 `json:"move_id"`
	StatusID models.MovementStatus `json:"status_id"`
}

// DuplicateCheckResponse answers the pending-duplicate probe.
type DuplicateCheckResponse struct {
	HasPendingRequest bool `json:"hasPendingRequest"`
}
