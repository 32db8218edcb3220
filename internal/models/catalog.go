package models

import "time"

// Folder groups tracked files under an owning department.
type Folder struct {
	FolderID     int64  `db:"folder_id" json:"folder_id"`
	FolderName   string `db:"folder_name" json:"folder_name"`
	DepartmentID int64  `db:"department_id" json:"department_id"`
}

// File is a tracked physical file. Ownership flows through its folder.
type File struct {
	FileID     int64      `db:"file_id" json:"file_id"`
	FileName   string     `db:"file_name" json:"file_name"`
	UploadedAt *time.Time `db:"uploaded_at" json:"uploaded_at,omitempty"`
}

// FolderAssignment resolves a file to its folder and owning department.
type FolderAssignment struct {
	FileID       int64 `db:"file_id"`
	FolderID     int64 `db:"folder_id"`
	DepartmentID int64 `db:"department_id"`
}

// DepartmentFile is a file row with its folder, as shown in the
// request-builder views.
type DepartmentFile struct {
	FileID     int64  `db:"file_id" json:"file_id"`
	FileName   string `db:"file_name" json:"file_name"`
	FolderID   int64  `db:"folder_id" json:"folder_id"`
	FolderName string `db:"folder_name" json:"folder_name"`
}
