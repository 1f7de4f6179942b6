package dto

import (
	"github.com/iho/cashbook/internal/domain"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// StatusResponse reports the device role and sync indicator.
type StatusResponse struct {
	Role      string `json:"role"`
	SyncState string `json:"syncState"`
	Revision  uint64 `json:"revision"`
}

// ArchiveResponse lists archived day records, newest first.
type ArchiveResponse struct {
	Records []domain.ArchiveRecord `json:"records"`
	Total   int                    `json:"total"`
}

// DayEndResponse carries the archived day and the fresh snapshot that
// replaced it.
type DayEndResponse struct {
	Archived domain.ArchiveRecord `json:"archived"`
	Snapshot *domain.Snapshot     `json:"snapshot"`
}
