package handler

import (
	"encoding/json"
	"net/http"

	"github.com/iho/cashbook/internal/adapter/http/dto"
	"github.com/iho/cashbook/internal/domain"
	"github.com/iho/cashbook/internal/usecase"
)

// CashbookService defines the behavior needed by CashbookHandler.
type CashbookService interface {
	Current() *domain.Snapshot
	Totals() domain.Totals
	Archive() []domain.ArchiveRecord
	Revision() uint64
	IsWriter() bool
	SetWriterRole(writer bool)
	SyncState() usecase.SyncState
	RunDayEnd() (*domain.ArchiveRecord, error)
}

// CashbookHandler handles snapshot-level HTTP requests.
type CashbookHandler struct {
	book CashbookService
}

// NewCashbookHandler creates a new CashbookHandler.
func NewCashbookHandler(book CashbookService) *CashbookHandler {
	return &CashbookHandler{book: book}
}

// Snapshot returns the current day's state.
func (h *CashbookHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.book.Current())
}

// Totals returns the derived aggregates for the current snapshot.
func (h *CashbookHandler) Totals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.book.Totals())
}

// Archive lists closed days, newest first.
func (h *CashbookHandler) Archive(w http.ResponseWriter, r *http.Request) {
	records := h.book.Archive()
	writeJSON(w, http.StatusOK, dto.ArchiveResponse{
		Records: records,
		Total:   len(records),
	})
}

// Status reports the device role and sync indicator.
func (h *CashbookHandler) Status(w http.ResponseWriter, r *http.Request) {
	role := "observer"
	if h.book.IsWriter() {
		role = "writer"
	}

	writeJSON(w, http.StatusOK, dto.StatusResponse{
		Role:      role,
		SyncState: string(h.book.SyncState()),
		Revision:  h.book.Revision(),
	})
}

// DayEnd closes the current day, archives it and opens the next one.
func (h *CashbookHandler) DayEnd(w http.ResponseWriter, r *http.Request) {
	record, err := h.book.RunDayEnd()
	if err != nil {
		writeError(w, mapDomainError(err), "failed to close day", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.DayEndResponse{
		Archived: *record,
		Snapshot: h.book.Current(),
	})
}

// SetRole switches the device between writer and observer.
func (h *CashbookHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	var req dto.RoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	h.book.SetWriterRole(req.Writer)
	h.Status(w, r)
}
