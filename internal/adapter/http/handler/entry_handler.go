package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/cashbook/internal/adapter/http/dto"
	"github.com/iho/cashbook/internal/domain"
)

// EntryService defines the behavior needed by EntryHandler.
type EntryService interface {
	AddOutPartyEntry() (*domain.OutPartyEntry, error)
	EditOutPartyEntry(id, field, value string) error
	RemoveOutPartyEntry(id string) error
	AddMainEntry() (*domain.MainEntry, error)
	EditMainEntry(id, field, value string) error
	RemoveMainEntry(id string) error
	Current() *domain.Snapshot
}

// EntryHandler handles entry-level HTTP requests for both tables.
type EntryHandler struct {
	book EntryService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(book EntryService) *EntryHandler {
	return &EntryHandler{book: book}
}

// CreateOutParty appends a blank out-party row.
func (h *EntryHandler) CreateOutParty(w http.ResponseWriter, r *http.Request) {
	entry, err := h.book.AddOutPartyEntry()
	if err != nil {
		writeError(w, mapDomainError(err), "failed to add entry", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

// EditOutParty patches a single field of an out-party row.
func (h *EntryHandler) EditOutParty(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing entry ID", "")
		return
	}

	var req dto.EditEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.book.EditOutPartyEntry(id, req.Field, req.Value); err != nil {
		writeError(w, mapDomainError(err), "failed to edit entry", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, h.book.Current())
}

// DeleteOutParty removes an out-party row; the remainder is renumbered.
func (h *EntryHandler) DeleteOutParty(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing entry ID", "")
		return
	}

	if err := h.book.RemoveOutPartyEntry(id); err != nil {
		writeError(w, mapDomainError(err), "failed to delete entry", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, h.book.Current())
}

// CreateMain appends a blank main-table row.
func (h *EntryHandler) CreateMain(w http.ResponseWriter, r *http.Request) {
	entry, err := h.book.AddMainEntry()
	if err != nil {
		writeError(w, mapDomainError(err), "failed to add entry", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

// EditMain patches a single field of a main-table row.
func (h *EntryHandler) EditMain(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing entry ID", "")
		return
	}

	var req dto.EditEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.book.EditMainEntry(id, req.Field, req.Value); err != nil {
		writeError(w, mapDomainError(err), "failed to edit entry", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, h.book.Current())
}

// DeleteMain removes a main-table row.
func (h *EntryHandler) DeleteMain(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing entry ID", "")
		return
	}

	if err := h.book.RemoveMainEntry(id); err != nil {
		writeError(w, mapDomainError(err), "failed to delete entry", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, h.book.Current())
}
