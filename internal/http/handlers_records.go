package http

import (
	"net/http"

	"spendlens/internal/core"
	"spendlens/internal/log"
)

type recordsResponse struct {
	Records []core.Record `json:"records"`
	Count   int           `json:"count"`
}

type fromDraftRequest struct {
	Draft core.ExtractionDraft `json:"draft"`
	Edits core.DraftEdits      `json:"edits"`
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	records := s.reports.List(f)
	NewJSONResponse().Body(recordsResponse{Records: records, Count: len(records)}).Write(w)
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var in core.RecordInput
	if err := DecodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	in.Category = sanitizeInput(in.Category)
	in.Description = sanitizeInput(in.Description)

	rec, err := s.ledger.Add(r.Context(), in)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/records/"+rec.ID).
		Body(rec).
		Write(w)
}

func (s *Server) handleCreateFromDraft(w http.ResponseWriter, r *http.Request) {
	var req fromDraftRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	rec, err := s.ledger.AddFromDraft(r.Context(), req.Draft, req.Edits)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/records/"+rec.ID).
		Body(rec).
		Write(w)
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	var patch core.RecordPatch
	if err := DecodeJSON(w, r, &patch); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if patch.IsEmpty() {
		BadRequestError("no fields to update").Write(w)
		return
	}

	rec, err := s.ledger.Edit(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(rec).Write(w)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	if _, err := s.ledger.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
