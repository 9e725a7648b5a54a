// Package api exposes the timespan operations over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Tiliavir/timebook/internal/model"
	"github.com/Tiliavir/timebook/internal/report"
	"github.com/Tiliavir/timebook/internal/service"
	"github.com/Tiliavir/timebook/internal/timecalc"
)

// Handler coordinates HTTP requests with the timespan service.
type Handler struct {
	service *service.Service
	today   func() time.Time
}

// NewHandler builds a Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{service: svc, today: timecalc.Today}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", health)
	mux.HandleFunc("GET /v1/timespans", h.listTimespans)
	mux.HandleFunc("POST /v1/timespans", h.createTimespan)
	mux.HandleFunc("GET /v1/timespans/{id}", h.getTimespan)
	mux.HandleFunc("PATCH /v1/timespans/{id}", h.updateTimespan)
	mux.HandleFunc("DELETE /v1/timespans/{id}", h.deleteTimespan)
	mux.HandleFunc("POST /v1/timespans/{id}/toggle", h.toggleTimespan)
	mux.HandleFunc("GET /v1/archived", h.listArchived)
	mux.HandleFunc("POST /v1/prune", h.prune)
	mux.HandleFunc("GET /v1/report", h.report)
}

func health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *Handler) listTimespans(w http.ResponseWriter, r *http.Request) {
	day := h.today()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := timecalc.ParseDate(raw)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		day = parsed
	}

	items, err := h.service.ListByDay(r.Context(), day)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	total := report.SumDurations(items)
	writeJSON(w, http.StatusOK, DayResponse{
		Date:         day.Format(timecalc.DateLayout),
		Items:        ToViews(items),
		TotalSeconds: int64(total / time.Second),
		Total:        timecalc.FormatDuration(total, false),
	})
}

func (h *Handler) createTimespan(w http.ResponseWriter, r *http.Request) {
	var req CreateTimespanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	in, err := req.toInput()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	ts, err := h.service.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toView(ts))
}

func (h *Handler) getTimespan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ts, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toView(ts))
}

func (h *Handler) updateTimespan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateTimespanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	current, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	patch, err := req.toPatch(current)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	ts, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toView(ts))
}

func (h *Handler) deleteTimespan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) toggleTimespan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ts, err := h.service.ToggleArchived(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toView(ts))
}

func (h *Handler) listArchived(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListArchived(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Items: ToViews(items)})
}

func (h *Handler) prune(w http.ResponseWriter, r *http.Request) {
	confirm := false
	if raw := r.URL.Query().Get("confirm"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_format", "confirm must be a boolean")
			return
		}
		confirm = parsed
	}

	res, err := h.service.PruneArchived(r.Context(), confirm)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PruneResponse{
		DryRun: res.DryRun,
		Count:  len(res.Items),
		Items:  ToViews(res.Items),
	})
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	days, err := h.service.Report(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := make([]ReportDay, 0, len(days))
	for _, d := range days {
		total := d.Total()
		resp = append(resp, ReportDay{
			Date:         d.Date.Format(timecalc.DateLayout),
			TotalSeconds: int64(total / time.Second),
			Total:        timecalc.FormatDuration(total, false),
			Items:        ToViews(d.Timespans),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_format", "invalid timespan id "+strconv.Quote(raw))
		return 0, false
	}
	return id, true
}

// CreateTimespanRequest is the payload for POST /v1/timespans.
type CreateTimespanRequest struct {
	Description string `json:"description"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

func (r CreateTimespanRequest) toInput() (service.CreateInput, error) {
	day, err := timecalc.ParseDate(r.Date)
	if err != nil {
		return service.CreateInput{}, err
	}
	start, err := timecalc.At(day, r.StartTime)
	if err != nil {
		return service.CreateInput{}, err
	}
	end, err := timecalc.At(day, r.EndTime)
	if err != nil {
		return service.CreateInput{}, err
	}
	return service.CreateInput{
		Description: strings.TrimSpace(r.Description),
		StartAt:     start,
		EndAt:       end,
	}, nil
}

// UpdateTimespanRequest is the payload for PATCH /v1/timespans/{id}.
// Absent fields keep their stored value.
type UpdateTimespanRequest struct {
	Description *string `json:"description"`
	Date        *string `json:"date"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	IsArchived  *bool   `json:"is_archived"`
}

// toPatch applies the date and time-of-day fields to the stored bounds of
// current. A moved date shifts both bounds by the same number of days.
func (r UpdateTimespanRequest) toPatch(current model.Timespan) (model.Patch, error) {
	var patch model.Patch
	if r.Description != nil {
		desc := strings.TrimSpace(*r.Description)
		patch.Description = &desc
	}
	patch.IsArchived = r.IsArchived
	if r.Date == nil && r.StartTime == nil && r.EndTime == nil {
		return patch, nil
	}

	var (
		day                  time.Time
		startClock, endClock string
	)
	if r.Date != nil {
		parsed, err := timecalc.ParseDate(*r.Date)
		if err != nil {
			return model.Patch{}, err
		}
		day = parsed
	}
	if r.StartTime != nil {
		if startClock = *r.StartTime; startClock == "" {
			return model.Patch{}, &timecalc.FormatError{Field: "start_time", Value: ""}
		}
	}
	if r.EndTime != nil {
		if endClock = *r.EndTime; endClock == "" {
			return model.Patch{}, &timecalc.FormatError{Field: "end_time", Value: ""}
		}
	}
	start, end, err := current.Reschedule(day, startClock, endClock)
	if err != nil {
		return model.Patch{}, err
	}
	if r.Date != nil || r.StartTime != nil {
		patch.StartAt = &start
	}
	if r.Date != nil || r.EndTime != nil {
		patch.EndAt = &end
	}
	return patch, nil
}

// TimespanView is the JSON shape of one timespan.
type TimespanView struct {
	ID              int64  `json:"id"`
	Description     string `json:"description"`
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationSeconds int64  `json:"duration_seconds"`
	Duration        string `json:"duration"`
	IsArchived      bool   `json:"is_archived"`
}

// DayResponse is the body of GET /v1/timespans.
type DayResponse struct {
	Date         string         `json:"date"`
	Items        []TimespanView `json:"items"`
	TotalSeconds int64          `json:"total_seconds"`
	Total        string         `json:"total"`
}

// ListResponse packages list results.
type ListResponse struct {
	Items []TimespanView `json:"items"`
}

// PruneResponse reports the archived records found and whether they were
// deleted.
type PruneResponse struct {
	DryRun bool           `json:"dry_run"`
	Count  int            `json:"count"`
	Items  []TimespanView `json:"items"`
}

// ReportDay is one day of GET /v1/report.
type ReportDay struct {
	Date         string         `json:"date"`
	TotalSeconds int64          `json:"total_seconds"`
	Total        string         `json:"total"`
	Items        []TimespanView `json:"items"`
}

func toView(ts model.Timespan) TimespanView {
	d := ts.Duration()
	return TimespanView{
		ID:              ts.ID,
		Description:     ts.Description,
		Date:            ts.StartAt.Format(timecalc.DateLayout),
		StartTime:       ts.StartTime(),
		EndTime:         ts.EndTime(),
		DurationSeconds: int64(d / time.Second),
		Duration:        timecalc.FormatDuration(d, false),
		IsArchived:      ts.IsArchived,
	}
}

// ToViews converts records into their JSON shape; never nil.
func ToViews(items []model.Timespan) []TimespanView {
	out := make([]TimespanView, 0, len(items))
	for _, ts := range items {
		out = append(out, toView(ts))
	}
	return out
}

// writeServiceError maps core error kinds onto status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	var fe *timecalc.FormatError
	var ve *model.ValidationError
	switch {
	case errors.As(err, &fe):
		writeError(w, http.StatusBadRequest, "invalid_format", err.Error())
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
