package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"taskproxy/internal/bootstrap/logging"
	domaintasks "taskproxy/internal/domain/tasks"
	"taskproxy/internal/errs"
	"taskproxy/internal/ports"
	"taskproxy/internal/usecase/tasks"
)

type handler struct {
	svc *tasks.Service
}

func (h *handler) landing(w http.ResponseWriter, r *http.Request) {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "landing page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"service": "taskproxy",
	})
}

func (h *handler) apply(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("job_id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "job_id query parameter is required", nil)
		return
	}

	payload, err := h.svc.Apply(r.Context(), jobID)
	if err != nil {
		h.writeFailure(r, w, err, nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":    true,
		"apply": json.RawMessage(payload),
	})
}

func (h *handler) submit(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	userID := query.Get("user_id")
	jobID := query.Get("job_id")
	jobProof := query.Get("job_proof")
	if userID == "" || jobID == "" || jobProof == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "user_id, job_id and job_proof query parameters are required", nil)
		return
	}

	result, err := h.svc.Submit(r.Context(), tasks.SubmitInput{
		UserID:   userID,
		JobID:    jobID,
		JobProof: jobProof,
	})
	if err != nil {
		// The upstream response survives local failures; attach it so the
		// caller never loses an accepted submission.
		var extra map[string]any
		if len(result.Submitted) > 0 {
			extra = map[string]any{"submitted": json.RawMessage(result.Submitted)}
		}
		h.writeFailure(r, w, err, extra)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"submitted": json.RawMessage(result.Submitted),
		"record":    result.Record,
	})
}

// tasks serves both views: user_id triggers a reconciliation pass over the
// stored submissions, task_id is a direct upstream detail passthrough.
func (h *handler) tasks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if userID := query.Get("user_id"); userID != "" {
		list, err := h.svc.ListUserTasks(r.Context(), userID)
		if err != nil {
			h.writeFailure(r, w, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":    true,
			"total": list.Total,
			"tasks": list.Tasks,
		})
		return
	}

	if taskID := query.Get("task_id"); taskID != "" {
		payload, err := h.svc.TaskDetails(r.Context(), taskID)
		if err != nil {
			h.writeFailure(r, w, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":   true,
			"task": json.RawMessage(payload),
		})
		return
	}

	writeError(w, http.StatusBadRequest, "bad_request", "user_id or task_id query parameter is required", nil)
}

// writeFailure maps the error taxonomy to status codes and a structured
// payload: machine-checkable kind plus human-readable detail.
func (h *handler) writeFailure(r *http.Request, w http.ResponseWriter, err error, extra map[string]any) {
	logging.Warn(r.Context(), "request failed",
		slog.String("path", r.URL.Path),
		slog.Any("err", errs.Loggable(err)),
	)

	var upstreamErr *ports.UpstreamError
	switch {
	case errors.Is(err, ports.ErrTokenMissing):
		writeError(w, http.StatusInternalServerError, "configuration", "server misconfigured: upstream token is not set", extra)
	case errors.As(err, &upstreamErr):
		writeError(w, upstreamErr.StatusCode, "upstream_error", string(upstreamErr.Body), extra)
	case errors.Is(err, ports.ErrUpstreamUnreachable):
		writeError(w, http.StatusBadGateway, "upstream_unreachable", err.Error(), extra)
	case errors.Is(err, domaintasks.ErrTaskIDMissing):
		writeError(w, http.StatusBadGateway, "extraction_error", err.Error(), extra)
	case errors.Is(err, domaintasks.ErrUserIDRequired),
		errors.Is(err, domaintasks.ErrJobIDRequired),
		errors.Is(err, domaintasks.ErrProofRequired),
		errors.Is(err, tasks.ErrTaskIDRequired):
		writeError(w, http.StatusBadRequest, "bad_request", err.Error(), extra)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err.Error(), extra)
	}
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, kind string, detail string, extra map[string]any) {
	body := map[string]any{
		"ok":     false,
		"kind":   kind,
		"detail": detail,
	}
	for key, value := range extra {
		body[key] = value
	}
	writeJSON(w, status, body)
}
