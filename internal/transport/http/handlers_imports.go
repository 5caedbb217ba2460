package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"regsync/internal/importer"
	"regsync/internal/taskaudit"
	dErrors "regsync/pkg/domain-errors"
	"regsync/pkg/platform/events"
	"regsync/pkg/platform/middleware/auth"
)

// importRunRequest narrows an import run to specific record types and
// passes operator filters through to the source query. An empty body
// runs every registered type.
type importRunRequest struct {
	RecordTypes []string          `json:"recordTypes,omitempty"`
	Filters     map[string]string `json:"filters,omitempty"`
}

type importRunResponse struct {
	TaskID string `json:"taskId"`
}

// handleStartImport starts an import run asynchronously. The audit
// record is created before the response so its id can be polled
// immediately; the run itself proceeds on a detached context.
func (h *Handler) handleStartImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := auth.GetCaller(ctx)

	var req importRunRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "decode import run request"))
			return
		}
	}

	task := taskaudit.NewHandle(h.tasks)
	if _, err := task.Update(ctx, taskaudit.Update{}); err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "create task audit record"))
		return
	}

	// Detach cancellation but keep request values so the run outlives
	// the HTTP request.
	runCtx := context.WithoutCancel(ctx)
	go func() {
		if _, err := h.importer.Run(runCtx, task, caller, importer.RunOptions{
			RecordTypes: req.RecordTypes,
			Filters:     req.Filters,
		}); err != nil {
			h.logger.Error("import run aborted",
				zap.String("taskId", task.ID()),
				zap.Error(err))
			failed := taskaudit.StatusFailed
			if _, uerr := task.Update(runCtx, taskaudit.Update{Status: &failed}); uerr != nil {
				h.logger.Error("task record update failed", zap.Error(uerr))
			}
			if eerr := h.events.Emit(runCtx, events.RunEvent{
				Type:       events.TypeRunFailed,
				TaskID:     task.ID(),
				DataSource: importer.DataSourceName,
				AddedBy:    caller.Name(),
			}); eerr != nil {
				h.logger.Warn("run event publish failed", zap.Error(eerr))
			}
		}
	}()

	writeJSON(w, http.StatusAccepted, importRunResponse{TaskID: task.ID()})
}

// handleGetImport returns the audit record for one import run.
func (h *Handler) handleGetImport(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	if taskID == "" {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "task id is required"))
		return
	}

	rec, err := h.tasks.Get(r.Context(), taskID)
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeNotFound, "task audit record not found"))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
