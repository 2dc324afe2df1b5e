package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/koopa0/artshop/internal/logs"
	apperrors "github.com/koopa0/artshop/pkg/errors"
)

type generateResponse struct {
	ReportID string `json:"reportId"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

// generateReport 建立日誌報表任務，立即回應 202
func (h *Handler) generateReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	date, err := time.Parse(logs.DateLayout, q.Get("date"))
	if err != nil {
		h.respondError(w, r, apperrors.InvalidInput("Invalid date: %s (expected YYYY-MM-DD)", q.Get("date")))
		return
	}
	hour, err := strconv.Atoi(q.Get("hour"))
	if err != nil {
		h.respondError(w, r, apperrors.InvalidInput("Invalid hour: %s", q.Get("hour")))
		return
	}

	report, err := h.reports.Generate(date, hour)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusAccepted, generateResponse{
		ReportID: report.ID,
		Status:   report.Status,
		Message:  "Report generation started",
	})
}

func (h *Handler) reportStatus(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.Status(r.PathValue("reportId"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, report)
}

// downloadReport 以附件形式回傳報表，下載後伺服器上的檔案即刪除
func (h *Handler) downloadReport(w http.ResponseWriter, r *http.Request) {
	content, filename, err := h.reports.Download(r.PathValue("reportId"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write report", "error", err)
	}
}

func (h *Handler) totalVisits(w http.ResponseWriter, r *http.Request) {
	total, err := h.visits.Total(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, total)
}

func (h *Handler) allVisits(w http.ResponseWriter, r *http.Request) {
	all, err := h.visits.All(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, all)
}

func (h *Handler) endpointVisits(w http.ResponseWriter, r *http.Request) {
	endpoint, err := requiredQuery(r, "endpoint")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	count, err := h.visits.Endpoint(r.Context(), endpoint)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, count)
}
