// Package handler 提供 artshop 的 HTTP API
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/koopa0/artshop/internal/artshop"
	"github.com/koopa0/artshop/internal/logs"
	"github.com/koopa0/artshop/internal/visits"
	apperrors "github.com/koopa0/artshop/pkg/errors"
	"github.com/koopa0/artshop/pkg/logger"
)

// RequestIDHeader 請求 ID 的 HTTP 標頭
const RequestIDHeader = "X-Request-ID"

// Pinger 就緒檢查的依賴（資料庫連線等）
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services 處理器依賴的服務
type Services struct {
	Artists         *artshop.ArtistService
	Arts            *artshop.ArtService
	Classifications *artshop.ClassificationService
	Reports         *logs.Reports
	Visits          *visits.Counter
	// Ready 為空時 /ready 直接回應就緒
	Ready []Pinger
}

// Handler HTTP 請求處理器
type Handler struct {
	artists         *artshop.ArtistService
	arts            *artshop.ArtService
	classifications *artshop.ClassificationService
	reports         *logs.Reports
	visits          *visits.Counter
	ready           []Pinger
	logger          *slog.Logger
}

// New 創建 HTTP 處理器
func New(s Services, logger *slog.Logger) *Handler {
	return &Handler{
		artists:         s.Artists,
		arts:            s.Arts,
		classifications: s.Classifications,
		reports:         s.Reports,
		visits:          s.Visits,
		ready:           s.Ready,
		logger:          logger.With("component", "http"),
	}
}

// Routes 設定路由
//
// 中間件鏈：恢復 -> 請求 ID -> 日誌 -> 造訪計數 -> 業務處理
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	// 藝術品
	mux.HandleFunc("GET /api/art/all", h.listArts)
	mux.HandleFunc("POST /api/art/bulk", h.addArtsBulk)
	mux.HandleFunc("GET /api/art/title", h.getArtByTitle)
	mux.HandleFunc("GET /api/art/{id}", h.getArt)
	mux.HandleFunc("GET /api/art/by-artist", h.artsByArtist)
	mux.HandleFunc("GET /api/art/by-classificationid", h.artsByClassificationID)
	mux.HandleFunc("GET /api/art/by-classification", h.artsByClassificationName)
	mux.HandleFunc("PATCH /api/art/{id}", h.patchArt)
	mux.HandleFunc("PUT /api/art/{id}", h.updateArt)
	mux.HandleFunc("POST /api/art/add", h.addArt)
	mux.HandleFunc("DELETE /api/art/{id}", h.deleteArt)
	mux.HandleFunc("GET /api/art/cache-info", h.artCacheInfo)

	// 藝術家
	mux.HandleFunc("GET /api/artist/all", h.listArtists)
	mux.HandleFunc("GET /api/artist/{id}", h.getArtist)
	mux.HandleFunc("GET /api/artist/by-art", h.artistsByArt)
	mux.HandleFunc("GET /api/artist/name", h.searchArtists)
	mux.HandleFunc("POST /api/artist/bulk", h.createArtistsBulk)
	mux.HandleFunc("PUT /api/artist/{id}", h.updateArtist)
	mux.HandleFunc("POST /api/artist/add", h.createArtist)
	mux.HandleFunc("DELETE /api/artist/{id}", h.deleteArtist)
	mux.HandleFunc("PATCH /api/artist/{id}", h.patchArtist)
	mux.HandleFunc("GET /api/artist/cache-info", h.artistCacheInfo)

	// 分類
	mux.HandleFunc("GET /api/classification/all", h.listClassifications)
	mux.HandleFunc("GET /api/classification/{id}", h.getClassification)
	mux.HandleFunc("GET /api/classification/name", h.classificationsByName)
	mux.HandleFunc("GET /api/classification/by-art", h.classificationsByArt)
	mux.HandleFunc("POST /api/classification/bulk", h.createClassificationsBulk)
	mux.HandleFunc("POST /api/classification/add", h.createClassification)
	mux.HandleFunc("PATCH /api/classification/{id}", h.patchClassification)
	mux.HandleFunc("DELETE /api/classification/{id}", h.deleteClassification)
	mux.HandleFunc("PUT /api/classification/{id}", h.updateClassification)
	mux.HandleFunc("GET /api/classification/cache-info", h.classificationCacheInfo)

	// 日誌報表
	mux.HandleFunc("POST /api/logs/generate", h.generateReport)
	mux.HandleFunc("GET /api/logs/status/{reportId}", h.reportStatus)
	mux.HandleFunc("GET /api/logs/download/{reportId}", h.downloadReport)

	// 造訪統計
	mux.HandleFunc("GET /api/visits/total", h.totalVisits)
	mux.HandleFunc("GET /api/visits/all", h.allVisits)
	mux.HandleFunc("GET /api/visits/endpoint", h.endpointVisits)

	// 健康檢查
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /ready", h.readiness)

	var next http.Handler = mux
	if h.visits != nil {
		next = visits.Middleware(h.visits, mux, h.logger)(next)
	}
	return h.recoverer(h.requestID(h.loggerMiddleware(next)))
}

// health 存活檢查
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// readiness 就緒檢查
func (h *Handler) readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for _, p := range h.ready {
		if err := p.Ping(ctx); err != nil {
			h.logger.WarnContext(ctx, "readiness check failed", "error", err)
			h.respondError(w, r, apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "dependency not ready"))
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "Ready")
}

// ========== 中間件 ==========

// requestID 沿用上游的 X-Request-ID，沒有時產生新的
func (h *Handler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

// loggerMiddleware 記錄請求日誌
func (h *Handler) loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// 包裝 ResponseWriter 以捕獲狀態碼
		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(ww, r)

		h.logger.InfoContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.statusCode,
			"duration", time.Since(start),
			"remote", r.RemoteAddr,
		)
	})
}

// recoverer 恢復 panic
func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.ErrorContext(r.Context(), "panic recovered", "error", rec, "path", r.URL.Path)
				h.respondError(w, r, apperrors.New(apperrors.ErrCodeInternal, "internal server error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// responseWriter 包裝以捕獲狀態碼
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (w *responseWriter) WriteHeader(code int) {
	if !w.written {
		w.statusCode = code
		w.written = true
		w.ResponseWriter.WriteHeader(code)
	}
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	return w.ResponseWriter.Write(b)
}

// ========== 回應 ==========

type errorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) respondText(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, text)
}

// respondError 依 AppError 的錯誤碼決定狀態碼；非 AppError 一律視為內部錯誤
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{
		Code:  apperrors.CodeOf(err),
		Error: "internal server error",
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		resp.Error = appErr.Message
		resp.Details = appErr.Details
	}

	status := statusOf(resp.Code)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	} else {
		h.logger.DebugContext(r.Context(), "request rejected", "path", r.URL.Path, "error", err)
	}

	h.respondJSON(w, status, resp)
}

func statusOf(code string) int {
	switch code {
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case apperrors.ErrCodeConflict, apperrors.ErrCodeAlreadyExists:
		return http.StatusConflict
	case apperrors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ========== 請求解析 ==========

func pathID(r *http.Request) (int, error) {
	raw := r.PathValue("id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.InvalidInput("Invalid id: %s", raw)
	}
	return id, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, apperrors.InvalidInput("Missing parameter: %s", name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.InvalidInput("Invalid parameter %s: %s", name, raw)
	}
	return v, nil
}

func requiredQuery(r *http.Request, name string) (string, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return "", apperrors.InvalidInput("Missing parameter: %s", name)
	}
	return v, nil
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "Invalid request body")
	}
	return nil
}
