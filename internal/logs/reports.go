package logs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/koopa0/artshop/pkg/errors"
)

// 報表狀態
const (
	StatusProcessing = "PROCESSING"
	StatusReady      = "READY"
	StatusDownloaded = "DOWNLOADED"
	StatusCancelled  = "CANCELLED: Operation interrupted"

	failedPrefix = "FAILED: "
)

// Report 報表的對外狀態
type Report struct {
	ID       string `json:"reportId"`
	Status   string `json:"status"`
	FilePath string `json:"filePath"`
}

// ReportsConfig 報表產生器配置
type ReportsConfig struct {
	Dir     string
	Workers int
	// Delay 開始擷取前的等待時間，讓該時段的日誌先落盤
	Delay     time.Duration
	QueueSize int
}

type job struct {
	id   string
	date time.Time
	hour int
	path string
}

// Reports 以固定數量的 worker 非同步產生日誌報表
//
// 報表先寫入同目錄下的暫存檔，完成後 rename 成正式檔名，
// 下載端不會讀到寫到一半的內容。
type Reports struct {
	extractor *Extractor
	config    ReportsConfig
	logger    *slog.Logger

	mu      sync.RWMutex
	reports map[string]*Report
	closed  bool

	jobs   chan job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewReports 創建報表產生器並啟動 worker
func NewReports(extractor *Extractor, config ReportsConfig, logger *slog.Logger) *Reports {
	if config.Workers <= 0 {
		config.Workers = 2
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 100
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Reports{
		extractor: extractor,
		config:    config,
		logger:    logger.With("component", "reports"),
		reports:   make(map[string]*Report),
		jobs:      make(chan job, config.QueueSize),
		ctx:       ctx,
		cancel:    cancel,
	}

	for i := 0; i < config.Workers; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}
	return r
}

// Generate 建立報表任務並立即返回 PROCESSING 狀態
func (r *Reports) Generate(date time.Time, hour int) (Report, error) {
	if hour < 0 || hour > 23 {
		return Report{}, apperrors.InvalidInput("hour must be between 0 and 23")
	}

	if err := os.MkdirAll(r.config.Dir, 0o750); err != nil {
		return Report{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Failed to create reports directory")
	}

	id := uuid.NewString()
	name := fmt.Sprintf("report-%s-%02d-%s.log", date.Format(DateLayout), hour, id)
	report := &Report{
		ID:       id,
		Status:   StatusProcessing,
		FilePath: filepath.Join(r.config.Dir, name),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Report{}, apperrors.New(apperrors.ErrCodeUnavailable, "report generator is shut down")
	}

	select {
	case r.jobs <- job{id: id, date: date, hour: hour, path: report.FilePath}:
	default:
		return Report{}, apperrors.New(apperrors.ErrCodeUnavailable, "too many pending reports")
	}

	r.reports[id] = report
	r.logger.Info("report queued", "report_id", id, "date", date.Format(DateLayout), "hour", hour)
	return *report, nil
}

// Status 查詢報表狀態
func (r *Reports) Status(id string) (Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report, ok := r.reports[id]
	if !ok {
		return Report{}, reportNotFound(id)
	}
	return *report, nil
}

// Download 返回報表內容與檔名，並刪除伺服器上的檔案
//
// 只有 READY 狀態可以下載；下載一次後狀態變為 DOWNLOADED。
// 產生失敗的報表返回 CONFLICT，訊息與「尚未完成」區分。
func (r *Reports) Download(id string) ([]byte, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	report, ok := r.reports[id]
	if !ok || report.FilePath == "" {
		return nil, "", reportNotFound(id)
	}
	if IsFailed(report.Status) {
		return nil, "", apperrors.Conflict("Report generation failed").WithDetails(report.Status)
	}
	if report.Status != StatusReady {
		return nil, "", apperrors.Conflict("Report not ready").WithDetails(report.Status)
	}

	content, err := os.ReadFile(report.FilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", apperrors.NotFound("Report file not found on server")
		}
		return nil, "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "Download error")
	}
	if len(content) == 0 {
		return nil, "", apperrors.New(apperrors.ErrCodeInternal, "Report file is empty")
	}

	filename := filepath.Base(report.FilePath)
	if err := os.Remove(report.FilePath); err != nil {
		r.logger.Warn("failed to delete report file", "report_id", id, "error", err)
	} else {
		report.FilePath = ""
		report.Status = StatusDownloaded
	}
	return content, filename, nil
}

// Close 停止接受新任務，取消等待中的報表並等待 worker 結束
func (r *Reports) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.jobs)
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
}

func (r *Reports) worker(id int) {
	defer r.wg.Done()

	for j := range r.jobs {
		status := r.process(j)
		r.setStatus(j.id, status)
	}
	r.logger.Debug("report worker stopped", "worker", id)
}

// process 產生單一報表，返回最終狀態
func (r *Reports) process(j job) string {
	if r.config.Delay > 0 {
		timer := time.NewTimer(r.config.Delay)
		select {
		case <-r.ctx.Done():
			timer.Stop()
			r.logger.Info("report generation interrupted", "report_id", j.id)
			return StatusCancelled
		case <-timer.C:
		}
	}
	if r.ctx.Err() != nil {
		return StatusCancelled
	}

	lines, err := r.extractor.Extract(r.ctx, j.date, j.hour)
	if err != nil {
		r.logger.Error("failed to extract logs", "report_id", j.id, "error", err)
		return failedPrefix + err.Error()
	}

	size, err := writeAtomic(j.path, lines)
	if err != nil {
		r.logger.Error("failed to write report", "report_id", j.id, "error", err)
		return failedPrefix + err.Error()
	}

	r.logger.Info("report created", "report_id", j.id, "path", j.path, "bytes", size)
	return StatusReady
}

func (r *Reports) setStatus(id, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if report, ok := r.reports[id]; ok {
		report.Status = status
	}
}

// writeAtomic 寫入暫存檔後 rename 成目標檔名
func writeAtomic(path string, lines []string) (int, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "temp-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // rename 成功後為 no-op

	content := strings.Join(lines, "\n") + "\n"
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("rename report: %w", err)
	}
	return len(content), nil
}

// IsFailed 狀態是否為產生失敗
func IsFailed(status string) bool {
	return strings.HasPrefix(status, failedPrefix)
}

func reportNotFound(id string) error {
	return apperrors.NotFound("Report %s not found", id)
}
