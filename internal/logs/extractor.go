// Package logs 從服務自己的日誌檔擷取指定時段的記錄，並以非同步方式產生報表
//
// 日誌行的時間格式為 RFC3339（含毫秒），例如 2025-05-14T09:27:49.432+08:00，
// 由 pkg/logger 輸出。
package logs

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// NoEntriesMessage 該時段沒有任何記錄時的輸出
const NoEntriesMessage = "No log entries found for this period"

// DateLayout 日期參數格式
const DateLayout = "2006-01-02"

// 單行上限，超過的行視為讀取錯誤
const maxLineSize = 1 << 20

// timestampPattern 比對行內第一個 RFC3339 時間戳，擷取小時
var timestampPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}T(\d{2}):\d{2}:\d{2}`)

// Extractor 掃描日誌目錄下的 *.log 檔
type Extractor struct {
	dir string
}

// NewExtractor 創建擷取器
func NewExtractor(dir string) *Extractor {
	return &Extractor{dir: dir}
}

// Header 報表標題行
func Header(date time.Time, hour int) string {
	return fmt.Sprintf("=== Logs for %s %02d:00-%02d:59 ===", date.Format(DateLayout), hour, hour)
}

// Extract 返回標題行與所有落在 date 當天 hour 時段的日誌行
//
// 檔案依名稱排序後逐一掃描；沒有符合的行時，標題之後接 NoEntriesMessage。
func (e *Extractor) Extract(ctx context.Context, date time.Time, hour int) ([]string, error) {
	if _, err := os.Stat(e.dir); err != nil {
		return nil, fmt.Errorf("log directory: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(e.dir, "*.log"))
	if err != nil {
		return nil, fmt.Errorf("list log files: %w", err)
	}
	slices.Sort(files)

	day := date.Format(DateLayout)
	result := []string{Header(date, hour)}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		lines, err := matchLines(file, day, hour)
		if err != nil {
			return nil, err
		}
		result = append(result, lines...)
	}

	if len(result) == 1 {
		result = append(result, NoEntriesMessage)
	}
	return result, nil
}

func matchLines(path, day string, hour int) ([]string, error) {
	f, err := os.Open(path) // #nosec G304 - 路徑來自設定的日誌目錄
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	var matched []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, day) && lineHour(line) == hour {
			matched = append(matched, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return matched, nil
}

// lineHour 返回行內第一個時間戳的小時；沒有時間戳返回 -1
func lineHour(line string) int {
	m := timestampPattern.FindStringSubmatch(line)
	if m == nil {
		return -1
	}
	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return -1
	}
	return hour
}
