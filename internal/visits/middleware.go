package visits

import (
	"log/slog"
	"net/http"
	"strings"
)

// Router 能找出請求對應的路由樣式（*http.ServeMux 滿足此介面）
type Router interface {
	Handler(r *http.Request) (h http.Handler, pattern string)
}

// Middleware 在交給下一個 handler 之前記錄 GET 請求
//
// 只計算有對應路由的請求，key 為路由樣式的路徑部分（如 /api/art/{id}），
// 任意路徑或 ID 不會讓計數的 key 無限增長。
func Middleware(counter *Counter, routes Router, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				if endpoint, ok := endpointOf(routes, r); ok {
					counter.Record(r.Context(), endpoint)
					logger.Debug("visit recorded", "endpoint", endpoint, "fallback", counter.InFallback())
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// endpointOf 去掉樣式中的方法與主機，例如 "GET /api/art/{id}" -> "/api/art/{id}"
func endpointOf(routes Router, r *http.Request) (string, bool) {
	_, pattern := routes.Handler(r)
	if pattern == "" {
		return "", false
	}
	if _, path, ok := strings.Cut(pattern, " "); ok {
		pattern = path
	}
	if i := strings.Index(pattern, "/"); i > 0 {
		pattern = pattern[i:]
	}
	return pattern, true
}
