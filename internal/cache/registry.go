package cache

import (
	"fmt"
	"log/slog"

	"github.com/koopa0/artshop/internal/artshop"
)

// Registry 持有每種實體各一個快取實例，生命週期與服務相同。
type Registry struct {
	Artists         *EntityCache[int, artshop.Artist]
	Arts            *EntityCache[int, artshop.Art]
	Classifications *EntityCache[int, artshop.Classification]
}

// NewRegistry 以相同容量建立 Artist、Art、Classification 三個快取。
func NewRegistry(capacity int, logger *slog.Logger) (*Registry, error) {
	artists, err := New[int, artshop.Artist]("Artist", capacity, logger)
	if err != nil {
		return nil, fmt.Errorf("artist cache: %w", err)
	}

	arts, err := New[int, artshop.Art]("Art", capacity, logger)
	if err != nil {
		return nil, fmt.Errorf("art cache: %w", err)
	}

	classifications, err := New[int, artshop.Classification]("Classification", capacity, logger)
	if err != nil {
		return nil, fmt.Errorf("classification cache: %w", err)
	}

	return &Registry{
		Artists:         artists,
		Arts:            arts,
		Classifications: classifications,
	}, nil
}

// Caches 轉為服務層使用的快取組合
func (r *Registry) Caches() artshop.Caches {
	return artshop.Caches{
		Artists:         r.Artists,
		Arts:            r.Arts,
		Classifications: r.Classifications,
	}
}
