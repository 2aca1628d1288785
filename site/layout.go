package site

import (
	"html/template"
	"sync"
	"time"
)

// Asset is a static file served from memory.
type Asset struct {
	Name        string
	ContentType string
	Data        []byte
	ModTime     time.Time
}

// LayoutSnapshot holds the cached logo and footer notice.
type LayoutSnapshot struct {
	Logo       *Asset
	NoticeHTML template.HTML
	NoticeText string
	NoticeIcon string
	LoadedAt   time.Time
}

type LayoutCache struct {
	mu       sync.RWMutex
	snapshot LayoutSnapshot
}

func newLayoutCache() *LayoutCache {
	return &LayoutCache{}
}

func (c *LayoutCache) Update(logo *Asset, notice template.HTML, noticeText, icon string) {
	c.mu.Lock()
	c.snapshot = LayoutSnapshot{
		Logo:       logo,
		NoticeHTML: notice,
		NoticeText: noticeText,
		NoticeIcon: icon,
		LoadedAt:   time.Now(),
	}
	c.mu.Unlock()
}

func (c *LayoutCache) Snapshot() LayoutSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}
