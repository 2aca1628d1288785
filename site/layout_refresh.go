package site

import (
	"context"
	"fmt"
	"html/template"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const logoBaseName = "logo"

func (s *Service) refreshLayout(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	logo := s.loadLogo()

	var (
		noticeHTML template.HTML
		noticeText string
		icon       = strings.TrimSpace(s.cfg.NoticeIcon)
		source     []byte
	)
	switch {
	case s.cfg.NoticeFile != "":
		data, err := os.ReadFile(filepath.Clean(s.cfg.NoticeFile))
		if err != nil {
			return fmt.Errorf("read notice: %w", err)
		}
		source = data
	case strings.TrimSpace(s.cfg.Notice) != "":
		source = []byte(s.cfg.Notice)
	}

	if len(source) > 0 {
		rendered, err := s.renderer.Render(source)
		if err != nil {
			return fmt.Errorf("render notice: %w", err)
		}
		noticeHTML = template.HTML(rendered.HTML)
		noticeText = rendered.PlainText
		if fromMeta := rendered.MetaString("icon"); fromMeta != "" {
			icon = fromMeta
		}
	}

	s.layout.Update(logo, noticeHTML, noticeText, icon)
	return nil
}

// loadLogo reads the configured logo. Any failure degrades to a text-only header.
func (s *Service) loadLogo() *Asset {
	path := strings.TrimSpace(s.cfg.Logo)
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		s.logger.Warn("logo unavailable, using text header", "path", path, "error", err)
		return nil
	}
	if len(data) == 0 {
		s.logger.Warn("logo is empty, using text header", "path", path)
		return nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		s.logger.Warn("logo is not an image, using text header", "path", path, "type", contentType)
		return nil
	}
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = exts[0]
		}
	}

	asset := &Asset{Name: logoBaseName + ext, ContentType: contentType, Data: data}
	if info, err := os.Stat(path); err == nil {
		asset.ModTime = info.ModTime()
	}
	return asset
}
