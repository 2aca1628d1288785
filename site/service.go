package site

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/yakdar/formhub/catalog"
	"github.com/yakdar/formhub/config"
	"github.com/yakdar/formhub/fsutil"
	"github.com/yakdar/formhub/renderer"
	"github.com/yakdar/formhub/templatex"
)

const (
	formsJSONName = "forms.json"
	notFoundName  = "404.html"
	indexName     = "index.html"
	themeDirName  = "theme"
)

// Service renders the form directory from an immutable catalog.
type Service struct {
	cfg       *config.Config
	catalog   *catalog.Catalog
	templates *templatex.Engine
	renderer  *renderer.Renderer
	logger    *slog.Logger

	layout *LayoutCache
}

// NewService constructs a Service instance. The catalog is never modified.
func NewService(cfg *config.Config, cat *catalog.Catalog, templates *templatex.Engine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	if cat == nil {
		cat = &catalog.Catalog{}
	}
	return &Service{
		cfg:       cfg,
		catalog:   cat,
		templates: templates,
		renderer:  renderer.New(),
		logger:    logger,
		layout:    newLayoutCache(),
	}
}

// Warm loads the logo and footer notice.
func (s *Service) Warm(ctx context.Context) error {
	if placeholders := s.catalog.Placeholders(); len(placeholders) > 0 {
		s.logger.Debug("catalog placeholders hidden", "categories", placeholders)
	}
	return s.refreshLayout(ctx)
}

// Catalog returns the catalog the service renders.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// Search filters the catalog for query.
func (s *Service) Search(query string) catalog.FilteredCatalog {
	return catalog.Filter(s.catalog, query)
}

type formsPayload struct {
	Query     string            `json:"query"`
	NoMatches bool              `json:"noMatches"`
	Total     int               `json:"total"`
	Sections  []catalog.Section `json:"sections"`
}

// CatalogJSON encodes the filtered catalog for query.
func (s *Service) CatalogJSON(query string) ([]byte, error) {
	fc := s.Search(query)
	data, err := json.Marshal(formsPayload{
		Query:     fc.Query,
		NoMatches: catalog.NoMatches(fc),
		Total:     fc.EntryCount(),
		Sections:  fc.Sections,
	})
	if err != nil {
		return nil, fmt.Errorf("encode forms: %w", err)
	}
	return data, nil
}

// Logo returns the loaded logo asset.
func (s *Service) Logo() (Asset, error) {
	logo := s.layout.Snapshot().Logo
	if logo == nil {
		return Asset{}, ErrNoLogo
	}
	return *logo, nil
}

// ThemeDir returns the directory containing template assets, if any.
func (s *Service) ThemeDir() string {
	return s.templates.StaticDir
}

// BuildStatic renders the directory into static files under the output dir.
func (s *Service) BuildStatic(ctx context.Context) error {
	finalDir := s.cfg.OutputDir
	parent := filepath.Dir(finalDir)
	if parent == "" {
		parent = "."
	}
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("ensure output parent: %w", err)
	}

	tempDir, err := os.MkdirTemp(parent, ".__build-")
	if err != nil {
		return fmt.Errorf("create temp output dir: %w", err)
	}
	cleanTemp := true
	defer func() {
		if cleanTemp {
			_ = os.RemoveAll(tempDir)
		}
	}()

	if err := s.refreshLayout(ctx); err != nil {
		return err
	}
	snapshot := s.layout.Snapshot()
	stamp := snapshot.LoadedAt

	index, err := s.renderStaticIndex(ctx)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFile(filepath.Join(tempDir, indexName), index, stamp); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	notFound, err := s.RenderNotFoundPage(ctx, "")
	if err != nil {
		return err
	}
	if err := fsutil.WriteFile(filepath.Join(tempDir, notFoundName), notFound, stamp); err != nil {
		return fmt.Errorf("write 404 page: %w", err)
	}

	forms, err := s.CatalogJSON("")
	if err != nil {
		return err
	}
	if err := fsutil.WriteFile(filepath.Join(tempDir, formsJSONName), forms, stamp); err != nil {
		return fmt.Errorf("write forms index: %w", err)
	}

	if logo := snapshot.Logo; logo != nil {
		if err := fsutil.WriteFile(filepath.Join(tempDir, logo.Name), logo.Data, logo.ModTime); err != nil {
			return fmt.Errorf("write logo: %w", err)
		}
	}

	if s.templates.StaticDir != "" {
		if err := fsutil.CopyTree(s.templates.StaticDir, filepath.Join(tempDir, themeDirName)); err != nil {
			return fmt.Errorf("copy theme assets: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fsutil.SwapDir(tempDir, finalDir); err != nil {
		return err
	}
	cleanTemp = false
	s.logger.Info("static build written", "output", finalDir, "categories", s.catalog.Len(), "forms", s.catalog.EntryCount(), "at", stamp.Format(time.RFC3339))
	return nil
}
