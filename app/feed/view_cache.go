package feed

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// View is a named, preconfigured feed: fixed criteria plus channel metadata
// for the RSS rendition.
type View struct {
	Name        string   // Derived from filename (without .yml extension)
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Search      string   `yaml:"search"`
	Categories  []string `yaml:"categories"`
	Authors     []string `yaml:"authors"`
	Sort        string   `yaml:"sort"`
	MaxItems    int      `yaml:"max_items"`
}

func (v *View) Criteria() Criteria {
	criteria := DefaultCriteria()
	criteria.SearchQuery = v.Search
	for _, c := range v.Categories {
		criteria.SelectedCategories = append(criteria.SelectedCategories, CleanID(c))
	}
	for _, a := range v.Authors {
		criteria.SelectedAuthors = append(criteria.SelectedAuthors, CleanID(a))
	}
	if order, err := ParseSortOrder(v.Sort); err == nil {
		criteria.SortOrder = order
	}
	return criteria
}

type ViewCache struct {
	viewsDir string
	cache    map[string]*View
	mu       sync.RWMutex
}

func NewViewCache(viewsDir string) *ViewCache {
	return &ViewCache{
		viewsDir: viewsDir,
		cache:    make(map[string]*View),
	}
}

func (vc *ViewCache) Run() error {
	if _, err := os.Stat(vc.viewsDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(vc.viewsDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		viewName := strings.TrimSuffix(filepath.Base(file), ".yml")

		view, err := vc.LoadView(viewName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("View loaded", "view", viewName, "sort", view.Sort, "max_items", view.MaxItems)
	}

	return nil
}

func (vc *ViewCache) LoadView(viewName string) (*View, error) {
	viewFile := vc.getViewFilePath(viewName)
	view, err := vc.parseView(viewFile)
	if err != nil {
		return nil, err
	}

	view.Name = viewName

	if err := vc.validateView(view); err != nil {
		return nil, fmt.Errorf("invalid view %s: %w", viewFile, err)
	}

	vc.mu.Lock()
	defer vc.mu.Unlock()
	vc.cache[view.Name] = view

	return view, nil
}

func (vc *ViewCache) GetView(viewName string) (*View, error) {
	vc.mu.RLock()
	defer vc.mu.RUnlock()

	view, ok := vc.cache[viewName]
	if !ok {
		return nil, fmt.Errorf("view with name '%s' not found", viewName)
	}
	return view, nil
}

func (vc *ViewCache) GetViews() map[string]*View {
	vc.mu.RLock()
	defer vc.mu.RUnlock()

	viewsCopy := make(map[string]*View, len(vc.cache))
	for k, v := range vc.cache {
		viewsCopy[k] = v
	}
	return viewsCopy
}

func (vc *ViewCache) GetViewCount() int {
	vc.mu.RLock()
	defer vc.mu.RUnlock()
	return len(vc.cache)
}

func (vc *ViewCache) parseView(viewFile string) (*View, error) {
	data, err := os.ReadFile(viewFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var view View
	if err := yaml.Unmarshal(data, &view); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if view.Sort == "" {
		view.Sort = string(SortNewest)
	}
	if view.MaxItems == 0 {
		view.MaxItems = 50
	}

	return &view, nil
}

func (vc *ViewCache) validateView(view *View) error {
	if view == nil {
		return fmt.Errorf("view is nil")
	}

	if view.Name == "" {
		return fmt.Errorf("view name is required")
	}

	if view.MaxItems < 0 {
		return fmt.Errorf("max items must be non-negative")
	}

	if _, err := ParseSortOrder(view.Sort); err != nil {
		return err
	}

	for i, c := range view.Categories {
		if strings.TrimSpace(c) == "" {
			return fmt.Errorf("empty category id at index %d", i)
		}
	}
	for i, a := range view.Authors {
		if strings.TrimSpace(a) == "" {
			return fmt.Errorf("empty author id at index %d", i)
		}
	}

	return nil
}

func (vc *ViewCache) getViewFilePath(viewName string) string {
	return filepath.Join(vc.viewsDir, viewName+".yml")
}
