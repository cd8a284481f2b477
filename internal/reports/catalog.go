// Package reports loads the dashboard report catalog from YAML.
//
// A catalog directory holds report files at its top level and in group
// subdirectories. A subdirectory is a group when it contains group.yaml;
// reports inside it inherit the directory name as their group.
package reports

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/sallamaty/rounds-console/pkg/models"
)

const groupFile = "group.yaml"

// Group is a named section of the report catalog
type Group struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Reports     int    `json:"reports"`
}

// Catalog manages loading and lookup of report definitions
type Catalog struct {
	mu      sync.RWMutex
	reports map[string]*models.ReportDefinition
	groups  map[string]*Group
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		reports: make(map[string]*models.ReportDefinition),
		groups:  make(map[string]*Group),
	}
}

// LoadFromDir loads every report under dir. Invalid files are logged and
// skipped; only an unreadable dir is an error.
func (c *Catalog) LoadFromDir(dir string) error {
	slog.Info("loading report catalog", "dir", dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read report directory: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			n, err := c.loadGroup(entry.Name(), path)
			if err != nil {
				slog.Warn("failed to load report group", "dir", entry.Name(), "error", err)
				continue
			}
			loaded += n
			continue
		}

		if !isYAML(entry.Name()) {
			continue
		}
		if err := c.LoadFromFile(path, ""); err != nil {
			slog.Warn("failed to load report", "file", path, "error", err)
			continue
		}
		loaded++
	}

	slog.Info("report catalog loaded", "reports", loaded, "groups", len(c.Groups()))
	return nil
}

// LoadFromFile loads one report definition, assigning group when the file
// does not name one
func (c *Catalog) LoadFromFile(path, group string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var def models.ReportDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	if def.Name == "" {
		base := filepath.Base(path)
		def.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if def.Endpoint == "" {
		return fmt.Errorf("report %s: endpoint is required", def.Name)
	}
	if def.Title == "" {
		def.Title = def.Name
	}
	if def.Chart == "" {
		def.Chart = "table"
	}
	if def.Group == "" {
		def.Group = group
	}

	c.Add(&def)
	slog.Debug("report loaded", "name", def.Name, "endpoint", def.Endpoint)
	return nil
}

func (c *Catalog) loadGroup(id, dir string) (int, error) {
	data, err := os.ReadFile(filepath.Join(dir, groupFile))
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", groupFile, err)
	}

	var g Group
	if err := yaml.Unmarshal(data, &g); err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", groupFile, err)
	}
	g.ID = id
	if g.Title == "" {
		g.Title = id
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read group dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == groupFile || !isYAML(entry.Name()) {
			continue
		}
		if err := c.LoadFromFile(filepath.Join(dir, entry.Name()), id); err != nil {
			slog.Warn("failed to load report", "group", id, "file", entry.Name(), "error", err)
			continue
		}
		g.Reports++
	}

	c.mu.Lock()
	c.groups[id] = &g
	c.mu.Unlock()
	return g.Reports, nil
}

// Get retrieves a report by name
func (c *Catalog) Get(name string) *models.ReportDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reports[name]
}

// List returns the reports ordered by group then name. An empty group
// lists every report.
func (c *Catalog) List(group string) []*models.ReportDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*models.ReportDefinition, 0, len(c.reports))
	for _, def := range c.reports {
		if group == "" || def.Group == group {
			result = append(result, def)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Group != result[j].Group {
			return result[i].Group < result[j].Group
		}
		return result[i].Name < result[j].Name
	})
	return result
}

// Groups returns the loaded groups ordered by id
func (c *Catalog) Groups() []*Group {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*Group, 0, len(c.groups))
	for _, g := range c.groups {
		result = append(result, g)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Add registers a definition, replacing one with the same name
func (c *Catalog) Add(def *models.ReportDefinition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports[def.Name] = def
}

// Remove removes a report by name
func (c *Catalog) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.reports, name)
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
