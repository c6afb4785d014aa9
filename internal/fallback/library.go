// Package fallback serves bundled demo option trees when the vendor CAD
// service is not configured or not reachable. Trees ship as embedded YAML
// and can be overridden from a watched directory at runtime.
package fallback

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/fenestra-io/configurator/internal/core"
)

//go:embed demo/*.yaml
var demoFS embed.FS

// catalogFile is the on-disk shape of one demo catalog entry.
type catalogFile struct {
	Name       string             `yaml:"name"`
	ModelCodes []string           `yaml:"model_codes"`
	Default    bool               `yaml:"default"`
	Options    []catalogOption    `yaml:"options"`
	Dimensions map[string]float64 `yaml:"dimensions"`
}

type catalogOption struct {
	Order        int            `yaml:"order"`
	Tab          string         `yaml:"tab"`
	Section      string         `yaml:"section"`
	Widget       string         `yaml:"widget"`
	Maker        string         `yaml:"maker"`
	Code         string         `yaml:"code"`
	Type         string         `yaml:"type"`
	Description  string         `yaml:"description"`
	ValueString  string         `yaml:"value_string"`
	ValueNumeric float64        `yaml:"value_numeric"`
	Hidden       bool           `yaml:"hidden"`
	Values       []catalogValue `yaml:"values"`
}

type catalogValue struct {
	ValueString  string  `yaml:"value_string"`
	ValueNumeric float64 `yaml:"value_numeric"`
}

type entry struct {
	def  *core.UIDefinition
	dims core.Dimensions
}

// Library holds the demo catalog. It implements session.SampleProvider and
// its optional dimensions extension.
type Library struct {
	logger *slog.Logger

	mu         sync.RWMutex
	byCode     map[string]entry
	defaultDef *entry
}

// LibraryOption configures the library.
type LibraryOption func(*Library)

// WithLogger sets the library logger.
func WithLogger(logger *slog.Logger) LibraryOption {
	return func(l *Library) {
		l.logger = logger
	}
}

// NewLibrary loads the embedded demo catalog.
func NewLibrary(opts ...LibraryOption) (*Library, error) {
	l := &Library{
		logger: slog.Default(),
		byCode: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(l)
	}
	if err := l.loadFS(demoFS, "demo"); err != nil {
		return nil, fmt.Errorf("loading embedded catalog: %w", err)
	}
	return l, nil
}

// LoadDir merges demo trees from a directory over the embedded catalog.
// Entries with the same model code replace earlier ones.
func (l *Library) LoadDir(dir string) error {
	return l.loadFS(os.DirFS(dir), ".")
}

func (l *Library) loadFS(fsys fs.FS, root string) error {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return fmt.Errorf("reading catalog directory: %w", err)
	}

	for _, de := range entries {
		name := de.Name()
		if de.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
			continue
		}
		data, err := fs.ReadFile(fsys, filepath.Join(root, name))
		if err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}
		if err := l.addFile(name, data); err != nil {
			// One bad override must not take down the whole catalog.
			l.logger.Warn("skipping invalid catalog file", "file", name, "error", err)
		}
	}
	return nil
}

func (l *Library) addFile(name string, data []byte) error {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	if file.Name == "" {
		return fmt.Errorf("%s: catalog entry has no name", name)
	}
	if len(file.ModelCodes) == 0 {
		return fmt.Errorf("%s: catalog entry lists no model codes", name)
	}

	def := &core.UIDefinition{
		Name:    file.Name,
		Options: make([]core.ConfigOption, 0, len(file.Options)),
	}
	for _, o := range file.Options {
		widget, err := core.ParseWidget(o.Widget)
		if err != nil {
			widget = core.WidgetUnknown
			l.logger.Warn("unknown widget in catalog file", "file", name, "code", o.Code, "widget", o.Widget)
		}
		values := make([]core.OptionValue, 0, len(o.Values))
		for _, v := range o.Values {
			values = append(values, core.OptionValue{
				ValueString:  v.ValueString,
				ValueNumeric: v.ValueNumeric,
			})
		}
		def.Options = append(def.Options, core.ConfigOption{
			Order:        o.Order,
			Tab:          o.Tab,
			Section:      o.Section,
			Widget:       widget,
			Maker:        o.Maker,
			Code:         o.Code,
			Type:         o.Type,
			Description:  o.Description,
			ValueString:  o.ValueString,
			ValueNumeric: o.ValueNumeric,
			Hidden:       o.Hidden,
			Values:       values,
		})
	}

	ent := entry{def: def, dims: core.Dimensions(file.Dimensions)}

	l.mu.Lock()
	for _, code := range file.ModelCodes {
		l.byCode[code] = ent
	}
	if file.Default || l.defaultDef == nil {
		l.defaultDef = &ent
	}
	l.mu.Unlock()
	return nil
}

// Sample returns the demo tree for a model code. Unknown codes fall back to
// the default entry so a misconfigured code still gets a usable screen.
func (l *Library) Sample(modelCode string) (*core.UIDefinition, bool) {
	ent, ok := l.lookup(modelCode)
	if !ok {
		return nil, false
	}
	return cloneDefinition(ent.def), true
}

// SampleDimensions returns the demo dimensions for a model code.
func (l *Library) SampleDimensions(modelCode string) (core.Dimensions, bool) {
	ent, ok := l.lookup(modelCode)
	if !ok || len(ent.dims) == 0 {
		return nil, false
	}
	return ent.dims.Clone(), true
}

func (l *Library) lookup(modelCode string) (entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if ent, ok := l.byCode[modelCode]; ok {
		return ent, true
	}
	if l.defaultDef != nil {
		return *l.defaultDef, true
	}
	return entry{}, false
}

// Codes returns all model codes in the catalog, sorted.
func (l *Library) Codes() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	codes := make([]string, 0, len(l.byCode))
	for code := range l.byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// cloneDefinition copies a tree so callers can append without sharing the
// backing array with the catalog.
func cloneDefinition(def *core.UIDefinition) *core.UIDefinition {
	out := &core.UIDefinition{
		Name:    def.Name,
		Options: make([]core.ConfigOption, len(def.Options)),
	}
	copy(out.Options, def.Options)
	return out
}
