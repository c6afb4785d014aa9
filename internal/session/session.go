// Package session owns the per-session configuration state: the current
// option tree snapshot, the flat selected-option map, and the dimension map,
// together with the mutation discipline the vendor protocol requires.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fenestra-io/configurator/internal/core"
	"github.com/fenestra-io/configurator/internal/events"
)

// SampleProvider supplies bundled offline definitions used when the vendor
// cannot be reached on first load.
type SampleProvider interface {
	Sample(modelCode string) (*core.UIDefinition, bool)
}

// Session is one in-progress configuration for one model GUID. All mutations
// go through its methods; the embedded mutex protects the state triple and
// the refresh state machine. Flag checks and sets happen under the lock
// before any network call, which preserves the coalescing contract.
type Session struct {
	id        string
	modelCode string
	modelGUID string
	createdAt time.Time

	backend core.Backend
	bus     *events.Bus
	samples SampleProvider
	logger  *slog.Logger

	mu       sync.Mutex
	def      *core.UIDefinition
	selected core.SelectedOptions
	dims     core.Dimensions
	refresh  refreshState
	fallback bool
}

func newSession(id, modelCode, modelGUID string, backend core.Backend, bus *events.Bus, samples SampleProvider, logger *slog.Logger) *Session {
	return &Session{
		id:        id,
		modelCode: modelCode,
		modelGUID: modelGUID,
		createdAt: time.Now(),
		backend:   backend,
		bus:       bus,
		samples:   samples,
		logger:    logger.With("session_id", id),
		selected:  make(core.SelectedOptions),
		dims:      make(core.Dimensions),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// ModelCode returns the catalog code the session was created from.
func (s *Session) ModelCode() string { return s.modelCode }

// ModelGUID returns the vendor model instance identifier.
func (s *Session) ModelGUID() string { return s.modelGUID }

// Definition returns the current option tree snapshot. The returned tree is
// replaced wholesale on refresh and never mutated in place, so it is safe to
// read concurrently.
func (s *Session) Definition() *core.UIDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.def
}

// Selected returns a copy of the current selections.
func (s *Session) Selected() core.SelectedOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected.Clone()
}

// Dimensions returns a copy of the current dimension map.
func (s *Session) Dimensions() core.Dimensions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dims.Clone()
}

// DimensionGroups projects the current dimensions into master groups.
func (s *Session) DimensionGroups() []core.DimensionGroup {
	return core.GroupDimensions(s.Dimensions())
}

// IsUpdating reports whether a definition refresh is in flight.
func (s *Session) IsUpdating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh != refreshIdle
}

// UsingFallback reports whether the session gave up on remote refreshes.
func (s *Session) UsingFallback() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fallback
}

// SelectOption records a new option value. The local write is synchronous
// and visible before any network call; the vendor push is best effort and
// never blocks the definition refresh that follows.
func (s *Session) SelectOption(ctx context.Context, code, value string) {
	if code == core.SyntheticDimensionsCode {
		// The dimensions panel is injected client-side after every refresh
		// and carries no vendor value; selecting it must never produce a
		// Model.SetOptionValue command or a selection entry.
		return
	}

	s.mu.Lock()
	s.selected[code] = value
	guid := s.modelGUID
	offline := s.fallback || guid == ""
	s.mu.Unlock()

	s.bus.Publish(events.NewOptionSelectedEvent(s.id, code, value))

	if !offline {
		if err := s.backend.SetOption(ctx, guid, code, value); err != nil {
			s.logger.Warn("option push failed", "code", code, "error", err)
		} else {
			s.bus.Publish(events.NewVisualizationRefreshEvent(s.id, "option"))
		}
	}

	s.RefreshDefinition(ctx)
}

// RefreshDefinition re-fetches the option tree. Requests arriving while a
// fetch is in flight coalesce into one trailing re-run, so the final tree
// always reflects the latest request. A fetch failure flips the fallback
// flag and stops further remote refreshes until the session is reset.
func (s *Session) RefreshDefinition(ctx context.Context) {
	s.mu.Lock()
	next, proceed := s.refresh.request()
	s.refresh = next
	if !proceed {
		s.mu.Unlock()
		return
	}
	guid := s.modelGUID
	offline := s.fallback
	s.mu.Unlock()

	for {
		var fetched *core.UIDefinition
		var err error
		if !offline {
			fetched, err = s.backend.GetUIDefinition(ctx, guid)
		}

		var publish []events.Event
		s.mu.Lock()
		if !offline {
			if err != nil {
				s.fallback = true
				if s.def == nil {
					s.applySampleLocked()
				}
				publish = append(publish, events.NewFallbackEnteredEvent(s.id, err))
			} else {
				s.applyDefinitionLocked(fetched)
				publish = append(publish, events.NewDefinitionUpdatedEvent(s.id, fetched.Name, len(fetched.Options)))
			}
		}
		next, rerun := s.refresh.finish()
		s.refresh = next
		offline = s.fallback
		s.mu.Unlock()

		for _, ev := range publish {
			s.bus.Publish(ev)
		}
		if !rerun {
			return
		}
	}
}

// applyDefinitionLocked installs a fresh tree: strips any synthetic
// dimensions entries the response may carry, appends a fresh one, and seeds
// selections without overwriting existing choices.
func (s *Session) applyDefinitionLocked(fetched *core.UIDefinition) {
	options := make([]core.ConfigOption, 0, len(fetched.Options)+1)
	for _, opt := range fetched.Options {
		if opt.IsSynthetic() {
			continue
		}
		options = append(options, opt)
	}
	options = append(options, core.NewSyntheticDimensionsOption())

	s.def = &core.UIDefinition{Name: fetched.Name, Options: options}
	s.selected.Seed(s.def)
}

// DimensionSampler is an optional extension of SampleProvider for catalogs
// that bundle demo dimensions alongside demo trees.
type DimensionSampler interface {
	SampleDimensions(modelCode string) (core.Dimensions, bool)
}

// applySampleLocked installs a bundled offline tree on first-load failure.
func (s *Session) applySampleLocked() {
	if s.samples == nil {
		return
	}
	sample, ok := s.samples.Sample(s.modelCode)
	if !ok {
		return
	}
	s.applyDefinitionLocked(sample)
	if ds, ok := s.samples.(DimensionSampler); ok && len(s.dims) == 0 {
		if dims, ok := ds.SampleDimensions(s.modelCode); ok {
			s.dims = dims.Clone()
		}
	}
	s.logger.Info("serving bundled sample definition", "model_code", s.modelCode)
}

// UpdateDimension sets one dimension. Never optimistic: dimension changes
// cascade server-side, so the returned map replaces local state wholesale.
// On failure local dimensions are left untouched.
func (s *Session) UpdateDimension(ctx context.Context, key string, value float64) error {
	s.mu.Lock()
	guid := s.modelGUID
	s.mu.Unlock()

	dims, err := s.backend.SetDimension(ctx, guid, key, value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.dims = dims
	count := len(dims)
	s.mu.Unlock()

	s.bus.Publish(events.NewDimensionsUpdatedEvent(s.id, count))
	s.bus.Publish(events.NewVisualizationRefreshEvent(s.id, "dimension"))
	return nil
}

// RefreshDimensions re-fetches the full dimension map and replaces local
// state wholesale. On failure the map is reset to empty rather than left
// stale.
func (s *Session) RefreshDimensions(ctx context.Context) {
	s.mu.Lock()
	guid := s.modelGUID
	s.mu.Unlock()

	dims, err := s.backend.GetDimensions(ctx, guid)
	if err != nil {
		s.logger.Warn("dimension refresh failed", "error", err)
		s.mu.Lock()
		s.dims = make(core.Dimensions)
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.dims = dims
	count := len(dims)
	s.mu.Unlock()

	s.bus.Publish(events.NewDimensionsUpdatedEvent(s.id, count))
}

// Visualize renders the model's current vendor-side state. Sessions in
// fallback mode have no vendor model to render.
func (s *Session) Visualize(ctx context.Context, req core.ImageRequest) (*core.Image, error) {
	if !req.Type.Valid() {
		return nil, core.ErrValidation(core.CodeInvalidImageType,
			fmt.Sprintf("unsupported image type %d", req.Type))
	}

	s.mu.Lock()
	guid := s.modelGUID
	offline := s.fallback
	s.mu.Unlock()

	if offline || guid == "" {
		return nil, core.ErrState(core.CodeFallbackMode, "no vendor model available for rendering")
	}
	return s.backend.RenderImage(ctx, guid, req)
}

// Export packages the current selections into the manual export blob.
func (s *Session) Export(name string) core.ExportedConfiguration {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash := ""
	if s.def != nil {
		hash = core.CompatibilityHash(s.def)
	}
	return core.ExportedConfiguration{
		Name:              name,
		Timestamp:         time.Now().UTC(),
		CompatibilityHash: hash,
		Options:           s.selected.Clone(),
		ModelCode:         s.modelCode,
		ModelGUID:         s.modelGUID,
	}
}

// Import applies a previously exported configuration. A compatibility hash
// mismatch aborts before any state is touched.
func (s *Session) Import(ctx context.Context, cfg core.ExportedConfiguration) error {
	s.mu.Lock()
	if s.def == nil {
		s.mu.Unlock()
		return core.ErrState(core.CodeDefinitionFetch, "session has no definition to import into")
	}
	if cfg.CompatibilityHash != core.CompatibilityHash(s.def) {
		s.mu.Unlock()
		return core.ErrValidation(core.CodeHashMismatch,
			"saved configuration does not match the current option set")
	}
	for code, value := range cfg.Options {
		if _, ok := s.def.Option(code); ok {
			s.selected[code] = value
		}
	}
	s.mu.Unlock()

	s.RefreshDefinition(ctx)
	return nil
}
