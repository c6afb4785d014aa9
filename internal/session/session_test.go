package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fenestra-io/configurator/internal/core"
	"github.com/fenestra-io/configurator/internal/events"
	"github.com/fenestra-io/configurator/internal/logging"
)

// mockBackend is a scriptable core.Backend.
type mockBackend struct {
	mu sync.Mutex

	defs     []*core.UIDefinition // successive GetUIDefinition responses, last repeats
	defErr   error
	defCalls int
	block    chan struct{} // when set, GetUIDefinition waits on it

	setOptErr   error
	setOptCalls int

	dims    core.Dimensions
	dimsErr error

	setDimResult core.Dimensions
	setDimErr    error
}

func (m *mockBackend) CreateModel(_ context.Context, code string) (string, error) {
	return "guid-" + code, nil
}

func (m *mockBackend) GetUIDefinition(_ context.Context, _ string) (*core.UIDefinition, error) {
	m.mu.Lock()
	call := m.defCalls
	m.defCalls++
	block := m.block
	err := m.defErr
	var def *core.UIDefinition
	if len(m.defs) > 0 {
		if call < len(m.defs) {
			def = m.defs[call]
		} else {
			def = m.defs[len(m.defs)-1]
		}
	}
	m.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	return def, nil
}

func (m *mockBackend) SetOption(_ context.Context, _, _, _ string) error {
	m.mu.Lock()
	m.setOptCalls++
	m.mu.Unlock()
	return m.setOptErr
}

func (m *mockBackend) GetDimensions(_ context.Context, _ string) (core.Dimensions, error) {
	if m.dimsErr != nil {
		return nil, m.dimsErr
	}
	return m.dims.Clone(), nil
}

func (m *mockBackend) SetDimension(_ context.Context, _, _ string, _ float64) (core.Dimensions, error) {
	if m.setDimErr != nil {
		return nil, m.setDimErr
	}
	return m.setDimResult.Clone(), nil
}

func (m *mockBackend) RenderImage(_ context.Context, _ string, _ core.ImageRequest) (*core.Image, error) {
	return &core.Image{ContentType: "image/png"}, nil
}

func (m *mockBackend) definitionCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.defCalls
}

func simpleDef(name string) *core.UIDefinition {
	return &core.UIDefinition{
		Name: name,
		Options: []core.ConfigOption{
			{Order: 1, Tab: "Colors", Section: "Outer", Widget: core.WidgetColorPicker, Code: "ry~OUTER_COLOR", Type: "color", ValueString: "ry~7016"},
		},
	}
}

func newTestSession(backend *mockBackend) (*Session, *events.Bus) {
	bus := events.New(100)
	return newSession("s1", "WIN-2L", "guid-1", backend, bus, nil, logging.NewNop().Logger), bus
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestRefreshDefinition_InjectsSyntheticOption(t *testing.T) {
	backend := &mockBackend{defs: []*core.UIDefinition{simpleDef("v1")}}
	s, _ := newTestSession(backend)

	for i := 0; i < 3; i++ {
		s.RefreshDefinition(context.Background())
	}

	def := s.Definition()
	count := 0
	for _, opt := range def.Options {
		if opt.IsSynthetic() {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one synthetic option, got %d", count)
	}
}

func TestRefreshDefinition_DropsBackendSyntheticDuplicates(t *testing.T) {
	def := simpleDef("v1")
	def.Options = append(def.Options,
		core.NewSyntheticDimensionsOption(),
		core.NewSyntheticDimensionsOption())
	backend := &mockBackend{defs: []*core.UIDefinition{def}}
	s, _ := newTestSession(backend)

	s.RefreshDefinition(context.Background())

	count := 0
	for _, opt := range s.Definition().Options {
		if opt.IsSynthetic() {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one synthetic option, got %d", count)
	}
}

func TestRefreshDefinition_SeedsWithoutOverwrite(t *testing.T) {
	first := &core.UIDefinition{Options: []core.ConfigOption{
		{Code: "A", ValueString: "1"},
	}}
	second := &core.UIDefinition{Options: []core.ConfigOption{
		{Code: "A", ValueString: "9"},
		{Code: "B", ValueString: "2"},
	}}
	backend := &mockBackend{defs: []*core.UIDefinition{first, second}}
	s, _ := newTestSession(backend)

	s.RefreshDefinition(context.Background())
	s.RefreshDefinition(context.Background())

	selected := s.Selected()
	if selected["A"] != "1" {
		t.Errorf("existing selection overwritten: %q", selected["A"])
	}
	if selected["B"] != "2" {
		t.Errorf("new option not seeded: %q", selected["B"])
	}
}

func TestRefreshDefinition_Coalescing(t *testing.T) {
	backend := &mockBackend{
		defs:  []*core.UIDefinition{simpleDef("v1"), simpleDef("v2"), simpleDef("v3")},
		block: make(chan struct{}),
	}
	s, _ := newTestSession(backend)

	done := make(chan struct{})
	go func() {
		s.RefreshDefinition(context.Background())
		close(done)
	}()

	waitFor(t, func() bool { return backend.definitionCalls() == 1 })

	// Two more requests while the first fetch is in flight: both absorb
	// into one pending re-run.
	s.RefreshDefinition(context.Background())
	s.RefreshDefinition(context.Background())

	close(backend.block)
	<-done

	if calls := backend.definitionCalls(); calls != 2 {
		t.Fatalf("expected 2 fetches (one in-flight, one trailing), got %d", calls)
	}
	if name := s.Definition().Name; name != "v2" {
		t.Fatalf("final tree should come from the trailing re-run, got %q", name)
	}
	if s.IsUpdating() {
		t.Fatal("expected idle after drain")
	}
}

func TestRefreshDefinition_FailureEntersFallback(t *testing.T) {
	backend := &mockBackend{defErr: errors.New("boom")}
	s, bus := newTestSession(backend)

	ch := bus.Subscribe(events.TypeFallbackEntered)
	s.RefreshDefinition(context.Background())

	if !s.UsingFallback() {
		t.Fatal("expected fallback flag set")
	}
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected fallback event")
	}

	// Further refreshes stop hitting the vendor.
	calls := backend.definitionCalls()
	s.RefreshDefinition(context.Background())
	if backend.definitionCalls() != calls {
		t.Fatal("fallback session must not issue remote refreshes")
	}
}

func TestRefreshDefinition_FailureKeepsPreviousTree(t *testing.T) {
	backend := &mockBackend{defs: []*core.UIDefinition{simpleDef("v1")}}
	s, _ := newTestSession(backend)
	s.RefreshDefinition(context.Background())

	backend.mu.Lock()
	backend.defErr = errors.New("vendor down")
	backend.mu.Unlock()
	s.mu.Lock()
	s.fallback = false
	s.mu.Unlock()

	s.RefreshDefinition(context.Background())

	if s.Definition() == nil || s.Definition().Name != "v1" {
		t.Fatal("previous tree should survive a failed refresh")
	}
}

type staticSamples struct{ def *core.UIDefinition }

func (p staticSamples) Sample(string) (*core.UIDefinition, bool) { return p.def, p.def != nil }

func TestRefreshDefinition_FirstLoadFailureUsesSample(t *testing.T) {
	backend := &mockBackend{defErr: errors.New("vendor down")}
	bus := events.New(100)
	s := newSession("s1", "WIN-2L", "guid-1", backend, bus,
		staticSamples{def: simpleDef("offline")}, logging.NewNop().Logger)

	s.RefreshDefinition(context.Background())

	def := s.Definition()
	if def == nil || def.Name != "offline" {
		t.Fatalf("expected sample tree, got %+v", def)
	}
	// Sample trees get the synthetic option too.
	found := false
	for _, opt := range def.Options {
		if opt.IsSynthetic() {
			found = true
		}
	}
	if !found {
		t.Fatal("sample tree missing synthetic option")
	}
}

func TestSelectOption_OptimisticWrite(t *testing.T) {
	backend := &mockBackend{
		defs:  []*core.UIDefinition{simpleDef("v1")},
		block: make(chan struct{}),
	}
	s, _ := newTestSession(backend)

	done := make(chan struct{})
	go func() {
		s.SelectOption(context.Background(), "ry~OUTER_COLOR", "ry~9016")
		close(done)
	}()

	// The local write is visible before the refresh completes.
	waitFor(t, func() bool { return s.Selected()["ry~OUTER_COLOR"] == "ry~9016" })

	close(backend.block)
	<-done

	backend.mu.Lock()
	pushes := backend.setOptCalls
	backend.mu.Unlock()
	if pushes != 1 {
		t.Fatalf("expected one option push, got %d", pushes)
	}
}

func TestSelectOption_SyntheticOptionStaysLocal(t *testing.T) {
	backend := &mockBackend{defs: []*core.UIDefinition{simpleDef("v1")}}
	s, _ := newTestSession(backend)
	s.RefreshDefinition(context.Background())

	s.SelectOption(context.Background(), core.SyntheticDimensionsCode, "anything")

	backend.mu.Lock()
	pushes := backend.setOptCalls
	backend.mu.Unlock()
	if pushes != 0 {
		t.Fatalf("dimensions pseudo-option reached the vendor: %d pushes", pushes)
	}
	if _, ok := s.Selected()[core.SyntheticDimensionsCode]; ok {
		t.Fatal("dimensions pseudo-option recorded as a selection")
	}
}

func TestSelectOption_PushFailureStillRefreshes(t *testing.T) {
	backend := &mockBackend{
		defs:      []*core.UIDefinition{simpleDef("v1")},
		setOptErr: errors.New("vendor hiccup"),
	}
	s, _ := newTestSession(backend)

	s.SelectOption(context.Background(), "ry~OUTER_COLOR", "ry~9016")

	if s.Selected()["ry~OUTER_COLOR"] != "ry~9016" {
		t.Fatal("optimistic write lost")
	}
	if backend.definitionCalls() == 0 {
		t.Fatal("refresh must run even when the push fails")
	}
}

func TestSelectOption_PublishesVisualizationRefresh(t *testing.T) {
	backend := &mockBackend{defs: []*core.UIDefinition{simpleDef("v1")}}
	s, bus := newTestSession(backend)
	ch := bus.Subscribe(events.TypeVisualizationRefresh)

	s.SelectOption(context.Background(), "ry~OUTER_COLOR", "ry~9016")

	select {
	case ev := <-ch:
		if ev.SessionID() != "s1" {
			t.Fatalf("unexpected session %q", ev.SessionID())
		}
	case <-time.After(time.Second):
		t.Fatal("expected visualization refresh event")
	}
}

func TestUpdateDimension_ReplacesWholesale(t *testing.T) {
	backend := &mockBackend{
		setDimResult: core.Dimensions{"L": 2500, "L1": 1200, "L2": 1300},
	}
	s, bus := newTestSession(backend)
	s.mu.Lock()
	s.dims = core.Dimensions{"L": 2000, "STALE": 1}
	s.mu.Unlock()

	ch := bus.Subscribe(events.TypeVisualizationRefresh)
	if err := s.UpdateDimension(context.Background(), "L", 2500); err != nil {
		t.Fatalf("UpdateDimension: %v", err)
	}

	dims := s.Dimensions()
	if _, ok := dims["STALE"]; ok {
		t.Fatal("stale key survived wholesale replacement")
	}
	if dims["L1"] != 1200 {
		t.Fatalf("cascaded value missing: %v", dims)
	}
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected visualization refresh after dimension set")
	}
}

func TestUpdateDimension_FailureLeavesStateUntouched(t *testing.T) {
	backend := &mockBackend{setDimErr: errors.New("rejected")}
	s, _ := newTestSession(backend)
	s.mu.Lock()
	s.dims = core.Dimensions{"L": 2000}
	s.mu.Unlock()

	if err := s.UpdateDimension(context.Background(), "L", 2500); err == nil {
		t.Fatal("expected error")
	}
	if s.Dimensions()["L"] != 2000 {
		t.Fatal("dimensions mutated on failure")
	}
}

func TestRefreshDimensions_FailureResetsToEmpty(t *testing.T) {
	backend := &mockBackend{dimsErr: errors.New("down")}
	s, _ := newTestSession(backend)
	s.mu.Lock()
	s.dims = core.Dimensions{"L": 2000}
	s.mu.Unlock()

	s.RefreshDimensions(context.Background())

	if len(s.Dimensions()) != 0 {
		t.Fatal("expected dimensions reset to empty, not left stale")
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	backend := &mockBackend{defs: []*core.UIDefinition{simpleDef("v1")}}
	s, _ := newTestSession(backend)
	s.RefreshDefinition(context.Background())
	s.SelectOption(context.Background(), "ry~OUTER_COLOR", "ry~9016")

	exported := s.Export("my window")
	if exported.CompatibilityHash == "" || exported.Options["ry~OUTER_COLOR"] != "ry~9016" {
		t.Fatalf("unexpected export: %+v", exported)
	}

	s.SelectOption(context.Background(), "ry~OUTER_COLOR", "ry~7016")
	if err := s.Import(context.Background(), exported); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if s.Selected()["ry~OUTER_COLOR"] != "ry~9016" {
		t.Fatal("import did not restore selection")
	}
}

func TestImport_HashMismatchAborts(t *testing.T) {
	backend := &mockBackend{defs: []*core.UIDefinition{simpleDef("v1")}}
	s, _ := newTestSession(backend)
	s.RefreshDefinition(context.Background())
	before := s.Selected()

	err := s.Import(context.Background(), core.ExportedConfiguration{
		CompatibilityHash: "deadbeef",
		Options:           core.SelectedOptions{"ry~OUTER_COLOR": "ry~0000"},
	})

	var domErr *core.DomainError
	if !errors.As(err, &domErr) || domErr.Code != core.CodeHashMismatch {
		t.Fatalf("expected hash mismatch error, got %v", err)
	}
	after := s.Selected()
	for k, v := range before {
		if after[k] != v {
			t.Fatal("partial mutation on aborted import")
		}
	}
}
