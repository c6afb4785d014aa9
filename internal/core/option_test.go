package core

import (
	"reflect"
	"testing"
)

func testDefinition() *UIDefinition {
	return &UIDefinition{
		Name: "PVC Window 2-leaf",
		Options: []ConfigOption{
			{Order: 2, Tab: "Colors", Section: "Outer", Widget: WidgetColorPicker, Code: "ry~OUTER_COLOR", Type: "color", ValueString: "ry~7016"},
			{Order: 1, Tab: "Colors", Section: "Outer", Widget: WidgetDropdown, Code: "ry~OUTER_FINISH", Type: "finish", ValueString: "ry~MATT"},
			{Order: 1, Tab: "Colors", Section: "Inner", Widget: WidgetColorPicker, Code: "ry~INNER_COLOR", Type: "color", ValueString: "ry~9016"},
			{Order: 5, Tab: "Hardware", Section: "Handles", Widget: WidgetDropdown, Code: "ry~HANDLE", Type: "hardware", ValueString: "ry~STD"},
			{Order: 3, Tab: "Hardware", Section: "Handles", Widget: WidgetCheckbox, Code: "ry~LOCKABLE", Type: "hardware", ValueString: "0"},
			{Order: 0, Tab: "Hardware", Section: "Hinges", Widget: WidgetDropdown, Code: "ry~HINGE", Type: "hardware", ValueString: "ry~STD", Hidden: true},
		},
	}
}

func TestTabs_FirstSeenOrderExcludesHidden(t *testing.T) {
	def := testDefinition()
	got := def.Tabs()
	want := []string{"Colors", "Hardware"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tabs() = %v, want %v", got, want)
	}

	// A tab contributed only by hidden options must not appear.
	def.Options = append(def.Options, ConfigOption{Tab: "Internal", Hidden: true})
	if got := def.Tabs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Tabs() with hidden-only tab = %v, want %v", got, want)
	}
}

func TestSections_FirstSeenOrder(t *testing.T) {
	def := testDefinition()
	got := def.Sections("Colors")
	want := []string{"Outer", "Inner"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Sections(Colors) = %v, want %v", got, want)
	}

	// Hinges only holds a hidden option.
	got = def.Sections("Hardware")
	want = []string{"Handles"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Sections(Hardware) = %v, want %v", got, want)
	}
}

func TestOptionsForTab_SortedExcludesHidden(t *testing.T) {
	def := testDefinition()
	opts := def.OptionsForTab("Hardware")
	if len(opts) != 2 {
		t.Fatalf("expected 2 options, got %d", len(opts))
	}
	if opts[0].Code != "ry~LOCKABLE" || opts[1].Code != "ry~HANDLE" {
		t.Fatalf("expected order LOCKABLE, HANDLE, got %s, %s", opts[0].Code, opts[1].Code)
	}
	for _, opt := range opts {
		if opt.Hidden {
			t.Fatalf("hidden option %s leaked into output", opt.Code)
		}
	}
}

func TestOptionsForTab_StableSortOnEqualOrder(t *testing.T) {
	def := &UIDefinition{Options: []ConfigOption{
		{Order: 1, Tab: "T", Code: "a"},
		{Order: 1, Tab: "T", Code: "b"},
		{Order: 0, Tab: "T", Code: "c"},
		{Order: 1, Tab: "T", Code: "d"},
	}}
	opts := def.OptionsForTab("T")
	want := []string{"c", "a", "b", "d"}
	for i, code := range want {
		if opts[i].Code != code {
			t.Fatalf("expected %s at %d, got %s", code, i, opts[i].Code)
		}
	}
}

func TestOptionsForSection(t *testing.T) {
	def := testDefinition()
	opts := def.OptionsForSection("Colors", "Outer")
	if len(opts) != 2 {
		t.Fatalf("expected 2 options, got %d", len(opts))
	}
	if opts[0].Code != "ry~OUTER_FINISH" || opts[1].Code != "ry~OUTER_COLOR" {
		t.Fatalf("unexpected order: %s, %s", opts[0].Code, opts[1].Code)
	}
}

func TestSeed_NeverOverwrites(t *testing.T) {
	selected := SelectedOptions{"A": "1"}
	def := &UIDefinition{Options: []ConfigOption{
		{Code: "A", ValueString: "9"},
		{Code: "B", ValueString: "2"},
	}}
	selected.Seed(def)

	if selected["A"] != "1" {
		t.Errorf("existing selection overwritten: got %q", selected["A"])
	}
	if selected["B"] != "2" {
		t.Errorf("new code not seeded: got %q", selected["B"])
	}
}

func TestSeed_SkipsHidden(t *testing.T) {
	selected := SelectedOptions{}
	def := &UIDefinition{Options: []ConfigOption{
		{Code: "A", ValueString: "1", Hidden: true},
		{Code: "B", ValueString: "2"},
	}}
	selected.Seed(def)
	if _, ok := selected["A"]; ok {
		t.Errorf("hidden option seeded")
	}
	if selected["B"] != "2" {
		t.Errorf("visible option not seeded")
	}
}

func TestStripMakerPrefix(t *testing.T) {
	tests := []struct{ in, want string }{
		{"maker~OUTER_COLOR", "OUTER_COLOR"},
		{"ry~7016", "7016"},
		{"PLAIN", "PLAIN"},
		{"a~b~c", "b~c"},
		{"~X", "X"},
	}
	for _, tt := range tests {
		if got := StripMakerPrefix(tt.in); got != tt.want {
			t.Errorf("StripMakerPrefix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewSyntheticDimensionsOption(t *testing.T) {
	opt := NewSyntheticDimensionsOption()
	if opt.Code != SyntheticDimensionsCode {
		t.Errorf("unexpected code %q", opt.Code)
	}
	if opt.Widget != WidgetDimensions || opt.Order != 1000 || opt.Hidden {
		t.Errorf("unexpected shape: %+v", opt)
	}
	if !opt.IsSynthetic() {
		t.Errorf("IsSynthetic() = false")
	}
	if opt.Tab != "Dimensions" || opt.Section != "Window Dimensions" {
		t.Errorf("unexpected placement: %q / %q", opt.Tab, opt.Section)
	}
}

func TestOptionLookup(t *testing.T) {
	def := testDefinition()
	if _, ok := def.Option("ry~HANDLE"); !ok {
		t.Fatalf("expected option found")
	}
	if _, ok := def.Option("ry~NOPE"); ok {
		t.Fatalf("expected option missing")
	}
}
