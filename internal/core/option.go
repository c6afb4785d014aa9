package core

import (
	"sort"
	"strings"
)

// MakerSeparator splits a composite "maker~NAME" token into its parts.
const MakerSeparator = "~"

// SyntheticDimensionsCode is the code of the client-injected pseudo-option
// that renders the dimensions panel. It is never sent to the vendor and is
// re-appended after every definition refresh.
const SyntheticDimensionsCode = "virtual" + MakerSeparator + "dimensions"

// OptionValue is one selectable value for an option.
type OptionValue struct {
	ValueString  string  `json:"valueString"`
	ValueNumeric float64 `json:"valueNumeric,omitempty"`
}

// ConfigOption represents one configurable product property.
type ConfigOption struct {
	Order        int           `json:"order"`
	Tab          string        `json:"tab"`
	Section      string        `json:"section"`
	Widget       Widget        `json:"widget"`
	Maker        string        `json:"maker"`
	Code         string        `json:"code"` // unique key, "maker~NAME"
	Type         string        `json:"type"`
	Description  string        `json:"description,omitempty"`
	ValueString  string        `json:"valueString"`
	ValueNumeric float64       `json:"valueNumeric,omitempty"`
	Hidden       bool          `json:"hidden"`
	Values       []OptionValue `json:"values"`
}

// IsSynthetic reports whether the option is the injected dimensions panel.
func (o ConfigOption) IsSynthetic() bool {
	return o.Code == SyntheticDimensionsCode
}

// BareName returns the option code with any "maker~" prefix stripped.
func (o ConfigOption) BareName() string {
	return StripMakerPrefix(o.Code)
}

// StripMakerPrefix removes a leading "maker~" segment from a composite token.
// Tokens without a separator are returned unchanged.
func StripMakerPrefix(token string) string {
	if _, rest, found := strings.Cut(token, MakerSeparator); found {
		return rest
	}
	return token
}

// NewSyntheticDimensionsOption builds the pseudo-option that hosts the
// dimensions widget. Fixed shape: ordered last, own tab and section, no
// candidate values.
func NewSyntheticDimensionsOption() ConfigOption {
	return ConfigOption{
		Order:   1000,
		Tab:     "Dimensions",
		Section: "Window Dimensions",
		Widget:  WidgetDimensions,
		Maker:   "virtual",
		Code:    SyntheticDimensionsCode,
		Type:    "dimensions",
		Hidden:  false,
		Values:  []OptionValue{},
	}
}

// UIDefinition is the full configuration tree for one model instance.
// It is replaced wholesale on every option change and never mutated in
// place except for the synthetic-dimensions re-injection.
type UIDefinition struct {
	Name    string         `json:"name"`
	Options []ConfigOption `json:"options"`
}

// SelectedOptions maps an option code to its currently chosen value token.
type SelectedOptions map[string]string

// Clone returns a shallow copy safe to hand to another goroutine.
func (s SelectedOptions) Clone() SelectedOptions {
	out := make(SelectedOptions, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Tabs returns the distinct tab names of non-hidden options in first-seen order.
func (d *UIDefinition) Tabs() []string {
	var tabs []string
	seen := make(map[string]bool)
	for _, opt := range d.Options {
		if opt.Hidden || seen[opt.Tab] {
			continue
		}
		seen[opt.Tab] = true
		tabs = append(tabs, opt.Tab)
	}
	return tabs
}

// Sections returns the distinct section names of non-hidden options within
// a tab, in first-seen order.
func (d *UIDefinition) Sections(tab string) []string {
	var sections []string
	seen := make(map[string]bool)
	for _, opt := range d.Options {
		if opt.Hidden || opt.Tab != tab || seen[opt.Section] {
			continue
		}
		seen[opt.Section] = true
		sections = append(sections, opt.Section)
	}
	return sections
}

// OptionsForTab returns the non-hidden options of a tab sorted by order.
// The sort is stable: equal orders keep their input relative order.
func (d *UIDefinition) OptionsForTab(tab string) []ConfigOption {
	var opts []ConfigOption
	for _, opt := range d.Options {
		if !opt.Hidden && opt.Tab == tab {
			opts = append(opts, opt)
		}
	}
	sort.SliceStable(opts, func(i, j int) bool {
		return opts[i].Order < opts[j].Order
	})
	return opts
}

// OptionsForSection returns the non-hidden options of a tab section sorted
// by order.
func (d *UIDefinition) OptionsForSection(tab, section string) []ConfigOption {
	var opts []ConfigOption
	for _, opt := range d.Options {
		if !opt.Hidden && opt.Tab == tab && opt.Section == section {
			opts = append(opts, opt)
		}
	}
	sort.SliceStable(opts, func(i, j int) bool {
		return opts[i].Order < opts[j].Order
	})
	return opts
}

// Option looks up an option by code.
func (d *UIDefinition) Option(code string) (ConfigOption, bool) {
	for _, opt := range d.Options {
		if opt.Code == code {
			return opt, true
		}
	}
	return ConfigOption{}, false
}

// Seed fills missing selections from option defaults. Existing selections
// are never overwritten; hidden options are not seeded.
func (s SelectedOptions) Seed(def *UIDefinition) {
	for _, opt := range def.Options {
		if opt.Hidden {
			continue
		}
		if _, ok := s[opt.Code]; !ok {
			s[opt.Code] = opt.ValueString
		}
	}
}
