package core

// Widget identifies the UI control rendered for an option.
type Widget string

const (
	WidgetCheckbox    Widget = "checkbox"
	WidgetDropdown    Widget = "dropdown"
	WidgetColorPicker Widget = "colorpicker"
	WidgetDimensions  Widget = "dimensions"
	WidgetUnknown     Widget = "unknown"
)

// knownWidgets is the closed set of renderable widget variants.
var knownWidgets = map[Widget]bool{
	WidgetCheckbox:    true,
	WidgetDropdown:    true,
	WidgetColorPicker: true,
	WidgetDimensions:  true,
}

// ParseWidget maps a vendor widget tag onto the closed widget set.
// An unrecognized tag is a typed error, not a silent fallback: callers
// decide whether to skip the option or surface the failure.
func ParseWidget(tag string) (Widget, error) {
	w := Widget(tag)
	if knownWidgets[w] {
		return w, nil
	}
	return WidgetUnknown, ErrValidation(CodeUnknownWidget, "unrecognized widget tag").
		WithDetail("tag", tag)
}

// Known reports whether the widget is one of the renderable variants.
func (w Widget) Known() bool {
	return knownWidgets[w]
}
