// Package command translates between typed requests and the vendor CAD
// service's XML command envelope.
package command

import (
	"encoding/xml"
	"strconv"
	"strings"
	"unicode"

	"github.com/fenestra-io/configurator/internal/core"
)

// commands is the vendor's XML envelope: one or more named commands, each
// carrying name/value parameters.
type commands struct {
	XMLName  xml.Name  `xml:"Commands"`
	Commands []element `xml:"Command"`
}

type element struct {
	Name       string      `xml:"name,attr"`
	Parameters []parameter `xml:"Parameter"`
}

type parameter struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

func marshal(cmd element) string {
	out, err := xml.Marshal(commands{Commands: []element{cmd}})
	if err != nil {
		// Only non-representable runes can fail here; command content is
		// built from validated tokens.
		return ""
	}
	return string(out)
}

// BuildGetDimensionsCommand returns the fixed envelope requesting the full
// dimension map.
func BuildGetDimensionsCommand() string {
	return marshal(element{Name: "Model.GetDimensions"})
}

// BuildSetDimensionCommand builds a Model.SetDimensionValue command. The
// dimension key splits into a leading alphabetic name and a trailing numeric
// sub-dimension index (0 when absent). The value uses a comma as decimal
// separator, per the vendor's locale convention.
func BuildSetDimensionCommand(dimensionKey string, value float64) string {
	name, index := SplitDimensionKey(dimensionKey)
	return marshal(element{
		Name: "Model.SetDimensionValue",
		Parameters: []parameter{
			{Name: "name", Value: name},
			{Name: "subDimensionIndex", Value: strconv.Itoa(index)},
			{Name: "value", Value: formatVendorFloat(value)},
		},
	})
}

// BuildSetOptionCommand builds a Model.SetOptionValue command. Any "maker~"
// prefix is stripped from both the code and the value, and the bare tokens
// are re-prefixed with the maker-specific prefix.
func BuildSetOptionCommand(optionCode, optionValue, makerPrefix string) string {
	return marshal(element{
		Name: "Model.SetOptionValue",
		Parameters: []parameter{
			{Name: "name", Value: makerPrefix + core.StripMakerPrefix(optionCode)},
			{Name: "value", Value: makerPrefix + core.StripMakerPrefix(optionValue)},
			{Name: "regenerate", Value: "1"},
			{Name: "sendEvents", Value: "1"},
			{Name: "applyAllBinded", Value: "1"},
		},
	})
}

// SplitDimensionKey splits "L2" into ("L", 2) and "A" into ("A", 0).
func SplitDimensionKey(key string) (string, int) {
	cut := len(key)
	for i, r := range key {
		if !unicode.IsLetter(r) {
			cut = i
			break
		}
	}
	name := key[:cut]
	index, err := strconv.Atoi(key[cut:])
	if err != nil {
		index = 0
	}
	return name, index
}

func formatVendorFloat(v float64) string {
	return strings.ReplaceAll(strconv.FormatFloat(v, 'f', -1, 64), ".", ",")
}
