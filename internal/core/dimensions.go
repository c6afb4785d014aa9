package core

import (
	"sort"
	"strconv"
	"strings"
)

// Dimensions maps a dimension key ("L", "L1", "L2", ...) to its value in
// millimeters. Keys of length 1 are master dimensions; longer keys whose
// first character matches a master are that master's sub-dimensions.
type Dimensions map[string]float64

// Clone returns a copy safe to hand to another goroutine.
func (d Dimensions) Clone() Dimensions {
	out := make(Dimensions, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// SubDimension is one named entry of a dimension group.
type SubDimension struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// DimensionGroup is a view-layer projection: one master dimension with its
// sub-dimensions sorted by numeric suffix. It is recomputed on every change
// and never stored.
type DimensionGroup struct {
	Total         string         `json:"total"`
	TotalValue    float64        `json:"totalValue"`
	SubDimensions []SubDimension `json:"subDimensions"`
}

// ParseDimensionString parses the vendor's "KEY=VALUE;KEY=VALUE" result
// format. Segments without a '=' and values that fail to parse are skipped
// silently; thousands separators are stripped before parsing.
func ParseDimensionString(s string) Dimensions {
	dims := make(Dimensions)
	for _, segment := range strings.Split(s, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		key, raw, found := strings.Cut(segment, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || key == "" {
			continue
		}
		dims[key] = value
	}
	return dims
}

// GroupDimensions projects a dimension map into master groups. Sub-dimensions
// whose leading character matches no master are dropped; this mirrors the
// vendor's behavior for detached geometry and is covered by tests as accepted
// policy, not an error.
func GroupDimensions(d Dimensions) []DimensionGroup {
	byMaster := make(map[string]*DimensionGroup)
	var masters []string
	for key, value := range d {
		if len(key) == 1 {
			byMaster[key] = &DimensionGroup{Total: key, TotalValue: value}
			masters = append(masters, key)
		}
	}
	sort.Strings(masters)

	for key, value := range d {
		if len(key) <= 1 {
			continue
		}
		group, ok := byMaster[key[:1]]
		if !ok {
			continue
		}
		group.SubDimensions = append(group.SubDimensions, SubDimension{Name: key, Value: value})
	}

	groups := make([]DimensionGroup, 0, len(masters))
	for _, master := range masters {
		group := byMaster[master]
		sort.Slice(group.SubDimensions, func(i, j int) bool {
			return subDimensionIndex(group.SubDimensions[i].Name) < subDimensionIndex(group.SubDimensions[j].Name)
		})
		groups = append(groups, *group)
	}
	return groups
}

// subDimensionIndex extracts the numeric suffix after the leading letter.
// Unparsable suffixes sort last.
func subDimensionIndex(name string) int {
	if len(name) < 2 {
		return int(^uint(0) >> 1)
	}
	idx, err := strconv.Atoi(name[1:])
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return idx
}
