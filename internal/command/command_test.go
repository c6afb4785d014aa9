package command

import (
	"encoding/xml"
	"strings"
	"testing"
)

// decodeParams parses a built command back into its parameter map for
// structural assertions.
func decodeParams(t *testing.T, cmd string) (string, map[string]string) {
	t.Helper()

	var envelope struct {
		Commands []struct {
			Name       string `xml:"name,attr"`
			Parameters []struct {
				Name  string `xml:"name,attr"`
				Value string `xml:"value,attr"`
			} `xml:"Parameter"`
		} `xml:"Command"`
	}
	if err := xml.Unmarshal([]byte(cmd), &envelope); err != nil {
		t.Fatalf("built command is not valid XML: %v\n%s", err, cmd)
	}
	if len(envelope.Commands) != 1 {
		t.Fatalf("expected exactly one command, got %d", len(envelope.Commands))
	}

	params := make(map[string]string)
	for _, p := range envelope.Commands[0].Parameters {
		params[p.Name] = p.Value
	}
	return envelope.Commands[0].Name, params
}

func TestBuildGetDimensionsCommand(t *testing.T) {
	name, params := decodeParams(t, BuildGetDimensionsCommand())
	if name != "Model.GetDimensions" {
		t.Fatalf("unexpected command name %q", name)
	}
	if len(params) != 0 {
		t.Fatalf("expected no parameters, got %v", params)
	}
}

func TestBuildSetDimensionCommand_KeySplitting(t *testing.T) {
	tests := []struct {
		key       string
		value     float64
		wantName  string
		wantIndex string
		wantValue string
	}{
		{"L2", 5, "L", "2", "5"},
		{"A", 5, "A", "0", "5"},
		{"L2", 900.5, "L", "2", "900,5"},
		{"H10", 1250.25, "H", "10", "1250,25"},
	}

	for _, tt := range tests {
		name, params := decodeParams(t, BuildSetDimensionCommand(tt.key, tt.value))
		if name != "Model.SetDimensionValue" {
			t.Fatalf("unexpected command name %q", name)
		}
		if params["name"] != tt.wantName {
			t.Errorf("key %q: name = %q, want %q", tt.key, params["name"], tt.wantName)
		}
		if params["subDimensionIndex"] != tt.wantIndex {
			t.Errorf("key %q: subDimensionIndex = %q, want %q", tt.key, params["subDimensionIndex"], tt.wantIndex)
		}
		if params["value"] != tt.wantValue {
			t.Errorf("key %q: value = %q, want %q", tt.key, params["value"], tt.wantValue)
		}
	}
}

func TestBuildSetOptionCommand_PrefixRoundTrip(t *testing.T) {
	cmd := BuildSetOptionCommand("maker~OUTER_COLOR", "maker~7016", "RY_")
	name, params := decodeParams(t, cmd)

	if name != "Model.SetOptionValue" {
		t.Fatalf("unexpected command name %q", name)
	}
	if params["name"] != "RY_OUTER_COLOR" {
		t.Errorf("name = %q, want RY_OUTER_COLOR", params["name"])
	}
	if params["value"] != "RY_7016" {
		t.Errorf("value = %q, want RY_7016", params["value"])
	}
	for _, flag := range []string{"regenerate", "sendEvents", "applyAllBinded"} {
		if params[flag] != "1" {
			t.Errorf("%s = %q, want 1", flag, params[flag])
		}
	}
}

func TestBuildSetOptionCommand_BareTokens(t *testing.T) {
	_, params := decodeParams(t, BuildSetOptionCommand("HANDLE", "STD", "RY_"))
	if params["name"] != "RY_HANDLE" || params["value"] != "RY_STD" {
		t.Fatalf("unexpected params: %v", params)
	}
}

func TestSplitDimensionKey(t *testing.T) {
	tests := []struct {
		key      string
		wantName string
		wantIdx  int
	}{
		{"L2", "L", 2},
		{"A", "A", 0},
		{"H10", "H", 10},
		{"AB3", "AB", 3},
		{"", "", 0},
	}
	for _, tt := range tests {
		name, idx := SplitDimensionKey(tt.key)
		if name != tt.wantName || idx != tt.wantIdx {
			t.Errorf("SplitDimensionKey(%q) = (%q, %d), want (%q, %d)",
				tt.key, name, idx, tt.wantName, tt.wantIdx)
		}
	}
}

func TestBuiltCommandsEscapeAttributeValues(t *testing.T) {
	cmd := BuildSetOptionCommand(`maker~A"B`, "maker~V", "RY_")
	if strings.Contains(cmd, `A"B`) {
		t.Fatalf("attribute value not escaped: %s", cmd)
	}
	_, params := decodeParams(t, cmd)
	if params["name"] != `RY_A"B` {
		t.Fatalf("round trip lost the quote: %q", params["name"])
	}
}
