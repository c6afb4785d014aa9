package core

import (
	"math"
	"reflect"
	"testing"
)

func TestParseDimensionString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Dimensions
	}{
		{
			name: "typical result string",
			in:   "L=2500;L1=861.17;L2=777.67;A=2500;A1=900",
			want: Dimensions{"L": 2500, "L1": 861.17, "L2": 777.67, "A": 2500, "A1": 900},
		},
		{
			name: "trailing separator and blanks",
			in:   "L=2500;;L1=861.17;",
			want: Dimensions{"L": 2500, "L1": 861.17},
		},
		{
			name: "thousands separators stripped",
			in:   "L=2,500;H=1,250.5",
			want: Dimensions{"L": 2500, "H": 1250.5},
		},
		{
			name: "unparsable segments skipped",
			in:   "L=2500;BROKEN;H=abc;K=",
			want: Dimensions{"L": 2500},
		},
		{
			name: "empty input",
			in:   "",
			want: Dimensions{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDimensionString(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ParseDimensionString(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestGroupDimensions(t *testing.T) {
	dims := ParseDimensionString("L=2500;L1=861.17;L2=777.67;A=2500;A1=900")
	groups := GroupDimensions(dims)

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Total != "A" || groups[1].Total != "L" {
		t.Fatalf("expected groups A, L, got %s, %s", groups[0].Total, groups[1].Total)
	}

	l := groups[1]
	if l.TotalValue != 2500 {
		t.Errorf("expected L total 2500, got %v", l.TotalValue)
	}
	if len(l.SubDimensions) != 2 {
		t.Fatalf("expected 2 sub-dimensions for L, got %d", len(l.SubDimensions))
	}
	if l.SubDimensions[0].Name != "L1" || l.SubDimensions[1].Name != "L2" {
		t.Errorf("expected order L1, L2, got %s, %s", l.SubDimensions[0].Name, l.SubDimensions[1].Name)
	}
	if l.SubDimensions[0].Value != 861.17 || l.SubDimensions[1].Value != 777.67 {
		t.Errorf("unexpected sub-dimension values: %v", l.SubDimensions)
	}
}

func TestGroupDimensions_Idempotent(t *testing.T) {
	const s = "L=2500;L1=861.17;L2=777.67;A=2500;A1=900"
	first := GroupDimensions(ParseDimensionString(s))
	second := GroupDimensions(ParseDimensionString(s))
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("grouping is not deterministic: %v vs %v", first, second)
	}
}

func TestGroupDimensions_OrphanSubDimensionsDropped(t *testing.T) {
	// Sub-dimensions without a matching master are silently dropped.
	// Accepted policy, not a bug.
	groups := GroupDimensions(Dimensions{"L": 100, "L1": 40, "X9": 7})
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if len(groups[0].SubDimensions) != 1 {
		t.Fatalf("expected orphan X9 dropped, got %v", groups[0].SubDimensions)
	}
}

func TestGroupDimensions_NumericSuffixOrder(t *testing.T) {
	groups := GroupDimensions(Dimensions{"L": 1, "L10": 10, "L2": 2, "L1": 1})
	sub := groups[0].SubDimensions
	want := []string{"L1", "L2", "L10"}
	for i, name := range want {
		if sub[i].Name != name {
			t.Fatalf("expected %v at %d, got %v (all: %v)", name, i, sub[i].Name, sub)
		}
	}
}

func TestDimensionsClone(t *testing.T) {
	orig := Dimensions{"L": 100}
	clone := orig.Clone()
	clone["L"] = 200
	if orig["L"] != 100 {
		t.Fatalf("clone mutated original")
	}
	if math.IsNaN(clone["L"]) {
		t.Fatal("unexpected NaN")
	}
}
