package limit

import "testing"

func TestParseFixed(t *testing.T) {
	l, err := Parse(19.0)
	if err != nil {
		t.Fatal(err)
	}
	if l.Kind != Fixed || l.Number != 19.0 {
		t.Fatalf("got %+v, want Fixed(19.0)", l)
	}
}

func TestParseHeightMacro(t *testing.T) {
	for _, tc := range []struct {
		raw      string
		wantSign float64
	}{
		{"H+5", 5},
		{"H-50", -50},
		{"h+5", 5},
	} {
		l, err := Parse(tc.raw)
		if err != nil {
			t.Fatalf("%s: %v", tc.raw, err)
		}
		if l.Kind != Height || l.Offset != tc.wantSign {
			t.Fatalf("%s: got %+v, want Height(%v)", tc.raw, l, tc.wantSign)
		}
	}
}

func TestParseColumnRef(t *testing.T) {
	l, err := Parse("SWin_Avg")
	if err != nil {
		t.Fatal(err)
	}
	if l.Kind != ColumnRef || l.Column != "SWin_Avg" {
		t.Fatalf("got %+v, want ColumnRef(SWin_Avg)", l)
	}
}

func TestParseNone(t *testing.T) {
	l, err := Parse(nil)
	if err != nil {
		t.Fatal(err)
	}
	if l.Kind != None {
		t.Fatalf("got %+v, want None", l)
	}
}

func TestResolveHeight(t *testing.T) {
	l, _ := Parse("H-50")
	v, ok := l.Resolve(160, nil)
	if !ok || v != 110 {
		t.Fatalf("Resolve = (%v, %v), want (110, true)", v, ok)
	}
}

func TestResolveColumnRefMissing(t *testing.T) {
	l, _ := Parse("SomeCol")
	lookup := func(name string) (float64, bool) { return 0, false }
	if _, ok := l.Resolve(0, lookup); ok {
		t.Fatal("expected missing column-ref value to resolve to no constraint")
	}
}
