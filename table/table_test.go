package table

import (
	"testing"
)

func sample(t *testing.T) *Table {
	t.Helper()
	tb, err := New([]string{"a", "b", "c"}, [][]Value{
		{IntOf(1), TextOf("x"), Null},
		{IntOf(2), TextOf("y"), IntOf(9)},
		{IntOf(3), Null, TextOf("z")},
	})
	if err != nil {
		t.Fatal(err)
	}
	return tb
}

func TestNewRejectsBadShape(t *testing.T) {
	if _, err := New([]string{"a", "a"}, nil); err == nil {
		t.Error("duplicate columns accepted")
	}
	if _, err := New([]string{"a"}, [][]Value{{IntOf(1), IntOf(2)}}); err == nil {
		t.Error("wide row accepted")
	}
}

func TestProject(t *testing.T) {
	p := sample(t).Project([]string{"c", "a", "missing", "a"})
	if got := p.Columns(); len(got) != 2 || got[0] != "c" || got[1] != "a" {
		t.Fatalf("Columns() = %v", got)
	}
	if p.Len() != 3 {
		t.Fatalf("Len() = %d", p.Len())
	}
	if v := p.Get(1, "c"); !v.Equal(IntOf(9)) {
		t.Errorf("Get(1, c) = %v", v)
	}
}

func TestFilterKeepsOrder(t *testing.T) {
	tb := sample(t)
	f := tb.Filter(func(i int) bool { return i != 1 })
	if f.Len() != 2 {
		t.Fatalf("Len() = %d", f.Len())
	}
	if n, _ := f.Get(1, "a").Int(); n != 3 {
		t.Errorf("second row a = %d, want 3", n)
	}
}

func TestExtend(t *testing.T) {
	tb := sample(t)
	out, err := tb.Extend([]string{"d"}, [][]Value{{IntOf(7)}, {Null}, {TextOf("q")}})
	if err != nil {
		t.Fatal(err)
	}
	if out.Width() != 4 || tb.Width() != 3 {
		t.Fatalf("widths = %d, %d", out.Width(), tb.Width())
	}
	if !out.Get(2, "d").Equal(TextOf("q")) {
		t.Errorf("Get(2, d) = %v", out.Get(2, "d"))
	}
	if _, err := tb.Extend([]string{"a"}, [][]Value{{Null}, {Null}, {Null}}); err == nil {
		t.Error("duplicate column accepted")
	}
	if _, err := tb.Extend([]string{"d"}, [][]Value{{Null}}); err == nil {
		t.Error("row count mismatch accepted")
	}
}

func TestEqual(t *testing.T) {
	a, b := sample(t), sample(t)
	if !a.Equal(b) {
		t.Fatal("identical tables not equal")
	}
	c := a.Filter(func(i int) bool { return true })
	if !a.Equal(c) {
		t.Fatal("filtered copy not equal")
	}
	d, _ := New([]string{"a", "b", "c"}, [][]Value{
		{IntOf(1), TextOf("x"), Null},
		{IntOf(2), TextOf("y"), IntOf(9)},
		{IntOf(3), Null, Null},
	})
	if a.Equal(d) {
		t.Fatal("different tables equal")
	}
}

func TestBuilderPadsRows(t *testing.T) {
	b := NewBuilder("a", "b")
	b.Append(IntOf(1))
	b.AppendRecord(Record{"b": TextOf("x"), "zz": IntOf(3)})
	tb := b.Build()
	if tb.Len() != 2 {
		t.Fatalf("Len() = %d", tb.Len())
	}
	if !tb.Get(0, "b").IsMissing() || !tb.Get(1, "a").IsMissing() {
		t.Error("padding should be missing")
	}
	if tb.Has("zz") {
		t.Error("unknown record field became a column")
	}
}

func TestValue(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		kind Kind
		str  string
	}{
		{"missing", Null, Missing, ""},
		{"int", IntOf(-4), Int, "-4"},
		{"text", TextOf("ab"), Text, "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.v.Kind() != tt.kind || tt.v.String() != tt.str {
				t.Errorf("got %v %q", tt.v.Kind(), tt.v.String())
			}
		})
	}
	if n, ok := TextOf("06").Int(); !ok || n != 6 {
		t.Errorf("TextOf(06).Int() = %d, %v", n, ok)
	}
	if _, ok := TextOf("a").Int(); ok {
		t.Error("non-numeric text parsed as int")
	}
}

func TestFromAny(t *testing.T) {
	tests := []struct {
		in   any
		want Value
	}{
		{nil, Null},
		{float64(12), IntOf(12)},
		{float64(1.5), Null},
		{int64(3), IntOf(3)},
		{uint8(2), IntOf(2)},
		{"x", TextOf("x")},
		{true, Null},
	}
	for _, tt := range tests {
		if got := FromAny(tt.in); !got.Equal(tt.want) {
			t.Errorf("FromAny(%#v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
