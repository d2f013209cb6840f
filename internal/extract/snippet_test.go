package extract

import (
	"reflect"
	"testing"
)

func TestSmartSnippet(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		parts int
		want  []string
	}{
		{"empty", nil, 3, nil},
		{"only blanks", []string{"", "  ", "\t"}, 3, nil},
		{"fewer than parts", []string{"a", "", "b"}, 3, []string{"a", "b"}},
		{"exact", []string{"a", "b", "c"}, 3, []string{"a", "b", "c"}},
		{"evenly spaced", []string{"1", "2", "3", "4", "5", "6", "7", "8", "9"}, 3, []string{"1", "4", "7"}},
		{"uneven", []string{"1", "2", "3", "4", "5", "6", "7"}, 3, []string{"1", "3", "5"}},
		{"default parts", []string{"1", "2", "3", "4", "5", "6"}, 0, []string{"1", "3", "5"}},
		{"single part", []string{"x", "y"}, 1, []string{"x"}},
		{"trims", []string{"  hello  ", "world"}, 3, []string{"hello", "world"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SmartSnippet(tt.lines, tt.parts)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SmartSnippet(%q, %d) = %q, want %q", tt.lines, tt.parts, got, tt.want)
			}
		})
	}
}

func TestSmartSnippet_lengthAndOrder(t *testing.T) {
	var lines []string
	for i := 0; i < 50; i++ {
		lines = append(lines, string(rune('A'+i%26))+string(rune('a'+i/26)))
	}
	index := map[string]int{}
	for i, l := range lines {
		index[l] = i
	}
	for parts := 1; parts <= 60; parts++ {
		got := SmartSnippet(lines, parts)
		want := parts
		if want > len(lines) {
			want = len(lines)
		}
		if len(got) != want {
			t.Fatalf("parts=%d: got %d lines, want %d", parts, len(got), want)
		}
		prev := -1
		for _, l := range got {
			i, ok := index[l]
			if !ok || i <= prev {
				t.Fatalf("parts=%d: %q out of order or not from input", parts, l)
			}
			prev = i
		}
	}
}

func TestSmartSnippetText(t *testing.T) {
	if got := SmartSnippetText("a\nb\nc\nd\ne\nf", 3); got != "a\nc\ne" {
		t.Errorf("got %q", got)
	}
	if got := SmartSnippetText("", 3); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestSampleSlices(t *testing.T) {
	items := make([]int, 31)
	for i := range items {
		items[i] = i
	}
	got := sampleSlices(items, 10)
	if len(got) != 30 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0] != 0 || got[10] != 10 || got[20] != 21 || got[29] != 30 {
		t.Errorf("got %v", got)
	}
	if short := sampleSlices(items[:30], 10); len(short) != 30 {
		t.Errorf("30 items should be kept whole, got %d", len(short))
	}
}

func TestRenderTable(t *testing.T) {
	got := renderTable([]string{"Kota", "Jumlah"}, [][]string{{"Bandung", "7"}, {"Bogor", "12"}})
	want := "   Kota Jumlah\nBandung      7\n  Bogor     12"
	if got != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
}
