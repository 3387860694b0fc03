package textedit

import "testing"

func TestMapIndex(t *testing.T) {
	tests := []struct {
		name        string
		index       int
		editStart   int
		editEnd     int
		insertedLen int
		want        int
	}{
		{"before edit unchanged", 3, 10, 15, 2, 3},
		{"just before edit unchanged", 9, 10, 15, 2, 9},
		{"after replacement shifts by delta", 20, 10, 15, 2, 17},
		{"after insertion shifts forward", 20, 10, 10, 4, 24},
		{"after deletion shifts back", 20, 10, 15, 0, 15},
		{"inside span collapses to inserted end", 12, 10, 15, 3, 13},
		{"at span start collapses", 10, 10, 15, 3, 13},
		{"at span end collapses", 15, 10, 15, 3, 13},
		{"at pure insertion point shifts", 10, 10, 10, 4, 14},
		{"zero-length edit is identity before", 5, 10, 10, 0, 5},
		{"zero-length edit is identity after", 20, 10, 10, 0, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapIndex(tt.index, tt.editStart, tt.editEnd, tt.insertedLen)
			if got != tt.want {
				t.Errorf("MapIndex(%d, %d, %d, %d) = %d, want %d",
					tt.index, tt.editStart, tt.editEnd, tt.insertedLen, got, tt.want)
			}
		})
	}
}

// Indices outside the replaced span must land on the same character after
// the edit is applied to a real buffer.
func TestMapIndex_RoundTrip(t *testing.T) {
	buf := "the quick brown fox"
	edits := []struct {
		start, end  int
		replacement string
	}{
		{4, 9, "slow"},      // replacement, shorter
		{4, 9, "ponderous"}, // replacement, longer
		{10, 10, "very "},   // insertion
		{4, 10, ""},         // deletion
		{0, 0, ">> "},       // insertion at start
		{19, 19, " jumps"},  // insertion at end
	}

	for _, e := range edits {
		after := buf[:e.start] + e.replacement + buf[e.end:]
		for i := 0; i <= len(buf); i++ {
			if i >= e.start && i <= e.end {
				continue // inside the span, collapse rule applies instead
			}
			mapped := MapIndex(i, e.start, e.end, len(e.replacement))
			if mapped < 0 || mapped > len(after) {
				t.Fatalf("edit %+v: MapIndex(%d) = %d out of range [0,%d]", e, i, mapped, len(after))
			}
			if i < len(buf) && mapped < len(after) && buf[i] != after[mapped] {
				t.Errorf("edit %+v: index %d (%q) mapped to %d (%q)", e, i, buf[i], mapped, after[mapped])
			}
		}
	}
}

func TestMapAfterRemoval(t *testing.T) {
	tests := []struct {
		name                  string
		index, rmStart, rmEnd int
		want                  int
	}{
		{"before removal", 2, 5, 8, 2},
		{"after removal", 10, 5, 8, 7},
		{"inside removal collapses to start", 6, 5, 8, 5},
		{"at removal end collapses to start", 8, 5, 8, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapAfterRemoval(tt.index, tt.rmStart, tt.rmEnd); got != tt.want {
				t.Errorf("MapAfterRemoval(%d, %d, %d) = %d, want %d",
					tt.index, tt.rmStart, tt.rmEnd, got, tt.want)
			}
		})
	}
}

func TestTransformSelection(t *testing.T) {
	tests := []struct {
		name        string
		sel         Selection
		start, end  int
		insertedLen int
		want        Selection
	}{
		{"caret before replacement", Caret(2), 5, 8, 4, Caret(2)},
		{"caret after replacement shifts", Caret(12), 5, 8, 4, Caret(13)},
		{"caret inside collapses after insert", Caret(6), 5, 8, 4, Caret(9)},
		{"caret at span start collapses", Caret(5), 5, 8, 4, Caret(9)},
		{"caret at span end collapses", Caret(8), 5, 8, 4, Caret(9)},
		{"range intersecting collapses", Selection{6, 12}, 5, 8, 4, Caret(9)},
		{"range spanning whole edit collapses", Selection{2, 12}, 5, 8, 4, Caret(9)},
		{"range fully before untouched", Selection{1, 4}, 5, 8, 4, Selection{1, 4}},
		{"range fully after shifts", Selection{10, 14}, 5, 8, 1, Selection{8, 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TransformSelection(tt.sel, tt.start, tt.end, tt.insertedLen)
			if got != tt.want {
				t.Errorf("TransformSelection(%+v, %d, %d, %d) = %+v, want %+v",
					tt.sel, tt.start, tt.end, tt.insertedLen, got, tt.want)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(-3, 10); got != 0 {
		t.Errorf("Clamp(-3, 10) = %d, want 0", got)
	}
	if got := Clamp(15, 10); got != 10 {
		t.Errorf("Clamp(15, 10) = %d, want 10", got)
	}
	if got := Clamp(7, 10); got != 7 {
		t.Errorf("Clamp(7, 10) = %d, want 7", got)
	}
}
