// Package textedit provides pure index/selection transforms over buffer
// offsets. Every edit is described as a half-open replaced span
// [editStart, editEnd) plus the length of the text inserted in its place.
// All offsets are byte offsets into the buffer.
package textedit

// Selection is a caret or range selection into the buffer.
// Start == End denotes a bare caret with nothing selected.
type Selection struct {
	Start int
	End   int
}

// Caret returns a collapsed selection at pos.
func Caret(pos int) Selection {
	return Selection{Start: pos, End: pos}
}

// IsCaret reports whether the selection is collapsed.
func (s Selection) IsCaret() bool {
	return s.Start == s.End
}

// Clamp restricts i to [0, n].
func Clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

// MapIndex returns where index lands after the span [editStart, editEnd)
// is replaced by insertedLen bytes.
//
// Indices strictly before the edit are unchanged. Indices strictly after it
// shift by the edit's net length delta. An index inside the replaced span
// (boundaries included) collapses to the end of the inserted content.
func MapIndex(index, editStart, editEnd, insertedLen int) int {
	if index < editStart {
		return index
	}
	if index > editEnd {
		return index + insertedLen - (editEnd - editStart)
	}
	return editStart + insertedLen
}

// MapAfterRemoval is MapIndex specialized for a deletion with no insertion:
// indices inside the removed span collapse to removeStart.
func MapAfterRemoval(index, removeStart, removeEnd int) int {
	return MapIndex(index, removeStart, removeEnd, 0)
}

// TransformSelection maps a selection through a replacement of
// [replaceStart, replaceEnd) by insertedLen bytes.
//
// A selection that touches the replaced span (a caret on or inside it, or a
// range intersecting it) collapses to a caret at the end of the inserted
// content. Anything else passes both endpoints through MapIndex.
func TransformSelection(sel Selection, replaceStart, replaceEnd, insertedLen int) Selection {
	if sel.Start <= replaceEnd && sel.End >= replaceStart {
		return Caret(replaceStart + insertedLen)
	}
	return Selection{
		Start: MapIndex(sel.Start, replaceStart, replaceEnd, insertedLen),
		End:   MapIndex(sel.End, replaceStart, replaceEnd, insertedLen),
	}
}
