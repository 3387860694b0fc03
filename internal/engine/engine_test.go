package engine

import (
	"strings"
	"testing"

	"github.com/voxpad/voxpad/internal/textedit"
)

func newTestEngine(value string, caret int) (*Engine, *MemorySurface) {
	s := NewMemorySurface(value)
	s.SetSelection(textedit.Caret(caret))
	return New(s), s
}

func checkRange(t *testing.T, e *Engine, start, partialStart, end int) {
	t.Helper()
	r, ok := e.Range()
	if !ok {
		t.Fatal("expected an active dictation range")
	}
	if r.Start != start || r.PartialStart != partialStart || r.End != end {
		t.Fatalf("range = {%d,%d,%d}, want {%d,%d,%d}",
			r.Start, r.PartialStart, r.End, start, partialStart, end)
	}
}

func checkInvariant(t *testing.T, e *Engine, s *MemorySurface) {
	t.Helper()
	r, ok := e.Range()
	if !ok {
		return
	}
	n := len(s.Value())
	if r.Start < 0 || r.Start > r.PartialStart || r.PartialStart > r.End || r.End > n {
		t.Fatalf("containment violated: {%d,%d,%d} buffer len %d", r.Start, r.PartialStart, r.End, n)
	}
}

// Scenario: partials supersede each other in place at the anchor.
func TestPartialReplacesPartial(t *testing.T) {
	e, s := newTestEngine("Hello ", 6)
	e.BeginSession()
	checkRange(t, e, 6, 6, 6)

	e.ApplyPartial("hi")
	if got := s.Value(); got != "Hello hi" {
		t.Fatalf("buffer = %q, want %q", got, "Hello hi")
	}
	checkRange(t, e, 6, 6, 8)

	e.ApplyPartial("hi there")
	if got := s.Value(); got != "Hello hi there" {
		t.Fatalf("buffer = %q, want %q", got, "Hello hi there")
	}
	checkRange(t, e, 6, 6, 14)
	checkInvariant(t, e, s)
}

// Scenario: a streaming commit freezes the segment and advances the zone.
func TestCommitAdvancesPartialStart(t *testing.T) {
	e, s := newTestEngine("Hello ", 6)
	e.BeginSession()
	e.ApplyPartial("hi")
	e.ApplyPartial("hi there")

	e.ApplyCommit("hi there.")
	if got := s.Value(); got != "Hello hi there." {
		t.Fatalf("buffer = %q, want %q", got, "Hello hi there.")
	}
	checkRange(t, e, 6, 15, 15)

	r, _ := e.Range()
	if r.CommittedChars != 9 {
		t.Fatalf("CommittedChars = %d, want 9", r.CommittedChars)
	}
	checkInvariant(t, e, s)
}

// Scenario: the final transcript is cumulative; only the tail past
// CommittedChars lands, then the range is gone.
func TestFinalInsertsOnlyRemainingTail(t *testing.T) {
	e, s := newTestEngine("Hello ", 6)
	e.BeginSession()
	e.ApplyPartial("hi there")
	e.ApplyCommit("hi there.")

	e.ApplyFinal("hi there. How are you?")
	if got := s.Value(); got != "Hello hi there. How are you?" {
		t.Fatalf("buffer = %q, want %q", got, "Hello hi there. How are you?")
	}
	if e.Active() {
		t.Fatal("range should be cleared after final transcript")
	}
}

// A partial arriving after a commit is separated from the committed text by
// a single space and never overwrites it.
func TestPartialAfterCommitGetsSeparator(t *testing.T) {
	e, s := newTestEngine("", 0)
	e.BeginSession()
	e.ApplyCommit("First segment.")
	e.ApplyPartial("second")
	if got := s.Value(); got != "First segment. second" {
		t.Fatalf("buffer = %q, want %q", got, "First segment. second")
	}
	checkRange(t, e, 0, 14, 21)

	// a revised partial replaces the previous one, separator intact
	e.ApplyPartial("second thought")
	if got := s.Value(); got != "First segment. second thought" {
		t.Fatalf("buffer = %q, want %q", got, "First segment. second thought")
	}
	checkInvariant(t, e, s)
}

func TestFinalWithNothingNewJustClears(t *testing.T) {
	e, s := newTestEngine("", 0)
	e.BeginSession()
	e.ApplyCommit("all committed.")

	e.ApplyFinal("all committed.   ")
	if e.Active() {
		t.Fatal("range should be cleared")
	}
	if got := s.Value(); got != "all committed." {
		t.Fatalf("buffer = %q, want %q", got, "all committed.")
	}
}

func TestFinalClearsLeftoverPartial(t *testing.T) {
	e, s := newTestEngine("", 0)
	e.BeginSession()
	e.ApplyCommit("done.")
	e.ApplyPartial("trailing guess")

	// final carries nothing beyond the commit: the stale guess is removed
	e.ApplyFinal("done.")
	if got := s.Value(); got != "done." {
		t.Fatalf("buffer = %q, want %q", got, "done.")
	}
	if e.Active() {
		t.Fatal("range should be cleared")
	}
}

// One-shot providers deliver everything as a single final transcript with no
// range; it lands at the caret, on a fresh line when mid-paragraph.
func TestOneShotFinalAtCaret(t *testing.T) {
	tests := []struct {
		name  string
		buf   string
		caret int
		text  string
		want  string
	}{
		{"empty buffer", "", 0, "hello world", "hello world"},
		{"mid-paragraph gets newline", "some notes", 10, "new idea", "some notes\nnew idea"},
		{"after newline no extra newline", "line one\n", 9, "line two", "line one\nline two"},
		{"whitespace-only transcript is dropped", "keep", 4, "   ", "keep"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, s := newTestEngine(tt.buf, tt.caret)
			e.ApplyFinal(tt.text)
			if got := s.Value(); got != tt.want {
				t.Errorf("buffer = %q, want %q", got, tt.want)
			}
		})
	}
}

// Scenario: a user deletion before the range shifts all three fields.
func TestUserEditBeforeRangeShiftsAll(t *testing.T) {
	e, s := newTestEngine("Hello ", 6)
	e.BeginSession()
	e.ApplyPartial("hi")
	checkRange(t, e, 6, 6, 8)

	// user deletes "llo" at offset 2
	s.SetValue("He hi")
	e.UserEdit(2, 5, 0)
	checkRange(t, e, 3, 3, 5)
	checkInvariant(t, e, s)

	// the next partial still replaces the right zone
	e.ApplyPartial("hi there")
	if got := s.Value(); got != "He hi there" {
		t.Fatalf("buffer = %q, want %q", got, "He hi there")
	}
}

func TestUserEditInsideCommittedZoneShiftsPartialZone(t *testing.T) {
	e, s := newTestEngine("", 0)
	e.BeginSession()
	e.ApplyCommit("hello world.")
	checkRange(t, e, 0, 12, 12)

	// user types "big " inside the committed text at offset 6
	s.SetValue("hello big world.")
	e.UserEdit(6, 6, 4)
	checkRange(t, e, 0, 16, 16)

	r, _ := e.Range()
	if r.CommittedChars != 12 {
		t.Fatalf("CommittedChars = %d, want 12 (edits never touch it)", r.CommittedChars)
	}
	checkInvariant(t, e, s)
}

func TestUserEditInsidePartialZoneShiftsEndOnly(t *testing.T) {
	e, s := newTestEngine("", 0)
	e.BeginSession()
	e.ApplyPartial("some partial text")
	checkRange(t, e, 0, 0, 17)

	// user inserts two chars in the middle of the partial zone
	s.SetValue("some paXXrtial text")
	e.UserEdit(7, 7, 2)
	checkRange(t, e, 0, 0, 19)
	checkInvariant(t, e, s)
}

// Zero-length edits never move the range.
func TestNoopEditIsIdempotent(t *testing.T) {
	e, s := newTestEngine("stable text", 6)
	e.BeginSession()
	e.ApplyPartial("guess")
	before, _ := e.Range()

	for _, offset := range []int{0, 3, 6, 11, 16} {
		e.UserEdit(offset, offset, 0)
		after, _ := e.Range()
		if after != before {
			t.Fatalf("no-op edit at %d changed range: %+v -> %+v", offset, before, after)
		}
	}
	checkInvariant(t, e, s)
}

func TestMalformedEditDegradesToClampedShift(t *testing.T) {
	e, s := newTestEngine("short", 0)
	e.BeginSession()
	e.ApplyPartial("x")

	// bounds wildly out of range must not panic or corrupt the invariant
	e.UserEdit(-5, 9999, -3)
	checkInvariant(t, e, s)
}

// PartialStart never decreases across streaming commits in one session.
func TestCommitMonotonicity(t *testing.T) {
	e, s := newTestEngine("", 0)
	e.BeginSession()

	last := 0
	for _, seg := range []string{"one.", " two.", " three."} {
		e.ApplyPartial(strings.TrimSpace(seg))
		e.ApplyCommit(seg)
		r, _ := e.Range()
		if r.PartialStart < last {
			t.Fatalf("PartialStart decreased: %d -> %d", last, r.PartialStart)
		}
		last = r.PartialStart
		checkInvariant(t, e, s)
	}
}

// Scenario: cancel after a partial landed. The safety net clears the range
// and the partial text stays in the buffer as ordinary user text.
func TestCancelKeepsPartialTextAsUserText(t *testing.T) {
	e, s := newTestEngine("Hello ", 6)
	e.BeginSession()
	e.ApplyPartial("half an utter")

	e.EndSession()
	if e.Active() {
		t.Fatal("range should be cleared by the safety net")
	}
	if got := s.Value(); got != "Hello half an utter" {
		t.Fatalf("buffer = %q, want %q (not reverted)", got, "Hello half an utter")
	}

	// later speech events must be ignored without a range
	e.ApplyPartial("ghost")
	e.ApplyCommit("ghost")
	if got := s.Value(); got != "Hello half an utter" {
		t.Fatalf("buffer changed after session ended: %q", got)
	}
}

func TestReanchorOnSelectWithEmptyZone(t *testing.T) {
	e, s := newTestEngine("paragraph one\nparagraph two", 0)
	e.BeginSession()
	checkRange(t, e, 0, 0, 0)

	// user clicks to the end before any speech lands
	s.SetSelection(textedit.Caret(27))
	e.UserSelect(textedit.Caret(27))
	checkRange(t, e, 27, 27, 27)

	e.ApplyPartial("three")
	if got := s.Value(); got != "paragraph one\nparagraph twothree" {
		t.Fatalf("buffer = %q", got)
	}
}

func TestRelocatePartialFollowsCaret(t *testing.T) {
	e, s := newTestEngine("AAAA BBBB", 9)
	e.BeginSession()
	e.ApplyPartial("dictated")
	if got := s.Value(); got != "AAAA BBBBdictated" {
		t.Fatalf("buffer = %q", got)
	}

	// user clicks at offset 4 mid-utterance; the in-flight partial follows
	s.SetSelection(textedit.Caret(4))
	e.UserSelect(textedit.Caret(4))
	if got := s.Value(); got != "AAAAdictated BBBB" {
		t.Fatalf("buffer = %q, want %q", got, "AAAAdictated BBBB")
	}
	checkRange(t, e, 4, 4, 12)
	checkInvariant(t, e, s)

	// the next partial replaces the relocated zone
	e.ApplyPartial("dictation")
	if got := s.Value(); got != "AAAAdictation BBBB" {
		t.Fatalf("buffer = %q, want %q", got, "AAAAdictation BBBB")
	}
}

// Selection-race property: a restore queued at version v is discarded once a
// user selection change bumps the version.
func TestStaleSelectionRestoreIsDropped(t *testing.T) {
	e, s := newTestEngine("Hello ", 6)
	e.BeginSession()
	e.ApplyPartial("hi")
	// restore to caret 8 is now queued at the current version

	e.EndSession()
	// user clicks at 2 before the paint happens
	s.SetSelection(textedit.Caret(2))
	e.UserSelect(textedit.Caret(2))

	e.Painted()
	if got := s.Selection(); got != textedit.Caret(2) {
		t.Fatalf("selection = %+v, user's caret must win", got)
	}
}

func TestFreshSelectionRestoreIsApplied(t *testing.T) {
	e, s := newTestEngine("Hello ", 6)
	e.BeginSession()
	e.ApplyPartial("hi")

	e.Painted()
	if got := s.Selection(); got != textedit.Caret(8) {
		t.Fatalf("selection = %+v, want caret 8 after inserted partial", got)
	}
}

// The selection echo caused by a program-applied restore must not count as a
// user selection change.
func TestProgramSelectionEchoIsSuppressed(t *testing.T) {
	e, s := newTestEngine("Hello ", 6)
	e.BeginSession()
	e.ApplyPartial("hi")
	e.Painted()

	v := e.SelectionVersion()
	// host reports the program-applied selection back
	e.UserSelect(s.Selection())
	if e.SelectionVersion() != v {
		t.Fatal("suppressed echo must not bump the selection version")
	}

	// a real user selection afterwards does bump it
	e.UserSelect(textedit.Caret(0))
	if e.SelectionVersion() != v+1 {
		t.Fatal("real selection change must bump the version")
	}
}

func TestStartRefusedWithoutSpeechKeepsAnchorSelection(t *testing.T) {
	e, _ := newTestEngine("abcdef", 3)
	e.BeginSession()

	// stopping with nothing landed leaves the buffer untouched
	e.ApplyFinal("")
	if e.Active() {
		t.Fatal("range should be cleared")
	}
}
