package engine

import (
	"log"

	"github.com/voxpad/voxpad/internal/textedit"
)

// UserEdit shifts the dictation range through an edit the user applied to
// the surface (typed character, paste, delete). The host reports the edit
// after applying it, described in pre-edit coordinates as the replaced span
// [editStart, editEnd) plus the inserted length. Malformed descriptors are
// clamped rather than rejected; the worst case is a no-op shift.
func (e *Engine) UserEdit(editStart, editEnd, insertedLen int) {
	if e.rng == nil {
		return
	}
	if editStart < 0 {
		editStart = 0
	}
	if editEnd < editStart {
		editEnd = editStart
	}
	if insertedLen < 0 {
		insertedLen = 0
	}

	r := e.rng
	r.Start = textedit.MapIndex(r.Start, editStart, editEnd, insertedLen)
	r.PartialStart = textedit.MapIndex(r.PartialStart, editStart, editEnd, insertedLen)
	r.End = textedit.MapIndex(r.End, editStart, editEnd, insertedLen)
	e.clampRange()
}

// UserSelect handles a selection change the user made directly (click,
// arrow keys), as opposed to the caret consequence of an edit - the host
// reports those through UserEdit only. One program-applied selection echo is
// swallowed per restore; everything else bumps the selection version so any
// queued restore goes stale.
//
// While recording, dictation follows the user: with no partial text in
// flight the range simply re-anchors at the new selection, and with a
// partial in flight that exact text is relocated to track the new caret.
// Committed text is never moved.
func (e *Engine) UserSelect(sel textedit.Selection) {
	if e.suppressNext {
		e.suppressNext = false
		return
	}
	e.selVersion++

	if e.rng == nil {
		return
	}
	n := len(e.surface.Value())
	sel.Start = textedit.Clamp(sel.Start, n)
	sel.End = textedit.Clamp(sel.End, n)
	if sel.End < sel.Start {
		sel.Start, sel.End = sel.End, sel.Start
	}

	r := e.rng
	if r.PartialStart == r.End {
		// Nothing in flight: the user repositioned before any speech landed
		// here, so dictation starts where they now are.
		r.Start = sel.Start
		r.PartialStart = sel.Start
		r.End = sel.End
		return
	}

	e.relocatePartial(sel)
}

// relocatePartial moves the in-flight partial text to the user's new caret:
// remove it from its old spot, reinsert it at the mapped position, and
// re-bracket the partial zone there.
func (e *Engine) relocatePartial(sel textedit.Selection) {
	r := e.rng
	buf := e.surface.Value()
	oldStart := textedit.Clamp(r.PartialStart, len(buf))
	oldEnd := textedit.Clamp(r.End, len(buf))
	partial := buf[oldStart:oldEnd]
	noCommits := r.PartialStart == r.Start

	e.replaceRange(oldStart, oldEnd, "")
	pos := textedit.MapAfterRemoval(sel.Start, oldStart, oldEnd)
	pos = textedit.Clamp(pos, len(e.surface.Value()))
	e.replaceRange(pos, pos, partial)

	r.PartialStart = pos
	r.End = pos + len(partial)
	if noCommits || r.Start > r.PartialStart {
		r.Start = r.PartialStart
	}
	e.clampRange()
	log.Printf("engine: partial relocated to %d", pos)
}
