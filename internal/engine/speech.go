package engine

import (
	"log"
	"strings"
)

// ApplyPartial replaces the partial zone with a fresh low-confidence guess.
// Partials supersede each other in place; committed text to the left of the
// zone is never touched. When committed text already landed this session, a
// single separator space is prefixed so the new guess does not glue onto it.
func (e *Engine) ApplyPartial(text string) {
	if e.rng == nil {
		return
	}
	r := e.rng
	if r.PartialStart > r.Start {
		text = " " + text
	}
	e.replaceRange(r.PartialStart, r.End, text)
	r.End = r.PartialStart + len(text)
	e.clampRange()
}

// ApplyCommit flushes a provider-finalized segment into the buffer. The
// partial zone is replaced by the committed text and the zone collapses to
// just past it; from this point on the segment is user-owned and no later
// partial may overwrite it.
func (e *Engine) ApplyCommit(text string) {
	if e.rng == nil {
		return
	}
	r := e.rng
	e.replaceRange(r.PartialStart, r.End, text)
	r.PartialStart += len(text)
	r.End = r.PartialStart
	r.CommittedChars += len(text)
	e.clampRange()
	log.Printf("engine: committed %d bytes, total %d", len(text), r.CommittedChars)
}

// ApplyFinal lands the cumulative final transcript and ends the dictation
// session. Only the tail beyond CommittedChars is inserted; everything
// before it already reached the buffer through streaming commits.
//
// With no active range (a non-streaming provider delivering everything in
// one shot), the whole transcript is inserted at the current caret, led by a
// newline when the caret sits mid-paragraph.
func (e *Engine) ApplyFinal(text string) {
	if e.rng == nil {
		e.insertFinalAtCaret(text)
		return
	}
	r := e.rng

	remaining := ""
	if r.CommittedChars < len(text) {
		remaining = text[r.CommittedChars:]
	}

	if r.PartialStart == r.End && strings.TrimSpace(remaining) == "" {
		e.rng = nil
		log.Printf("engine: final transcript carried nothing new")
		return
	}

	e.replaceRange(r.PartialStart, r.End, remaining)
	e.rng = nil
	log.Printf("engine: final transcript landed, %d byte tail", len(remaining))
}

func (e *Engine) insertFinalAtCaret(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	sel := e.clampedSelection()
	buf := e.surface.Value()
	if sel.Start > 0 && buf[sel.Start-1] != '\n' {
		text = "\n" + text
	}
	e.replaceRange(sel.Start, sel.End, text)
	log.Printf("engine: one-shot transcript inserted at %d", sel.Start)
}
