// Package engine reconciles a live speech-to-text stream with a text buffer
// the user may be editing at the same time. It tracks the single region of
// the buffer that dictation currently owns, applies every buffer write
// through one commit path, and resolves selection races in the user's favor
// via a monotonic selection version.
package engine

import (
	"log"

	"github.com/voxpad/voxpad/internal/textedit"
)

// Range is the single source of truth for what part of the buffer the
// active dictation session owns.
//
// Invariant: 0 <= Start <= PartialStart <= End <= len(buffer).
// [Start, PartialStart) holds text already committed by the provider; it is
// user-editable but never overwritten by a later speech event.
// [PartialStart, End) is the partial zone, the only region a partial or
// commit event may replace.
type Range struct {
	Start        int
	PartialStart int
	End          int

	// CommittedChars counts bytes of the source transcript stream already
	// flushed into the buffer via streaming commits. The final transcript is
	// cumulative, so only its tail beyond CommittedChars is inserted.
	CommittedChars int
}

type pendingRestore struct {
	sel     textedit.Selection
	version uint64
	ok      bool
}

// Engine owns all dictation state for one host surface. It is not safe for
// concurrent use; the session controller serializes all calls onto it.
type Engine struct {
	surface Surface

	rng *Range

	// selVersion increments once per user-initiated selection change. A
	// queued restore carrying an older version is stale and gets dropped.
	selVersion   uint64
	pending      pendingRestore
	suppressNext bool
}

func New(surface Surface) *Engine {
	return &Engine{surface: surface}
}

// Active reports whether a dictation range currently exists.
func (e *Engine) Active() bool { return e.rng != nil }

// Surface returns the text surface this engine edits.
func (e *Engine) Surface() Surface { return e.surface }

// Range returns a copy of the current dictation range, if any.
func (e *Engine) Range() (Range, bool) {
	if e.rng == nil {
		return Range{}, false
	}
	return *e.rng, true
}

// SelectionVersion returns the current user-selection counter.
func (e *Engine) SelectionVersion() uint64 { return e.selVersion }

// BeginSession anchors a fresh dictation range at the surface's current
// selection. Called on the idle -> recording transition.
func (e *Engine) BeginSession() {
	sel := e.clampedSelection()
	e.rng = &Range{Start: sel.Start, PartialStart: sel.Start, End: sel.End}
	log.Printf("engine: session started, anchor=[%d,%d)", sel.Start, sel.End)
}

// EndSession drops the dictation range unconditionally. This is the safety
// net for cancellation and for processing that ends without a final
// transcript; whatever partial text is in the buffer stays there as
// ordinary user text.
func (e *Engine) EndSession() {
	if e.rng == nil {
		return
	}
	e.rng = nil
	log.Printf("engine: session cleared")
}

// Painted is the host-paint hook. After the surface has rendered a value
// pushed by the engine, it applies the queued selection restore - unless a
// user selection change superseded it in the meantime, in which case the
// restore is discarded. A restore that does land suppresses the next
// user-captured selection event, since the host will report the
// program-applied selection back as if the user had made it.
func (e *Engine) Painted() {
	if !e.pending.ok {
		return
	}
	p := e.pending
	e.pending = pendingRestore{}
	if p.version != e.selVersion {
		log.Printf("engine: dropping stale selection restore (v%d, now v%d)", p.version, e.selVersion)
		return
	}
	e.surface.SetSelection(p.sel)
	e.suppressNext = true
}

// replaceRange is the only path that writes to the shared buffer. It applies
// one replacement, derives the resulting selection from the current
// selection snapshot, and queues it as a versioned restore for the next
// paint.
func (e *Engine) replaceRange(start, end int, text string) {
	buf := e.surface.Value()
	n := len(buf)
	start = textedit.Clamp(start, n)
	end = textedit.Clamp(end, n)
	if end < start {
		end = start
	}

	sel := textedit.TransformSelection(e.clampedSelection(), start, end, len(text))
	e.pending = pendingRestore{sel: sel, version: e.selVersion, ok: true}
	e.surface.SetValue(buf[:start] + text + buf[end:])
}

func (e *Engine) clampedSelection() textedit.Selection {
	n := len(e.surface.Value())
	sel := e.surface.Selection()
	sel.Start = textedit.Clamp(sel.Start, n)
	sel.End = textedit.Clamp(sel.End, n)
	if sel.End < sel.Start {
		sel.Start, sel.End = sel.End, sel.Start
	}
	return sel
}

// clampRange re-establishes the containment invariant after range fields
// have been shifted through an edit.
func (e *Engine) clampRange() {
	if e.rng == nil {
		return
	}
	n := len(e.surface.Value())
	r := e.rng
	r.Start = textedit.Clamp(r.Start, n)
	r.PartialStart = textedit.Clamp(r.PartialStart, n)
	r.End = textedit.Clamp(r.End, n)
	if r.PartialStart < r.Start {
		r.PartialStart = r.Start
	}
	if r.End < r.PartialStart {
		r.End = r.PartialStart
	}
}
