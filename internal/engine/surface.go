package engine

import "github.com/voxpad/voxpad/internal/textedit"

// Surface is the host text control as seen by the engine. The surface owns
// rendering and raw input capture; the engine owns all dictation state. The
// engine only ever reads the current value/selection and pushes a new value
// or a programmatic selection back.
type Surface interface {
	Value() string
	Selection() textedit.Selection
	SetValue(string)
	SetSelection(textedit.Selection)
}

// MemorySurface is an in-memory Surface. The daemon loop uses it as its
// buffer, and tests use it to script host behavior.
type MemorySurface struct {
	value string
	sel   textedit.Selection
}

func NewMemorySurface(value string) *MemorySurface {
	return &MemorySurface{value: value}
}

func (s *MemorySurface) Value() string { return s.value }

func (s *MemorySurface) Selection() textedit.Selection { return s.sel }

func (s *MemorySurface) SetValue(v string) {
	s.value = v
	// keep the stored selection inside the new value until a restore lands
	s.sel.Start = textedit.Clamp(s.sel.Start, len(v))
	s.sel.End = textedit.Clamp(s.sel.End, len(v))
}

func (s *MemorySurface) SetSelection(sel textedit.Selection) {
	sel.Start = textedit.Clamp(sel.Start, len(s.value))
	sel.End = textedit.Clamp(sel.End, len(s.value))
	s.sel = sel
}
