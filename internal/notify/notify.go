package notify

import (
	"fmt"
	"log"
	"os/exec"
)

type Notifier interface {
	PhaseChanged(phase string)
	Error(msg string)
}

// ForType returns the notifier selected by config ("desktop", "log", "none").
func ForType(kind string, enabled bool) Notifier {
	if !enabled {
		return Nop{}
	}
	switch kind {
	case "desktop":
		return Desktop{}
	case "log":
		return Log{}
	default:
		return Nop{}
	}
}

type Desktop struct{}

func (Desktop) PhaseChanged(phase string) {
	cmd := exec.Command("notify-send", "-a", "Voxpad",
		fmt.Sprintf("Voxpad: %s", phaseLabel(phase)))
	if err := cmd.Run(); err != nil {
		log.Printf("notify: failed to send notification: %v", err)
	}
}

func (Desktop) Error(msg string) {
	cmd := exec.Command("notify-send", "-a", "Voxpad", "-u", "critical", msg)
	if err := cmd.Run(); err != nil {
		log.Printf("notify: failed to send error notification: %v", err)
	}
}

func phaseLabel(phase string) string {
	switch phase {
	case "recording":
		return "Recording"
	case "processing":
		return "Transcribing"
	case "idle":
		return "Done"
	default:
		return phase
	}
}

// Log writes notifications to the daemon log instead of the desktop.
type Log struct{}

func (Log) PhaseChanged(phase string) { log.Printf("notify: phase %s", phase) }
func (Log) Error(msg string)          { log.Printf("notify: error: %s", msg) }

// Nop is a Notifier that does absolutely nothing.
// Useful in unit tests or headless builds.
type Nop struct{}

func (Nop) PhaseChanged(phase string) {}
func (Nop) Error(msg string)          {}
