// Package deps reports on the external tools voxpad shells out to.
package deps

import (
	"os/exec"
	"strings"
)

// Status represents the installation status of a dependency
type Status struct {
	Name      string
	Installed bool
	Path      string
	Version   string
	Required  bool
}

type tool struct {
	name        string
	versionArgs []string
	required    bool
}

var tools = []tool{
	{name: "pw-record", versionArgs: []string{"--version"}, required: true},
	{name: "pw-cli", versionArgs: []string{"--version"}, required: true},
	{name: "notify-send", versionArgs: []string{"--version"}, required: false},
}

// CheckAll returns the status of every external tool voxpad uses.
func CheckAll() []Status {
	out := make([]Status, 0, len(tools))
	for _, t := range tools {
		out = append(out, check(t))
	}
	return out
}

// MissingRequired lists required tools that are not installed.
func MissingRequired() []string {
	var missing []string
	for _, s := range CheckAll() {
		if s.Required && !s.Installed {
			missing = append(missing, s.Name)
		}
	}
	return missing
}

func check(t tool) Status {
	path, err := exec.LookPath(t.name)
	if err != nil {
		return Status{Name: t.name, Required: t.required}
	}

	status := Status{
		Name:      t.name,
		Installed: true,
		Path:      path,
		Required:  t.required,
	}

	// first line of version output, when the tool offers one
	output, err := exec.Command(path, t.versionArgs...).Output()
	if err == nil {
		lines := strings.Split(string(output), "\n")
		if len(lines) > 0 {
			status.Version = strings.TrimSpace(lines[0])
		}
	}

	return status
}
