package stage

import (
	"fmt"
	"strings"

	"biliwalle/internal/deps"
)

// Health summarizes whether a workflow can run.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy constructs an unhealthy Health record with context detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}

// CheckBinaries reports every executable that cannot be found on PATH.
// Blank entries are ignored.
func CheckBinaries(name string, binaries ...string) Health {
	reqs := make([]deps.Requirement, 0, len(binaries))
	for _, binary := range binaries {
		if strings.TrimSpace(binary) == "" {
			continue
		}
		reqs = append(reqs, deps.Requirement{Name: binary, Command: binary})
	}
	missing := deps.Missing(deps.CheckBinaries(reqs))
	if len(missing) == 0 {
		return Healthy(name)
	}
	details := make([]string, len(missing))
	for i, m := range missing {
		details[i] = m.Detail
	}
	return Unhealthy(name, fmt.Sprintf("missing tools: %s", strings.Join(details, "; ")))
}
