package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

const defaultModule = "pkt.systems/nexus"

// buildVersion is set via -ldflags "-X pkt.systems/nexus/internal/version.buildVersion=...".
var buildVersion = ""

// Details describes the running binary.
type Details struct {
	Module    string `json:"module"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Revision  string `json:"revision,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
}

// String renders "module version".
func (d Details) String() string {
	return d.Module + " " + d.Version
}

// Current returns the best available version string without the dirty suffix.
func Current() string {
	info, _ := debug.ReadBuildInfo()
	return resolve(info, false)
}

// Module returns the module path from build info when available.
func Module() string {
	info, ok := debug.ReadBuildInfo()
	if ok {
		if path := strings.TrimSpace(info.Main.Path); path != "" {
			return path
		}
	}
	return defaultModule
}

// Describe collects version details, including the dirty suffix when the
// working tree was modified at build time.
func Describe() Details {
	info, _ := debug.ReadBuildInfo()
	details := Details{
		Module:    Module(),
		Version:   resolve(info, true),
		GoVersion: runtime.Version(),
	}
	if vcs, ok := readVCS(info); ok {
		details.Revision = vcs.revision
		details.Modified = vcs.modified
	}
	return details
}

func resolve(info *debug.BuildInfo, includeDirty bool) string {
	if v := strings.TrimSpace(buildVersion); v != "" {
		return normalizeVersion(v, includeDirty)
	}
	if info != nil {
		if v := strings.TrimSpace(info.Main.Version); v != "" && v != "(devel)" {
			return normalizeVersion(v, includeDirty)
		}
		if v := pseudoFromBuildInfo(info, includeDirty); v != "" {
			return v
		}
	}
	return "v0.0.0-unknown"
}

func normalizeVersion(v string, includeDirty bool) string {
	if includeDirty {
		return v
	}
	return strings.TrimSuffix(v, "+dirty")
}

type vcsInfo struct {
	revision string
	time     time.Time
	modified bool
}

func readVCS(info *debug.BuildInfo) (vcsInfo, bool) {
	if info == nil {
		return vcsInfo{}, false
	}
	var out vcsInfo
	var rawTime string
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			out.revision = setting.Value
		case "vcs.time":
			rawTime = setting.Value
		case "vcs.modified":
			out.modified = setting.Value == "true"
		}
	}
	if out.revision == "" || rawTime == "" {
		return vcsInfo{}, false
	}
	parsed, err := time.Parse(time.RFC3339, rawTime)
	if err != nil {
		return vcsInfo{}, false
	}
	out.time = parsed.UTC()
	return out, true
}

// pseudoFromBuildInfo builds a Go pseudo-version from VCS stamping.
func pseudoFromBuildInfo(info *debug.BuildInfo, includeDirty bool) string {
	vcs, ok := readVCS(info)
	if !ok {
		return ""
	}
	rev := vcs.revision
	if len(rev) > 12 {
		rev = rev[:12]
	}
	ver := fmt.Sprintf("v0.0.0-%s-%s", vcs.time.Format("20060102150405"), rev)
	if vcs.modified && includeDirty {
		ver += "+dirty"
	}
	return ver
}
