// Package build reports what binary is running. Release builds inject a JSON
// document through -ldflags:
//
//	go build -ldflags "-X 'github.com/amp-labs/amp-tfsm/build.Raw={\"version\":\"v1.4.0\"}'" ./cmd/mq3d
//
// Without it, Current falls back to the module data the Go linker records.
package build

import (
	"encoding/json"
	"log/slog"
	"runtime/debug"
	"sync"
)

// Raw is set at link time.
var Raw string //nolint:gochecknoglobals

const devVersion = "dev"

// Info is build metadata.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"` //nolint:tagliatelle
	BuildTime string `json:"build_time"` //nolint:tagliatelle
	GoVersion string `json:"go_version"` //nolint:tagliatelle
	Modified  bool   `json:"modified"`
}

// Parse deserializes an injected document. It returns (nil, false) for an
// empty, "{}" or malformed input.
func Parse(js string) (*Info, bool) {
	if js == "" || js == "{}" {
		return nil, false
	}

	var info Info

	if err := json.Unmarshal([]byte(js), &info); err != nil {
		slog.Warn("Failed to parse build info from JSON", "data", js, "error", err)

		return nil, false
	}

	return &info, true
}

// Current returns the build info of the running binary, computed once.
var Current = sync.OnceValue(func() Info { //nolint:gochecknoglobals
	info := fromRuntime()

	if injected, ok := Parse(Raw); ok {
		info = merge(info, *injected)
	}

	return info
})

func fromRuntime() Info {
	info := Info{Version: devVersion}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	info.GoVersion = bi.GoVersion

	if v := bi.Main.Version; v != "" && v != "(devel)" {
		info.Version = v
	}

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.GitCommit = s.Value
		case "vcs.time":
			info.BuildTime = s.Value
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}

	return info
}

// merge overlays the non-empty fields of injected onto base.
func merge(base, injected Info) Info {
	if injected.Version != "" {
		base.Version = injected.Version
	}

	if injected.GitCommit != "" {
		base.GitCommit = injected.GitCommit
	}

	if injected.BuildTime != "" {
		base.BuildTime = injected.BuildTime
	}

	if injected.GoVersion != "" {
		base.GoVersion = injected.GoVersion
	}

	base.Modified = base.Modified || injected.Modified

	return base
}
