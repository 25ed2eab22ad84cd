// Package version carries build metadata stamped in with -ldflags
package version

import "fmt"

// BuildInfo describes the running binary
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Set with:
//
//	-ldflags "-X opengov/internal/core/version.version=v0.3.0 -X opengov/internal/core/version.commit=abc123"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Service is the binary name reported in logs, health and the upstream User-Agent
const Service = "opengov-bot"

// Info returns the stamped build metadata
func Info() BuildInfo {
	return BuildInfo{Service: Service, Version: version, Commit: commit, Date: date}
}

// UserAgent is sent on outbound requests to the votes API
func UserAgent() string {
	return fmt.Sprintf("%s/%s", Service, version)
}
