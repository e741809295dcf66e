// SPDX-License-Identifier: MIT
//
// Package build exposes the metadata stamped into the binary at link time
// (name, version, commit, build time). Release builds set every field, for
// example:
//
//	go build -ldflags "-X github.com/Brian099/music-rhythm-test/pkg/build.buildName=rhythm ..."
//
// Development builds fall back to the defaults below.
package build

import "fmt"

const (
	defaultName        = "rhythm"
	defaultDescription = "Beat map generator for music-synchronised visuals"
)

// Info describes the running binary.
type Info struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// String renders the version line printed by the CLI.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.Commit, i.Time)
}

var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildInfo    = &Info{
		Name:        defaultName,
		Description: defaultDescription,
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
)

// Initialize copies the ldflags variables into the build info. It returns
// an error naming the first missing flag; the defaults stay in place for
// that field and every field after it, so callers can log the error and
// carry on with a development build.
func Initialize() error {
	if buildName == "" {
		return fmt.Errorf("BuildName is required")
	}
	buildInfo.Name = buildName
	if buildTime == "" {
		return fmt.Errorf("BuildTime is required")
	}
	buildInfo.Time = buildTime
	if buildCommit == "" {
		return fmt.Errorf("BuildCommit is required")
	}
	buildInfo.Commit = buildCommit
	if buildVersion == "" {
		return fmt.Errorf("BuildVersion is required")
	}
	buildInfo.Version = buildVersion

	return nil
}

// GetInfo returns the current build information.
func GetInfo() *Info {
	return buildInfo
}
