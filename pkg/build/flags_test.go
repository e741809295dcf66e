// SPDX-License-Identifier: MIT
package build

import (
	"os"
	"strings"
	"testing"
)

var (
	origName    string
	origTime    string
	origCommit  string
	origVersion string
	origInfo    Info
)

func TestMain(m *testing.M) {
	origName = buildName
	origTime = buildTime
	origCommit = buildCommit
	origVersion = buildVersion
	origInfo = *buildInfo

	exitCode := m.Run()

	buildName = origName
	buildTime = origTime
	buildCommit = origCommit
	buildVersion = origVersion
	*buildInfo = origInfo

	os.Exit(exitCode)
}

func resetInfo() {
	buildInfo = &Info{
		Name:        defaultName,
		Description: defaultDescription,
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name        string
		buildName   string
		buildTime   string
		buildCommit string
		buildVer    string
		wantErrMsg  string
		wantName    string
		wantVersion string
	}{
		{"Missing BuildName", "", "2026-10-15", "abcdef123", "v1.0.0", "BuildName is required", defaultName, "dev"},
		{"Missing BuildTime", "beatmap", "", "abcdef123", "v1.0.0", "BuildTime is required", "beatmap", "dev"},
		{"Missing BuildCommit", "beatmap", "2026-10-15", "", "v1.0.0", "BuildCommit is required", "beatmap", "dev"},
		{"Missing BuildVersion", "beatmap", "2026-10-15", "abcdef123", "", "BuildVersion is required", "beatmap", "dev"},
		{"Success Case", "beatmap", "2026-10-15", "abcdef123", "v1.0.0", "", "beatmap", "v1.0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetInfo()
			buildName = tt.buildName
			buildTime = tt.buildTime
			buildCommit = tt.buildCommit
			buildVersion = tt.buildVer

			err := Initialize()

			if tt.wantErrMsg != "" {
				if err == nil || err.Error() != tt.wantErrMsg {
					t.Errorf("Initialize() error = %v, want %v", err, tt.wantErrMsg)
				}
			} else if err != nil {
				t.Errorf("Initialize() unexpected error: %v", err)
			}

			info := GetInfo()
			if info.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", info.Name, tt.wantName)
			}
			if info.Version != tt.wantVersion {
				t.Errorf("Version = %q, want %q", info.Version, tt.wantVersion)
			}
			if info.Description != defaultDescription {
				t.Errorf("Description = %q, want default", info.Description)
			}
		})
	}
}

func TestInfoString(t *testing.T) {
	info := Info{Name: "rhythm", Version: "v0.2.0", Commit: "abc", Time: "now"}
	got := info.String()
	for _, part := range []string{"rhythm", "v0.2.0", "abc", "now"} {
		if !strings.Contains(got, part) {
			t.Errorf("String() = %q, missing %q", got, part)
		}
	}
}
