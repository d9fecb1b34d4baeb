package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func stub(t *testing.T, info *debug.BuildInfo) {
	t.Helper()
	prev := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return info, info != nil }
	t.Cleanup(func() { readBuildInfo = prev })
}

func TestString_Unstamped(t *testing.T) {
	stub(t, nil)
	assert.Equal(t, "doxidize unknown (commit unknown, built unknown)", String())
}

func TestString_FromBuildInfo(t *testing.T) {
	stub(t, &debug.BuildInfo{
		Main: debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-03-01T10:00:00Z"},
		},
	})
	assert.Equal(t, "doxidize v0.3.1 (commit 0123456789ab, built 2026-03-01T10:00:00Z)", String())
}

func TestString_LdflagsWin(t *testing.T) {
	stub(t, &debug.BuildInfo{
		Main:     debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abc"}},
	})
	prevV, prevC := Version, GitCommit
	Version, GitCommit = "v1.0.0", "deadbeef"
	t.Cleanup(func() { Version, GitCommit = prevV, prevC })

	assert.Equal(t, "doxidize v1.0.0 (commit deadbeef, built unknown)", String())
}
