package logfields

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHelpers(t *testing.T) {
	tests := []struct {
		attr slog.Attr
		key  string
		want any
	}{
		{BuildID("9f0c"), KeyBuildID, "9f0c"},
		{Stage("render"), KeyStage, "render"},
		{DurationMS(12.5), KeyDurationMS, 12.5},
		{Path("/crate/docs"), KeyPath, "/crate/docs"},
		{Dir("docs/api"), KeyDir, "docs/api"},
		{File("guide.md"), KeyFile, "guide.md"},
		{Name("Point"), KeyName, "Point"},
		{Command("update"), KeyCommand, "update"},
		{Artifacts(3), KeyArtifacts, int64(3)},
		{Orphans(1), KeyOrphans, int64(1)},
		{Request("terminate"), KeyRequest, "terminate"},
		{Addr("127.0.0.1:7878"), KeyAddr, "127.0.0.1:7878"},
		{URL("/guide.html"), KeyURL, "/guide.html"},
		{Method("GET"), KeyMethod, "GET"},
		{Status(404), KeyStatus, int64(404)},
		{Error(errors.New("boom")), KeyError, "boom"},
		{Error(nil), KeyError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.key, tt.attr.Key)
			assert.Equal(t, tt.want, tt.attr.Value.Any())
		})
	}
}

func TestHelpersRenderInTextHandler(t *testing.T) {
	var buf bytes.Buffer
	slog.New(slog.NewTextHandler(&buf, nil)).Info("Built", BuildID("b1"), Artifacts(12))
	assert.Contains(t, buf.String(), "build_id=b1 artifacts=12")
}
