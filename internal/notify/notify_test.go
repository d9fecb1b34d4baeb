package notify

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/doxidize/internal/foundation/errors"
)

func TestConnect_EmptyURLIsNoop(t *testing.T) {
	n, err := Connect("", "doxidize.builds")
	require.NoError(t, err)
	assert.IsType(t, Noop{}, n)
	assert.NoError(t, n.Publish(t.Context(), BuildEvent{BuildID: "x"}))
	assert.NoError(t, n.Close())
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect("nats://127.0.0.1:1", "doxidize.builds")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNetwork))
}

func TestBuildEvent_JSON(t *testing.T) {
	data, err := json.Marshal(BuildEvent{BuildID: "b1", Outcome: "success", Artifacts: 3, DurationMS: 1.5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"build_id":"b1","outcome":"success","artifacts":3,"duration_ms":1.5}`, string(data))
}
