package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_SeenAtIsNullUntilSeen(t *testing.T) {
	msg := &Message{ID: "m1", SenderID: "b1", Text: "hi", CreatedAt: time.Unix(100, 0).UTC()}

	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))
	seenAt, present := fields["seenAt"]
	assert.True(t, present)
	assert.Nil(t, seenAt)
	assert.Equal(t, false, fields["seen"])

	assert.True(t, msg.MarkSeen(time.Unix(200, 0).UTC()))
	raw, err = json.Marshal(msg)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"seenAt":"1970-01-01T00:03:20Z"`)
}
