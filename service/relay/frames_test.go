package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrame(t *testing.T) {
	raw := []byte(`{"event":"message","data":{"receiverId":"bob","text":"hi"}}`)

	f, err := ParseFrame(raw)
	require.NoError(t, err)
	assert.Equal(t, EventMessage, f.Event)
	assert.Equal(t, raw, f.Raw(), "parsed frame must keep the original bytes")

	p, err := f.DecodeMessage()
	require.NoError(t, err)
	assert.Equal(t, "bob", p.ReceiverID)
}

func TestParseFrameRejectsGarbage(t *testing.T) {
	_, err := ParseFrame([]byte(`not json`))
	assert.Error(t, err)

	_, err = ParseFrame([]byte(`{"data":{"userId":"alice"}}`))
	assert.Error(t, err, "an envelope without an event name is malformed")
}

func TestDecodeJoinPayload(t *testing.T) {
	f, err := ParseFrame([]byte(`{"event":"join","data":{"userId":"alice","targetUserId":"bob"}}`))
	require.NoError(t, err)

	p, err := f.DecodeJoin()
	require.NoError(t, err)
	assert.Equal(t, "alice", p.UserID)
	assert.Equal(t, "bob", p.TargetUserID)
}

func TestDecodeJoinMissingUserID(t *testing.T) {
	f, err := ParseFrame([]byte(`{"event":"join","data":{}}`))
	require.NoError(t, err)

	p, err := f.DecodeJoin()
	require.NoError(t, err)
	assert.Empty(t, p.UserID)
}

func TestDecodeMessageWithoutReceiver(t *testing.T) {
	f, err := ParseFrame([]byte(`{"event":"message","data":{"text":"hi"}}`))
	require.NoError(t, err)

	p, err := f.DecodeMessage()
	require.NoError(t, err)
	assert.Empty(t, p.ReceiverID, "missing receiverId means unresolvable, not an error")
}

func TestBuildFrameRoundTrip(t *testing.T) {
	f, err := BuildFrame(EventLeave, LeavePayload{UserID: "alice"})
	require.NoError(t, err)

	back, err := ParseFrame(f.Raw())
	require.NoError(t, err)
	p, err := back.DecodeLeave()
	require.NoError(t, err)
	assert.Equal(t, "alice", p.UserID)
}
