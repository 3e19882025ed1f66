package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relayhub/internal/app/user"
	"relayhub/internal/pkg/errs"
)

func TestEncodeDecodeUserPacket(t *testing.T) {
	original := NewUserPacket(user.User{ID: 1234567890, Name: "Alice"}, true)

	data, err := Encode(original)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	p, ok := decoded.(UserPacket)
	require.True(t, ok)
	assert.Equal(t, int64(1234567890), p.ID)
	assert.Equal(t, "Alice", p.Name)
	assert.True(t, p.IsMe)
}

func TestUserPacketOmitsIsMeWhenUnset(t *testing.T) {
	data, err := Encode(NewUserPacket(user.New("Alice"), false))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, "user", raw["header"])
	assert.NotContains(t, raw, "is-me")
}

func TestEncodeDecodeMessagePacket(t *testing.T) {
	sender := user.User{ID: 1111111111, Name: "Alice"}
	original := NewMessagePacket(Message{ID: 2222222222, Content: "hi", Sender: sender})

	data, err := Encode(original)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	p, ok := decoded.(MessagePacket)
	require.True(t, ok)
	assert.Equal(t, int64(2222222222), p.Message.ID)
	assert.Equal(t, "hi", p.Content)
	assert.Equal(t, sender, p.Sender)
}

func TestEncodeDecodeListPackets(t *testing.T) {
	users := []user.User{
		{ID: 1000000001, Name: "Alice"},
		{ID: 1000000002, Name: "Bob"},
	}

	data, err := Encode(NewUserListPacket(users))
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	up, ok := decoded.(UserListPacket)
	require.True(t, ok)
	assert.Equal(t, users, up.Users)

	messages := []Message{
		{ID: 1000000003, Content: "hi", Sender: users[0]},
	}

	data, err = Encode(NewMessageListPacket(messages))
	require.NoError(t, err)

	decoded, err = Decode(data)
	require.NoError(t, err)

	mp, ok := decoded.(MessageListPacket)
	require.True(t, ok)
	assert.Equal(t, messages, mp.Messages)
}

func TestDecodeProbeAndLeavePackets(t *testing.T) {
	data, err := Encode(NewProbePacket())
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, TagProbe, decoded.Tag())

	departed := user.User{ID: 1000000004, Name: "Bob"}

	data, err = Encode(NewUserLeavePacket(departed))
	require.NoError(t, err)

	decoded, err = Decode(data)
	require.NoError(t, err)

	lp, ok := decoded.(UserLeavePacket)
	require.True(t, ok)
	assert.Equal(t, departed, lp.User)
}

func TestDecodeMalformedPayload(t *testing.T) {
	_, err := Decode([]byte("not json at all"))
	require.Error(t, err)
	assert.Equal(t, errs.ErrPacketDecode, errs.CodeOf(err))
}

func TestDecodeUnknownTag(t *testing.T) {
	_, err := Decode([]byte(`{"header":"teleport"}`))
	require.Error(t, err)
	assert.Equal(t, errs.ErrUnknownPacketTag, errs.CodeOf(err))
}

func TestDecodeMissingHeader(t *testing.T) {
	_, err := Decode([]byte(`{"content":"hi"}`))
	require.Error(t, err)
	assert.Equal(t, errs.ErrUnknownPacketTag, errs.CodeOf(err))
}
