package server

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relayhub/internal/app/chat"
	"relayhub/internal/app/user"
	"relayhub/internal/client"
	"relayhub/internal/configs"
	"relayhub/internal/protocol"
)

const eventTimeout = 3 * time.Second

// joinEvent pairs a user broadcast with its self marker.
type joinEvent struct {
	user user.User
	isMe bool
}

// recorder is a client.Handler that funnels every event into buffered
// channels so tests can assert on arrival order.
type recorder struct {
	joins         chan joinEvent
	messages      chan protocol.Message
	announcements chan string
	userLists     chan []user.User
	messageLists  chan []protocol.Message
	leaves        chan user.User
	disconnects   chan error
}

func newRecorder() *recorder {
	return &recorder{
		joins:         make(chan joinEvent, 32),
		messages:      make(chan protocol.Message, 32),
		announcements: make(chan string, 32),
		userLists:     make(chan []user.User, 8),
		messageLists:  make(chan []protocol.Message, 8),
		leaves:        make(chan user.User, 8),
		disconnects:   make(chan error, 1),
	}
}

func (r *recorder) HandleJoin(u user.User, isMe bool)              { r.joins <- joinEvent{u, isMe} }
func (r *recorder) HandleMessage(m protocol.Message)               { r.messages <- m }
func (r *recorder) HandleAnnouncement(content string)              { r.announcements <- content }
func (r *recorder) HandleUserList(users []user.User)               { r.userLists <- users }
func (r *recorder) HandleMessageList(messages []protocol.Message)  { r.messageLists <- messages }
func (r *recorder) HandleLeave(u user.User)                        { r.leaves <- u }
func (r *recorder) HandleDisconnect(err error)                     { r.disconnects <- err }

// recv pulls the next event off ch or fails the test.
func recv[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()

	select {
	case v := <-ch:
		return v
	case <-time.After(eventTimeout):
		t.Fatalf("timed out waiting for %s", what)
		panic("unreachable")
	}
}

func testConfig() *configs.AppConfig {
	return &configs.AppConfig{
		Environment:     "development",
		TCPAddr:         "127.0.0.1",
		TCPPort:         0, // ephemeral
		NameLimit:       16,
		ContentLimit:    128,
		SendInterval:    time.Millisecond,
		ReadIdleTimeout: time.Minute,
	}
}

// startServer binds an ephemeral port and returns the running server.
func startServer(t *testing.T) *Server {
	t.Helper()

	hub := chat.NewHub(chat.Config{NameLimit: 16, ContentLimit: 128, SendInterval: time.Millisecond})
	go hub.Run()

	srv := New(testConfig(), hub)
	require.NoError(t, srv.Listen())
	go srv.Serve()
	t.Cleanup(srv.Shutdown)

	return srv
}

// dialRecorder connects a client under the given name and waits for the hub's
// join confirmation.
func dialRecorder(t *testing.T, srv *Server, name string) (*client.Client, *recorder) {
	t.Helper()

	rec := newRecorder()

	c, err := client.Dial(srv.Addr().String(), name, rec)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	confirmation := recv(t, rec.joins, "join confirmation")
	require.True(t, confirmation.isMe)
	require.Equal(t, name, confirmation.user.Name)

	greeting := recv(t, rec.announcements, "join announcement")
	require.Equal(t, fmt.Sprintf("%s Has Joined", name), greeting)

	return c, rec
}

func TestTwoClientConversation(t *testing.T) {
	srv := startServer(t)

	alice, aliceRec := dialRecorder(t, srv, "Alice")
	assert.True(t, alice.Self().Assigned())

	require.NoError(t, alice.Send("hi"))

	echo := recv(t, aliceRec.messages, "Alice's echo")
	assert.Equal(t, "hi", echo.Content)
	assert.Equal(t, alice.Self(), echo.Sender)
	assert.GreaterOrEqual(t, echo.ID, int64(1_000_000_000))

	bob, bobRec := dialRecorder(t, srv, "Bob")

	// Bob catches up on who is here and what was said.
	users := recv(t, bobRec.userLists, "Bob's users backlog")
	require.Len(t, users, 1)
	assert.Equal(t, alice.Self(), users[0])

	backlog := recv(t, bobRec.messageLists, "Bob's messages backlog")
	require.Len(t, backlog, 1)
	assert.Equal(t, echo, backlog[0])

	// Alice sees Bob arrive, without the self marker.
	arrival := recv(t, aliceRec.joins, "Bob's arrival on Alice's stream")
	assert.Equal(t, bob.Self(), arrival.user)
	assert.False(t, arrival.isMe)
	assert.Equal(t, "Bob Has Joined", recv(t, aliceRec.announcements, "Bob's arrival announcement"))

	// A message from Bob reaches both participants.
	require.NoError(t, bob.Send("hello Alice"))

	fromBob := recv(t, aliceRec.messages, "Bob's message on Alice's stream")
	assert.Equal(t, "hello Alice", fromBob.Content)
	assert.Equal(t, bob.Self(), fromBob.Sender)
	assert.Equal(t, fromBob, recv(t, bobRec.messages, "Bob's own echo"))

	// Bob hangs up; Alice is told twice, leave packet then announcement.
	bobUser := bob.Self()
	bob.Close()
	require.NoError(t, recv(t, bobRec.disconnects, "Bob's local disconnect"))

	departed := recv(t, aliceRec.leaves, "Bob's leave on Alice's stream")
	assert.Equal(t, bobUser.ID, departed.ID)
	assert.Equal(t, "Bob Has Left", recv(t, aliceRec.announcements, "Bob's leave announcement"))
}

func TestBurstKeepsSendOrder(t *testing.T) {
	srv := startServer(t)

	alice, aliceRec := dialRecorder(t, srv, "Alice")
	_, bobRec := dialRecorder(t, srv, "Bob")

	// drain Bob's arrival from Alice's stream
	recv(t, aliceRec.joins, "Bob's arrival")
	recv(t, aliceRec.announcements, "Bob's arrival announcement")

	const burst = 15
	for i := 0; i < burst; i++ {
		require.NoError(t, alice.Send(fmt.Sprintf("m%02d", i)))
	}

	for i := 0; i < burst; i++ {
		want := fmt.Sprintf("m%02d", i)
		assert.Equal(t, want, recv(t, aliceRec.messages, want).Content)
		assert.Equal(t, want, recv(t, bobRec.messages, want).Content)
	}
}

func TestRejectedNameIsNeverConfirmed(t *testing.T) {
	srv := startServer(t)

	rec := newRecorder()
	c, err := client.Dial(srv.Addr().String(), "this-name-is-far-too-long", rec)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	select {
	case e := <-rec.joins:
		t.Fatalf("rejected name was confirmed as %+v", e)
	case <-time.After(300 * time.Millisecond):
	}

	// The connection itself survives the rejection; a second joiner shows
	// the hub still has exactly one registered user.
	other, _ := dialRecorder(t, srv, "Alice")
	assert.Equal(t, "Alice", other.Self().Name)
}

func TestMalformedFrameFromLivePeerIsSkipped(t *testing.T) {
	srv := startServer(t)

	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, protocol.WriteFrame(conn, []byte("{not a packet")))

	// The hub answers the bad frame with a liveness probe, then honors a
	// well-formed join on the same connection.
	stream := protocol.NewStreamConn(conn, eventTimeout)

	probe, err := stream.ReadPacket()
	require.NoError(t, err)
	require.IsType(t, protocol.ProbePacket{}, probe)

	require.NoError(t, stream.WritePacket(protocol.NewUserPacket(user.New("Alice"), false)))

	confirmation, err := stream.ReadPacket()
	require.NoError(t, err)

	up, ok := confirmation.(protocol.UserPacket)
	require.True(t, ok)
	assert.True(t, up.IsMe)
	assert.Equal(t, "Alice", up.Name)
}

func TestShutdownDisconnectsClients(t *testing.T) {
	hub := chat.NewHub(chat.Config{NameLimit: 16, ContentLimit: 128, SendInterval: time.Millisecond})
	go hub.Run()

	srv := New(testConfig(), hub)
	require.NoError(t, srv.Listen())
	go srv.Serve()

	_, rec := dialRecorder(t, srv, "Alice")

	srv.Shutdown()

	assert.Error(t, recv(t, rec.disconnects, "server-side disconnect"))
}
