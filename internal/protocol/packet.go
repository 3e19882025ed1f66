/*
Package protocol defines the wire protocol shared by both ends of the link.

Every packet is the JSON encoding of a tagged union: a "header" field names
the variant and the remaining fields carry exactly that variant's entity.
Packets travel inside length-prefixed frames over raw streams (see frame.go)
or one-per-text-frame over WebSocket transports.
*/
package protocol

import (
	"encoding/json"

	"relayhub/internal/app/user"
	"relayhub/internal/pkg/errs"
)

// Tag names a packet variant on the wire.
type Tag string

const (
	TagUser         Tag = "user"
	TagMessage      Tag = "message"
	TagAnnouncement Tag = "announcement"
	TagUsers        Tag = "users"
	TagMessages     Tag = "messages"
	TagUserLeave    Tag = "user-leave"
	TagProbe        Tag = "connection-probe"
)

// Message is one relayed chat message. The id is assigned by the hub only
// after validation passes; until then it is user.UnassignedID.
type Message struct {
	ID      int64     `json:"id"`
	Content string    `json:"content"`
	Sender  user.User `json:"sender"`
}

// Packet is the tagged union of everything that can cross the wire.
type Packet interface {
	Tag() Tag
}

// UserPacket announces one user: a client's join request (hub-bound) or the
// hub's notification of a newly accepted user. IsMe is set only on the copy
// the hub sends to the session that owns the user.
type UserPacket struct {
	Header Tag `json:"header"`
	user.User
	IsMe bool `json:"is-me,omitempty"`
}

func (p UserPacket) Tag() Tag { return TagUser }

// MessagePacket carries one chat message.
type MessagePacket struct {
	Header Tag `json:"header"`
	Message
}

func (p MessagePacket) Tag() Tag { return TagMessage }

// AnnouncementPacket carries an ephemeral hub notice such as a join or leave
// banner. Announcements are never logged or replayed.
type AnnouncementPacket struct {
	Header  Tag    `json:"header"`
	Content string `json:"content"`
}

func (p AnnouncementPacket) Tag() Tag { return TagAnnouncement }

// UserListPacket is the backlog of already-registered users sent to a new session.
type UserListPacket struct {
	Header Tag         `json:"header"`
	Users  []user.User `json:"array"`
}

func (p UserListPacket) Tag() Tag { return TagUsers }

// MessageListPacket is the full ordered message log sent to a new session.
type MessageListPacket struct {
	Header   Tag       `json:"header"`
	Messages []Message `json:"array"`
}

func (p MessageListPacket) Tag() Tag { return TagMessages }

// UserLeavePacket notifies remaining sessions that a user disconnected.
type UserLeavePacket struct {
	Header Tag       `json:"header"`
	User   user.User `json:"user"`
}

func (p UserLeavePacket) Tag() Tag { return TagUserLeave }

// ProbePacket is a minimal liveness check. It only tests writability and
// expects no reply; receivers discard it.
type ProbePacket struct {
	Header Tag `json:"header"`
}

func (p ProbePacket) Tag() Tag { return TagProbe }

// NewUserPacket builds a user packet for u, marking it is-me for the owner's copy.
func NewUserPacket(u user.User, isMe bool) UserPacket {
	return UserPacket{Header: TagUser, User: u, IsMe: isMe}
}

// NewMessagePacket builds a message packet for m.
func NewMessagePacket(m Message) MessagePacket {
	return MessagePacket{Header: TagMessage, Message: m}
}

// NewAnnouncementPacket builds an announcement packet with the given notice.
func NewAnnouncementPacket(content string) AnnouncementPacket {
	return AnnouncementPacket{Header: TagAnnouncement, Content: content}
}

// NewUserListPacket builds a users backlog packet.
func NewUserListPacket(users []user.User) UserListPacket {
	return UserListPacket{Header: TagUsers, Users: users}
}

// NewMessageListPacket builds a messages backlog packet.
func NewMessageListPacket(messages []Message) MessageListPacket {
	return MessageListPacket{Header: TagMessages, Messages: messages}
}

// NewUserLeavePacket builds a user-leave packet for u.
func NewUserLeavePacket(u user.User) UserLeavePacket {
	return UserLeavePacket{Header: TagUserLeave, User: u}
}

// NewProbePacket builds a liveness probe packet.
func NewProbePacket() ProbePacket {
	return ProbePacket{Header: TagProbe}
}

// Encode serializes a packet to its JSON wire form.
func Encode(p Packet) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, errs.NewError(errs.ErrPacketEncode)
	}
	return data, nil
}

// Decode parses one packet's bytes back into its concrete variant.
// Malformed payloads and unknown tags fail with a protocol error; the caller
// decides whether the surrounding stream can still be trusted.
func Decode(data []byte) (Packet, error) {
	var envelope struct {
		Header Tag `json:"header"`
	}

	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, errs.NewError(errs.ErrPacketDecode)
	}

	switch envelope.Header {
	case TagUser:
		var p UserPacket
		return decodeInto(data, &p)

	case TagMessage:
		var p MessagePacket
		return decodeInto(data, &p)

	case TagAnnouncement:
		var p AnnouncementPacket
		return decodeInto(data, &p)

	case TagUsers:
		var p UserListPacket
		return decodeInto(data, &p)

	case TagMessages:
		var p MessageListPacket
		return decodeInto(data, &p)

	case TagUserLeave:
		var p UserLeavePacket
		return decodeInto(data, &p)

	case TagProbe:
		return NewProbePacket(), nil

	default:
		return nil, errs.NewError(errs.ErrUnknownPacketTag, string(envelope.Header))
	}
}

// decodeInto unmarshals data into the concrete packet pointed to by p.
func decodeInto[T Packet](data []byte, p *T) (Packet, error) {
	if err := json.Unmarshal(data, p); err != nil {
		return nil, errs.NewError(errs.ErrPacketDecode)
	}
	return *p, nil
}
