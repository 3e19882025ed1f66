/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific transport, validation, and delivery failures
both internally within the hub and in the HTTP gateway's responses.
*/
package errs

// 1xxx: Protocol and Transport Errors
const (
	// ErrFrameTooLarge indicates a length prefix above the maximum frame size.
	ErrFrameTooLarge = 1001

	// ErrFrameTruncated indicates the stream ended inside a frame.
	ErrFrameTruncated = 1002

	// ErrPacketDecode indicates a frame payload that could not be decoded.
	ErrPacketDecode = 1003

	// ErrUnknownPacketTag indicates a packet whose header tag is not part of the protocol.
	ErrUnknownPacketTag = 1004

	// ErrPacketEncode indicates a packet that could not be serialized.
	ErrPacketEncode = 1005

	// ErrRateLimitExceeded indicates that the connection rate has exceeded the set limit.
	ErrRateLimitExceeded = 1006

	// ErrFrameEmpty indicates a length prefix of zero; no packet encodes to nothing.
	ErrFrameEmpty = 1007
)

// 2xxx: Validation Errors
const (
	// ErrNameTooLong indicates a join request whose display name exceeds the limit.
	ErrNameTooLong = 2101

	// ErrContentTooLong indicates a message whose content exceeds the limit.
	ErrContentTooLong = 2201

	// ErrNotRegistered indicates a message from a session with no accepted user yet.
	ErrNotRegistered = 2301
)

// 3xxx: Delivery and Liveness Errors
const (
	// ErrDeliveryFailed indicates a write to one recipient failed.
	ErrDeliveryFailed = 3001

	// ErrPeerUnreachable indicates a liveness probe failed, confirming disconnect.
	ErrPeerUnreachable = 3002

	// ErrSendQueueFull indicates a recipient's outbound queue was full.
	ErrSendQueueFull = 3003

	// ErrSessionClosed indicates an operation on a session that already shut down.
	ErrSessionClosed = 3004
)

// 4xxx: Lookup Errors
const (
	// ErrUserNotFound indicates a lookup for a user id with no registered session.
	ErrUserNotFound = 4001
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general internal error.
	ErrUnknown = 5000
)
