/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
gateway responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the message and HTTP status code
// used when the error surfaces through the gateway.
var errorMap = map[int]CustomError{
	// 1xxx: Protocol and Transport Errors
	ErrFrameTooLarge:     {Code: ErrFrameTooLarge, Message: "Frame exceeds the maximum allowed size."},
	ErrFrameTruncated:    {Code: ErrFrameTruncated, Message: "Stream ended inside a frame."},
	ErrPacketDecode:      {Code: ErrPacketDecode, Message: "Packet payload could not be decoded."},
	ErrUnknownPacketTag:  {Code: ErrUnknownPacketTag, Message: "Packet header %q is not part of the protocol."},
	ErrPacketEncode:      {Code: ErrPacketEncode, Message: "Packet could not be serialized."},
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many connections. Please try again later.", Status: http.StatusTooManyRequests},
	ErrFrameEmpty:        {Code: ErrFrameEmpty, Message: "Frame carries a zero-length payload."},

	// 2xxx: Validation Errors
	ErrNameTooLong:    {Code: ErrNameTooLong, Message: "Display name is too long."},
	ErrContentTooLong: {Code: ErrContentTooLong, Message: "Message is too long."},
	ErrNotRegistered:  {Code: ErrNotRegistered, Message: "Session has no registered user yet."},

	// 3xxx: Delivery and Liveness Errors
	ErrDeliveryFailed:  {Code: ErrDeliveryFailed, Message: "Packet could not be delivered to the recipient."},
	ErrPeerUnreachable: {Code: ErrPeerUnreachable, Message: "Peer is unreachable."},
	ErrSendQueueFull:   {Code: ErrSendQueueFull, Message: "Recipient's outbound queue is full."},
	ErrSessionClosed:   {Code: ErrSessionClosed, Message: "Session is closed."},

	// 4xxx: Lookup Errors
	ErrUserNotFound: {Code: ErrUserNotFound, Message: "User not found.", Status: http.StatusNotFound},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
