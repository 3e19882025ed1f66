/*
Package chat contains the core logic of the broadcast hub: sessions, the
session registry, validation, and the dispatch of packets to all participants.

This file defines the Validator, which enforces the acceptance rules for
incoming user and message payloads. Rejected payloads are silently dropped;
no error packet goes back to the sender.
*/
package chat

import (
	"unicode/utf8"

	"relayhub/internal/app/user"
	"relayhub/internal/protocol"
)

// Validator holds the configured acceptance thresholds. Limits are exclusive:
// a name of exactly NameLimit characters is rejected.
type Validator struct {
	nameLimit    int
	contentLimit int
}

// NewValidator returns a Validator with the given thresholds.
func NewValidator(nameLimit, contentLimit int) Validator {
	return Validator{
		nameLimit:    nameLimit,
		contentLimit: contentLimit,
	}
}

// AcceptUser reports whether a join request may be registered.
func (v Validator) AcceptUser(candidate user.User) bool {
	return utf8.RuneCountInString(candidate.Name) < v.nameLimit
}

// AcceptMessage reports whether a message may enter the log and be broadcast.
// Messages from sessions with no registered user are never accepted.
func (v Validator) AcceptMessage(candidate protocol.Message, senderRegistered bool) bool {
	if !senderRegistered {
		return false
	}
	return utf8.RuneCountInString(candidate.Content) < v.contentLimit
}
