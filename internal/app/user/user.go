/*
Package user contains the core data structure for participant identity.

A User is created on the client side with a chosen display name and no id,
and receives a permanent id from the hub once its join request passes
validation. After that the User is immutable; every other session only ever
holds a copy for display.
*/
package user

// UnassignedID is the id a User carries before the hub has accepted it.
const UnassignedID int64 = -1

// User represents the identity of one chat participant.
// Fields use JSON tags matching the wire protocol.
type User struct {
	// ID is the hub-assigned unique identifier, UnassignedID until accepted.
	ID int64 `json:"id"`

	// Name is the display name chosen by the participant.
	Name string `json:"name"`
}

// New returns a User with the given display name and no id yet.
func New(name string) User {
	return User{ID: UnassignedID, Name: name}
}

// Assigned reports whether the hub has issued an id for this user.
func (u User) Assigned() bool {
	return u.ID != UnassignedID
}
