package models

// User represents a registered person.
//
// The ID is assigned by the caller (the conversational layer derives it
// from the chat identity), not by the store, so it is stable across
// re-registration attempts.
type User struct {
	// ID is the stable external identity of the user.
	ID string

	// Name is the display name of the user.
	Name string

	// Username is the handle the user registered with.
	Username string
}

// GroupMembership links a user to a group. It has no identity beyond
// the pair.
type GroupMembership struct {
	UserID  string
	GroupID int64
}
