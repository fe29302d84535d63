package models

// Group represents a set of users who share expenses.
//
// The creator is implicitly the first member: the store inserts the
// membership row in the same transaction as the group row.
type Group struct {
	// ID is assigned by the store on creation (autoincrement).
	// Zero until the group is persisted.
	ID int64

	// Name is the display name of the group (e.g. "Goa Trip").
	Name string

	// Description is optional free text.
	Description string

	// CreatedBy is the User.ID of the creator.
	CreatedBy string
}
