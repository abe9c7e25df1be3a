package models

// GhostMember is a placeholder group member with a name only and no linked
// channel. A ghost can later be claimed by a real participant, which rewrites
// every historical reference to the ghost's id.
type GhostMember struct {
	// ID is the unique identifier for the ghost (UUID format).
	ID string

	// Name is the display name the ghost was created with.
	Name string
}

// Group represents a set of participants who share expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group.
	Name string

	// Members is the set of participant IDs in this group.
	Members []string

	// Ghosts are placeholder members without an account.
	Ghosts []GhostMember

	// CreatedBy is the participant who created the group.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// HasMember reports whether the participant id is a member (ghosts included).
func (g *Group) HasMember(id string) bool {
	for _, m := range g.Members {
		if m == id {
			return true
		}
	}
	for _, gh := range g.Ghosts {
		if gh.ID == id {
			return true
		}
	}
	return false
}
