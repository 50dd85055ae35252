package store

// RosterUser is a local LMS user as seen by the synchronizer.
type RosterUser struct {
	ID        string
	Email     string
	Username  string
	FirstName string
	LastName  string
	Suspended bool
	Deleted   bool
}

// Enrollment is a user's active enrollment in a course with the roles they
// hold in that context.
type Enrollment struct {
	User  RosterUser
	Roles []string
}

// RosterStore is the read-only surface onto LMS enrollment, group, and role
// state. The synchronizer never writes through this interface.
type RosterStore interface {
	// EnrolledUsers returns active enrollments for a course with roles
	EnrolledUsers(courseID string) ([]Enrollment, error)

	// GroupMemberIDs returns the user ids of a group's members
	GroupMemberIDs(groupID string) ([]string, error)

	// UserInGroup reports whether a user is a member of a group
	UserInGroup(localUserID, groupID string) (bool, error)

	// UserRoles returns the roles a user holds in a course context
	UserRoles(localUserID, courseID string) ([]string, error)

	// UserCourseIDs returns the courses a user is actively enrolled in
	UserCourseIDs(localUserID string) ([]string, error)

	// FetchUser returns a user, or nil if unknown
	FetchUser(localUserID string) (*RosterUser, error)
}
