package gorm

import (
	"gorm.io/gorm"

	"github.com/edulinkhq/chansync/pkg/store"
)

// Ensure RosterStore implements store.RosterStore
var _ store.RosterStore = (*RosterStore)(nil)

// RosterStore implements store.RosterStore against the LMS read model.
// All queries are read-only; enrollment, group, and role state is owned by
// the host LMS.
type RosterStore struct {
	db *gorm.DB
}

// NewRosterStore creates a new RosterStore
func NewRosterStore(db *gorm.DB) *RosterStore {
	return &RosterStore{db: db}
}

// EnrolledUsers returns active enrollments for a course with roles
func (s *RosterStore) EnrolledUsers(courseID string) ([]store.Enrollment, error) {
	type enrollmentRow struct {
		UserId    string
		Email     string
		Username  string
		FirstName string
		LastName  string
		Suspended bool
		Deleted   bool
		Role      string
	}

	var rows []enrollmentRow
	err := s.db.Raw(`
		SELECT u.id AS user_id, u.email, u.username, u.first_name, u.last_name,
		       u.suspended, u.deleted, ra.role
		FROM enrollments e
		JOIN users u ON u.id = e.user_id
		LEFT JOIN role_assignments ra ON ra.user_id = e.user_id AND ra.course_id = e.course_id
		WHERE e.course_id = ? AND e.status = 'active'
		ORDER BY u.id
	`, courseID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	// One row per (user, role); fold into one enrollment per user.
	byUser := make(map[string]*store.Enrollment)
	order := make([]string, 0)
	for _, row := range rows {
		enrollment, ok := byUser[row.UserId]
		if !ok {
			enrollment = &store.Enrollment{
				User: store.RosterUser{
					ID:        row.UserId,
					Email:     row.Email,
					Username:  row.Username,
					FirstName: row.FirstName,
					LastName:  row.LastName,
					Suspended: row.Suspended,
					Deleted:   row.Deleted,
				},
			}
			byUser[row.UserId] = enrollment
			order = append(order, row.UserId)
		}
		if row.Role != "" {
			enrollment.Roles = append(enrollment.Roles, row.Role)
		}
	}

	enrollments := make([]store.Enrollment, 0, len(order))
	for _, userID := range order {
		enrollments = append(enrollments, *byUser[userID])
	}
	return enrollments, nil
}

// GroupMemberIDs returns the user ids of a group's members
func (s *RosterStore) GroupMemberIDs(groupID string) ([]string, error) {
	type memberRow struct {
		UserId string
	}
	var rows []memberRow
	err := s.db.Raw(`
		SELECT user_id FROM group_members WHERE group_id = ? ORDER BY user_id
	`, groupID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.UserId)
	}
	return ids, nil
}

// UserInGroup reports whether a user is a member of a group
func (s *RosterStore) UserInGroup(localUserID, groupID string) (bool, error) {
	var exists bool
	err := s.db.Raw(`
		SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = ? AND user_id = ?)
	`, groupID, localUserID).Scan(&exists).Error
	return exists, err
}

// UserRoles returns the roles a user holds in a course context
func (s *RosterStore) UserRoles(localUserID, courseID string) ([]string, error) {
	type roleRow struct {
		Role string
	}
	var rows []roleRow
	err := s.db.Raw(`
		SELECT role FROM role_assignments WHERE user_id = ? AND course_id = ? ORDER BY role
	`, localUserID, courseID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	roles := make([]string, 0, len(rows))
	for _, row := range rows {
		roles = append(roles, row.Role)
	}
	return roles, nil
}

// UserCourseIDs returns the courses a user is actively enrolled in
func (s *RosterStore) UserCourseIDs(localUserID string) ([]string, error) {
	type courseRow struct {
		CourseId string
	}
	var rows []courseRow
	err := s.db.Raw(`
		SELECT course_id FROM enrollments WHERE user_id = ? AND status = 'active' ORDER BY course_id
	`, localUserID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	courses := make([]string, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.CourseId)
	}
	return courses, nil
}

// FetchUser returns a user, or nil if unknown
func (s *RosterStore) FetchUser(localUserID string) (*store.RosterUser, error) {
	type userRow struct {
		Id        string
		Email     string
		Username  string
		FirstName string
		LastName  string
		Suspended bool
		Deleted   bool
	}
	var row userRow
	err := s.db.Raw(`
		SELECT id, email, username, first_name, last_name, suspended, deleted
		FROM users
		WHERE id = ?
	`, localUserID).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.Id == "" {
		return nil, nil
	}
	return &store.RosterUser{
		ID:        row.Id,
		Email:     row.Email,
		Username:  row.Username,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Suspended: row.Suspended,
		Deleted:   row.Deleted,
	}, nil
}
