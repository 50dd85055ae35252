package sync

import (
	"context"
	"fmt"
	"strings"

	"github.com/edulinkhq/chansync/pkg/config"
	"github.com/edulinkhq/chansync/pkg/model"
	"github.com/edulinkhq/chansync/pkg/service"
	"github.com/edulinkhq/chansync/pkg/store"
)

// staticRoles is a RoleSource whose sets tests can swap between passes.
type staticRoles struct {
	admin  config.RoleSet
	member config.RoleSet
}

func (r *staticRoles) AdminRoleSet() config.RoleSet  { return r.admin }
func (r *staticRoles) MemberRoleSet() config.RoleSet { return r.member }

func testRoles() *staticRoles {
	return &staticRoles{admin: testAdminRoles, member: testMemberRoles}
}

// fakeChannelService is an in-memory remote side. It tracks per-operation
// counts so tests can assert on the exact mutations a pass produced.
type fakeChannelService struct {
	members  map[string]map[string]service.RemoteMember
	archived map[string]bool

	createdNames    []string
	enrolls         int
	roleUpdates     int
	removals        int
	deletedMappings []string

	enrollErr map[string]error
	listErr   error
}

var _ ChannelService = (*fakeChannelService)(nil)

func newFakeChannelService() *fakeChannelService {
	return &fakeChannelService{
		members:   map[string]map[string]service.RemoteMember{},
		archived:  map[string]bool{},
		enrollErr: map[string]error{},
	}
}

func (f *fakeChannelService) seed(channelID string, members ...service.RemoteMember) {
	f.members[channelID] = map[string]service.RemoteMember{}
	for _, m := range members {
		f.members[channelID][strings.ToLower(m.Email)] = m
	}
}

func (f *fakeChannelService) mutations() int {
	return len(f.createdNames) + f.enrolls + f.roleUpdates + f.removals + len(f.archived)
}

func (f *fakeChannelService) CreateChannel(ctx context.Context, name string) (string, error) {
	f.createdNames = append(f.createdNames, name)
	id := fmt.Sprintf("ch-%d", len(f.createdNames))
	f.members[id] = map[string]service.RemoteMember{}
	return id, nil
}

func (f *fakeChannelService) ArchiveChannel(ctx context.Context, channelID string) error {
	f.archived[channelID] = true
	return nil
}

func (f *fakeChannelService) EnrollMember(ctx context.Context, channelID string, profile service.MemberProfile, asAdmin bool) (service.RemoteMember, error) {
	email := strings.ToLower(profile.Email)
	if err := f.enrollErr[email]; err != nil {
		return service.RemoteMember{}, err
	}
	member := service.RemoteMember{
		Email:        email,
		RemoteUserID: "r-" + profile.LocalUserID,
		IsAdmin:      asAdmin,
	}
	if f.members[channelID] == nil {
		f.members[channelID] = map[string]service.RemoteMember{}
	}
	f.members[channelID][email] = member
	f.enrolls++
	return member, nil
}

func (f *fakeChannelService) UpdateMemberRole(ctx context.Context, channelID, localUserID string, asAdmin bool) error {
	for email, member := range f.members[channelID] {
		if member.RemoteUserID == "r-"+localUserID {
			member.IsAdmin = asAdmin
			f.members[channelID][email] = member
			f.roleUpdates++
			return nil
		}
	}
	return service.ErrUnmappedUser
}

func (f *fakeChannelService) RemoveMember(ctx context.Context, channelID, localUserID string) error {
	for email, member := range f.members[channelID] {
		if member.RemoteUserID == "r-"+localUserID {
			delete(f.members[channelID], email)
			f.removals++
			return nil
		}
	}
	return service.ErrUnmappedUser
}

func (f *fakeChannelService) RemoveRemoteMember(ctx context.Context, channelID string, member service.RemoteMember) error {
	delete(f.members[channelID], strings.ToLower(member.Email))
	f.removals++
	return nil
}

func (f *fakeChannelService) ListEnrichedMembers(ctx context.Context, channelID string) (map[string]service.RemoteMember, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	snapshot := make(map[string]service.RemoteMember, len(f.members[channelID]))
	for email, member := range f.members[channelID] {
		snapshot[email] = member
	}
	return snapshot, nil
}

func (f *fakeChannelService) DeleteMapping(localUserID string) error {
	f.deletedMappings = append(f.deletedMappings, localUserID)
	return nil
}

// fakeRoster is a map-backed store.RosterStore.
type fakeRoster struct {
	enrollments map[string][]store.Enrollment
	groups      map[string][]string
	users       map[string]store.RosterUser
}

var _ store.RosterStore = (*fakeRoster)(nil)

func newFakeRoster() *fakeRoster {
	return &fakeRoster{
		enrollments: map[string][]store.Enrollment{},
		groups:      map[string][]string{},
		users:       map[string]store.RosterUser{},
	}
}

func (f *fakeRoster) enroll(courseID string, user store.RosterUser, roles ...string) {
	f.users[user.ID] = user
	f.enrollments[courseID] = append(f.enrollments[courseID], store.Enrollment{User: user, Roles: roles})
}

func (f *fakeRoster) EnrolledUsers(courseID string) ([]store.Enrollment, error) {
	return f.enrollments[courseID], nil
}

func (f *fakeRoster) GroupMemberIDs(groupID string) ([]string, error) {
	return f.groups[groupID], nil
}

func (f *fakeRoster) UserInGroup(localUserID, groupID string) (bool, error) {
	for _, id := range f.groups[groupID] {
		if id == localUserID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRoster) UserRoles(localUserID, courseID string) ([]string, error) {
	for _, enrollment := range f.enrollments[courseID] {
		if enrollment.User.ID == localUserID {
			return enrollment.Roles, nil
		}
	}
	return nil, nil
}

func (f *fakeRoster) UserCourseIDs(localUserID string) ([]string, error) {
	var courseIDs []string
	for courseID, enrollments := range f.enrollments {
		for _, enrollment := range enrollments {
			if enrollment.User.ID == localUserID {
				courseIDs = append(courseIDs, courseID)
				break
			}
		}
	}
	return courseIDs, nil
}

func (f *fakeRoster) FetchUser(localUserID string) (*store.RosterUser, error) {
	user, ok := f.users[localUserID]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// fakeBindings is an in-memory store.BindingsStore.
type fakeBindings struct {
	rows []model.ChannelBinding
}

var _ store.BindingsStore = (*fakeBindings)(nil)

func (f *fakeBindings) FetchBinding(remoteChannelID string) (*model.ChannelBinding, error) {
	for i := range f.rows {
		if f.rows[i].RemoteChannelID == remoteChannelID {
			return &f.rows[i], nil
		}
	}
	return nil, nil
}

func (f *fakeBindings) FetchInstanceBindings(instanceID string) ([]model.ChannelBinding, error) {
	var out []model.ChannelBinding
	for _, row := range f.rows {
		if row.InstanceID == instanceID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeBindings) FetchCourseBindings(courseID string) ([]model.ChannelBinding, error) {
	var out []model.ChannelBinding
	for _, row := range f.rows {
		if row.CourseID == courseID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeBindings) FetchGroupBinding(instanceID, groupID string) (*model.ChannelBinding, error) {
	for i := range f.rows {
		row := f.rows[i]
		if row.InstanceID == instanceID && row.GroupID != nil && *row.GroupID == groupID {
			return &f.rows[i], nil
		}
	}
	return nil, nil
}

func (f *fakeBindings) FetchAllBindings() ([]model.ChannelBinding, error) {
	return append([]model.ChannelBinding{}, f.rows...), nil
}

func (f *fakeBindings) SaveBinding(binding model.ChannelBinding) error {
	for _, row := range f.rows {
		if row.RemoteChannelID == binding.RemoteChannelID {
			return nil
		}
	}
	f.rows = append(f.rows, binding)
	return nil
}

func (f *fakeBindings) DeleteBinding(remoteChannelID string) error {
	kept := f.rows[:0]
	for _, row := range f.rows {
		if row.RemoteChannelID != remoteChannelID {
			kept = append(kept, row)
		}
	}
	f.rows = kept
	return nil
}
