package sync

import (
	"context"
	"fmt"
	"strings"

	"github.com/edulinkhq/chansync/pkg/config"
	"github.com/edulinkhq/chansync/pkg/logger"
	"github.com/edulinkhq/chansync/pkg/model"
	"github.com/edulinkhq/chansync/pkg/service"
	"github.com/edulinkhq/chansync/pkg/store"
)

// RoleSource supplies the admin and member role sets consulted on each
// pass, so a configuration reload takes effect without rebuilding the
// synchronizer. *config.Config implements it.
type RoleSource interface {
	AdminRoleSet() config.RoleSet
	MemberRoleSet() config.RoleSet
}

// Synchronizer reconciles desired channel membership, derived from LMS role
// state, against current remote membership.
type Synchronizer struct {
	svc      ChannelService
	roster   store.RosterStore
	bindings store.BindingsStore
	roles    RoleSource

	locks *channelLocks
}

// New creates a Synchronizer. All collaborators are injected; there is no
// ambient service singleton.
func New(svc ChannelService, roster store.RosterStore, bindings store.BindingsStore, roles RoleSource) *Synchronizer {
	return &Synchronizer{
		svc:      svc,
		roster:   roster,
		bindings: bindings,
		roles:    roles,
		locks:    newChannelLocks(),
	}
}

// SyncScope runs one full reconciliation pass for one channel.
//
// The pass snapshots remote membership, then walks the desired set: present
// members with the wrong privilege get a role update, absent members get
// enrolled, and whatever remains in the snapshot afterwards is an orphan and
// is removed. A failure on one member never aborts the pass for the rest;
// one bad record must not block convergence for the whole channel. Only a
// failure to take the snapshot itself fails the pass.
func (s *Synchronizer) SyncScope(ctx context.Context, scope Scope) error {
	lock := s.locks.lock(scope.ChannelID)
	defer lock.Unlock()

	current, err := s.svc.ListEnrichedMembers(ctx, scope.ChannelID)
	if err != nil {
		return fmt.Errorf("failed to snapshot members of channel %s: %w", scope.ChannelID, err)
	}

	for _, desired := range scope.Desired {
		email := strings.ToLower(desired.Profile.Email)
		if email == "" {
			logger.Debug("skipping user %s with empty email in channel %s", desired.Profile.LocalUserID, scope.ChannelID)
			continue
		}

		existing, present := current[email]
		if present {
			if existing.IsAdmin != desired.IsAdmin {
				if err := s.svc.UpdateMemberRole(ctx, scope.ChannelID, desired.Profile.LocalUserID, desired.IsAdmin); err != nil {
					logger.Debug("role update failed for %s in channel %s: %v", email, scope.ChannelID, err)
				}
			}
			delete(current, email) // reconciled
			continue
		}

		if _, err := s.svc.EnrollMember(ctx, scope.ChannelID, desired.Profile, desired.IsAdmin); err != nil {
			logger.Debug("enroll failed for %s in channel %s: %v", email, scope.ChannelID, err)
		}
	}

	// Anything left in the snapshot has no corresponding desired member.
	for _, orphan := range current {
		if err := s.svc.RemoveRemoteMember(ctx, scope.ChannelID, orphan); err != nil {
			logger.Debug("orphan removal failed for %s in channel %s: %v", orphan.Email, scope.ChannelID, err)
		}
	}

	return nil
}

// SyncInstance builds and reconciles every scope of a module instance: the
// course channel plus one scope per group-bound channel.
//
// When forceSynchronousFor is non-nil, only that user is reconciled in each
// scope; the caller is expected to schedule full passes separately. This
// models the "triggering user synchronously, everyone else deferred"
// behavior on initial provisioning as an explicit parameter.
func (s *Synchronizer) SyncInstance(ctx context.Context, instanceID string, forceSynchronousFor *string) error {
	scopes, err := s.ScopesForInstance(ctx, instanceID)
	if err != nil {
		return err
	}

	for _, scope := range scopes {
		if forceSynchronousFor != nil {
			if err := s.syncUserInScope(ctx, scope, *forceSynchronousFor); err != nil {
				logger.Debug("single-user sync failed in channel %s: %v", scope.ChannelID, err)
			}
			continue
		}
		if err := s.SyncScope(ctx, scope); err != nil {
			logger.Debug("scope sync failed for channel %s: %v", scope.ChannelID, err)
		}
	}
	return nil
}

// SyncCourse reconciles every channel bound to instances of a course.
func (s *Synchronizer) SyncCourse(ctx context.Context, courseID string) error {
	bindings, err := s.bindings.FetchCourseBindings(courseID)
	if err != nil {
		return err
	}
	return s.syncBindings(ctx, bindings)
}

// SyncAll reconciles every bound channel. Used by the periodic full resync.
func (s *Synchronizer) SyncAll(ctx context.Context) error {
	bindings, err := s.bindings.FetchAllBindings()
	if err != nil {
		return err
	}
	return s.syncBindings(ctx, bindings)
}

func (s *Synchronizer) syncBindings(ctx context.Context, bindings []model.ChannelBinding) error {
	for _, binding := range bindings {
		scope, err := s.buildScope(ctx, binding)
		if err != nil {
			logger.Debug("failed to build scope for channel %s: %v", binding.RemoteChannelID, err)
			continue
		}
		if err := s.SyncScope(ctx, scope); err != nil {
			logger.Debug("scope sync failed for channel %s: %v", binding.RemoteChannelID, err)
		}
	}
	return nil
}

// ScopesForInstance computes the reconciliation scopes for one module
// instance, course-level scope first.
func (s *Synchronizer) ScopesForInstance(ctx context.Context, instanceID string) ([]Scope, error) {
	bindings, err := s.bindings.FetchInstanceBindings(instanceID)
	if err != nil {
		return nil, err
	}

	scopes := make([]Scope, 0, len(bindings))
	for _, binding := range bindings {
		scope, err := s.buildScope(ctx, binding)
		if err != nil {
			return nil, err
		}
		scopes = append(scopes, scope)
	}
	return scopes, nil
}

// buildScope derives the desired membership for one binding. Group channels
// take the course desired-set intersected with group membership: a user who
// left the course must not stay in a group channel merely because the group
// still lists them.
func (s *Synchronizer) buildScope(ctx context.Context, binding model.ChannelBinding) (Scope, error) {
	enrollments, err := s.roster.EnrolledUsers(binding.CourseID)
	if err != nil {
		return Scope{}, fmt.Errorf("failed to enumerate enrollments for course %s: %w", binding.CourseID, err)
	}

	desired := s.desiredFromEnrollments(enrollments)

	scope := Scope{
		ChannelID: binding.RemoteChannelID,
		CourseID:  binding.CourseID,
		Desired:   desired,
	}

	if binding.IsGroupChannel() {
		scope.GroupID = *binding.GroupID
		memberIDs, err := s.roster.GroupMemberIDs(scope.GroupID)
		if err != nil {
			return Scope{}, fmt.Errorf("failed to enumerate members of group %s: %w", scope.GroupID, err)
		}
		inGroup := make(map[string]struct{}, len(memberIDs))
		for _, id := range memberIDs {
			inGroup[id] = struct{}{}
		}

		filtered := make([]DesiredMember, 0, len(desired))
		for _, member := range desired {
			if _, ok := inGroup[member.Profile.LocalUserID]; ok {
				filtered = append(filtered, member)
			}
		}
		scope.Desired = filtered
	}

	return scope, nil
}

// desiredFromEnrollments classifies enrollments into desired members.
// Admin-role membership is evaluated first: a user holding an admin role is
// always admin, whatever lesser roles they also hold. Users holding neither
// set's roles, and suspended or deleted users, are not desired at all.
func (s *Synchronizer) desiredFromEnrollments(enrollments []store.Enrollment) []DesiredMember {
	adminRoles := s.roles.AdminRoleSet()
	memberRoles := s.roles.MemberRoleSet()

	desired := make([]DesiredMember, 0, len(enrollments))
	for _, enrollment := range enrollments {
		if enrollment.User.Suspended || enrollment.User.Deleted {
			continue
		}

		isAdmin := adminRoles.ContainsAny(enrollment.Roles)
		if !isAdmin && !memberRoles.ContainsAny(enrollment.Roles) {
			continue
		}

		desired = append(desired, DesiredMember{
			Profile: profileFromUser(enrollment.User),
			IsAdmin: isAdmin,
		})
	}
	return desired
}

func profileFromUser(user store.RosterUser) service.MemberProfile {
	return service.MemberProfile{
		LocalUserID: user.ID,
		Email:       user.Email,
		Username:    user.Username,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
	}
}
