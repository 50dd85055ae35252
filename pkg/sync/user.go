package sync

import (
	"context"
	"fmt"
	"strings"

	"github.com/edulinkhq/chansync/pkg/logger"
)

// SyncUser reconciles a single user across every channel they are linked to
// through active enrollments. Other members of those channels are never
// touched. Triggered by per-user events: profile updates, role grants and
// revocations.
func (s *Synchronizer) SyncUser(ctx context.Context, localUserID string) error {
	courseIDs, err := s.roster.UserCourseIDs(localUserID)
	if err != nil {
		return fmt.Errorf("failed to enumerate courses for user %s: %w", localUserID, err)
	}

	for _, courseID := range courseIDs {
		bindings, err := s.bindings.FetchCourseBindings(courseID)
		if err != nil {
			logger.Debug("failed to fetch bindings for course %s: %v", courseID, err)
			continue
		}
		for _, binding := range bindings {
			scope, err := s.buildScope(ctx, binding)
			if err != nil {
				logger.Debug("failed to build scope for channel %s: %v", binding.RemoteChannelID, err)
				continue
			}
			if err := s.syncUserInScope(ctx, scope, localUserID); err != nil {
				logger.Debug("single-user sync failed for %s in channel %s: %v", localUserID, scope.ChannelID, err)
			}
		}
	}
	return nil
}

// syncUserInScope applies the desired-vs-current comparison restricted to
// one user: enroll if desired and absent, fix privilege if it differs,
// remove if present but not desired.
func (s *Synchronizer) syncUserInScope(ctx context.Context, scope Scope, localUserID string) error {
	lock := s.locks.lock(scope.ChannelID)
	defer lock.Unlock()

	var desired *DesiredMember
	for i := range scope.Desired {
		if scope.Desired[i].Profile.LocalUserID == localUserID {
			desired = &scope.Desired[i]
			break
		}
	}

	current, err := s.svc.ListEnrichedMembers(ctx, scope.ChannelID)
	if err != nil {
		return fmt.Errorf("failed to snapshot members of channel %s: %w", scope.ChannelID, err)
	}

	if desired != nil {
		email := strings.ToLower(desired.Profile.Email)
		existing, present := current[email]
		if !present {
			_, err := s.svc.EnrollMember(ctx, scope.ChannelID, desired.Profile, desired.IsAdmin)
			return err
		}
		if existing.IsAdmin != desired.IsAdmin {
			return s.svc.UpdateMemberRole(ctx, scope.ChannelID, localUserID, desired.IsAdmin)
		}
		return nil
	}

	// Not desired: remove if currently present. The remote record from the
	// snapshot is used so removal works even without an identity mapping.
	user, err := s.roster.FetchUser(localUserID)
	if err != nil || user == nil {
		return err
	}
	if member, present := current[strings.ToLower(user.Email)]; present {
		return s.svc.RemoveRemoteMember(ctx, scope.ChannelID, member)
	}
	return nil
}

// UnenrollUserEverywhere removes a user from every channel they currently
// appear in, for account suspension or deletion. When purgeMapping is set
// the identity mapping is deleted afterwards, for permanent removal.
func (s *Synchronizer) UnenrollUserEverywhere(ctx context.Context, localUserID string, purgeMapping bool) error {
	user, err := s.roster.FetchUser(localUserID)
	if err != nil {
		return err
	}
	if user == nil || user.Email == "" {
		return nil
	}
	email := strings.ToLower(user.Email)

	bindings, err := s.bindings.FetchAllBindings()
	if err != nil {
		return err
	}

	for _, binding := range bindings {
		lock := s.locks.lock(binding.RemoteChannelID)
		current, err := s.svc.ListEnrichedMembers(ctx, binding.RemoteChannelID)
		if err != nil {
			lock.Unlock()
			logger.Debug("failed to snapshot channel %s: %v", binding.RemoteChannelID, err)
			continue
		}
		if member, present := current[email]; present {
			if err := s.svc.RemoveRemoteMember(ctx, binding.RemoteChannelID, member); err != nil {
				logger.Debug("removal failed for %s in channel %s: %v", email, binding.RemoteChannelID, err)
			}
		}
		lock.Unlock()
	}

	if purgeMapping {
		return s.svc.DeleteMapping(localUserID)
	}
	return nil
}
