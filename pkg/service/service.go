// Package service adds domain semantics on top of the remote client:
// idempotent channel creation, user upsert, member enrollment with identity
// mapping persistence, and enriched member listing.
//
// Every remote failure is logged with its HTTP status and surfaced as a
// typed error; nothing here silently succeeds.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/edulinkhq/chansync/pkg/audit"
	"github.com/edulinkhq/chansync/pkg/logger"
	"github.com/edulinkhq/chansync/pkg/remote"
	"github.com/edulinkhq/chansync/pkg/store"
)

// MemberProfile identifies a local user to enroll remotely.
type MemberProfile struct {
	LocalUserID string
	Email       string
	Username    string
	FirstName   string
	LastName    string
	AuthService string
	AuthData    string
}

// RemoteMember is a channel member as reported by the remote server, keyed
// by lower-cased email during reconciliation.
type RemoteMember struct {
	Email        string
	RemoteUserID string
	IsAdmin      bool
}

// Service wraps the remote client with idempotency and identity mapping.
type Service struct {
	client     *remote.Client
	identities store.IdentityStore
	pageSize   int
}

// New creates a Service. pageSize bounds member-list pagination and must be
// positive.
func New(client *remote.Client, identities store.IdentityStore, pageSize int) (*Service, error) {
	if client == nil {
		return nil, fmt.Errorf("remote client is required")
	}
	if identities == nil {
		return nil, fmt.Errorf("identity store is required")
	}
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", pageSize)
	}
	return &Service{client: client, identities: identities, pageSize: pageSize}, nil
}

// CreateChannel creates a remote channel. On a name collision it retries
// once with a timestamp-suffixed name; any other failure is fatal for the
// attempt.
func (s *Service) CreateChannel(ctx context.Context, name string) (string, error) {
	channel, err := s.client.CreateChannel(ctx, name)
	if err != nil && IsNameCollision(err) {
		disambiguated := fmt.Sprintf("%s_%d", name, time.Now().Unix())
		logger.Debug("channel name %q taken, retrying as %q", name, disambiguated)
		channel, err = s.client.CreateChannel(ctx, disambiguated)
		name = disambiguated
	}
	if err != nil {
		audit.Log(audit.ChannelEvent{ChannelName: name, Operation: "create", ErrorMessage: err.Error()})
		return "", &ChannelCreationError{Name: name, Message: err.Error()}
	}

	audit.Log(audit.ChannelEvent{ChannelID: channel.ID, ChannelName: name, Operation: "create", Success: true})
	return channel.ID, nil
}

// ArchiveChannel archives a remote channel.
func (s *Service) ArchiveChannel(ctx context.Context, channelID string) error {
	err := s.client.ArchiveChannel(ctx, channelID)
	audit.Log(audit.ChannelEvent{
		ChannelID:    channelID,
		Operation:    "archive",
		Success:      err == nil,
		ErrorMessage: errMessage(err),
	})
	return err
}

// ChannelExists reports whether a channel exists remotely.
func (s *Service) ChannelExists(ctx context.Context, channelID string) (bool, error) {
	_, err := s.client.GetChannel(ctx, channelID)
	if remote.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsChannelArchived reports whether a channel is archived remotely.
func (s *Service) IsChannelArchived(ctx context.Context, channelID string) (bool, error) {
	channel, err := s.client.GetChannel(ctx, channelID)
	if err != nil {
		return false, err
	}
	return channel.Archived, nil
}

// UpsertUser fetches the remote user by email, creating one if absent. The
// remote side is authoritative for whether a user already exists.
func (s *Service) UpsertUser(ctx context.Context, profile MemberProfile) (remote.User, error) {
	user, err := s.client.GetUserByEmail(ctx, profile.Email)
	if err == nil {
		return user, nil
	}
	if !remote.IsNotFound(err) {
		return remote.User{}, err
	}

	return s.client.CreateUser(ctx, remote.UserProfile{
		Email:       profile.Email,
		Username:    profile.Username,
		FirstName:   profile.FirstName,
		LastName:    profile.LastName,
		AuthService: profile.AuthService,
		AuthData:    profile.AuthData,
	})
}

// EnrollMember upserts the remote user, persists the identity mapping, and
// adds the user to the channel with the requested privilege.
func (s *Service) EnrollMember(ctx context.Context, channelID string, profile MemberProfile, asAdmin bool) (RemoteMember, error) {
	user, err := s.UpsertUser(ctx, profile)
	if err != nil {
		audit.Log(audit.EnrollEvent{ChannelID: channelID, Email: profile.Email, IsAdmin: asAdmin, ErrorMessage: err.Error()})
		return RemoteMember{}, err
	}

	if err := s.identities.SaveMapping(profile.LocalUserID, user.ID); err != nil {
		return RemoteMember{}, fmt.Errorf("failed to persist identity mapping for user %s: %w", profile.LocalUserID, err)
	}

	_, err = s.client.AddMember(ctx, channelID, user.ID, asAdmin)
	if err != nil {
		audit.Log(audit.EnrollEvent{ChannelID: channelID, Email: profile.Email, IsAdmin: asAdmin, ErrorMessage: err.Error()})
		return RemoteMember{}, err
	}

	audit.Log(audit.EnrollEvent{ChannelID: channelID, Email: profile.Email, IsAdmin: asAdmin, Success: true})
	return RemoteMember{
		Email:        strings.ToLower(profile.Email),
		RemoteUserID: user.ID,
		IsAdmin:      asAdmin,
	}, nil
}

// UpdateMemberRole flips a member between admin and plain member. Returns
// ErrUnmappedUser when the local user has no remote identity.
func (s *Service) UpdateMemberRole(ctx context.Context, channelID, localUserID string, asAdmin bool) error {
	mapping, err := s.identities.FetchMapping(localUserID)
	if err != nil {
		return err
	}
	if mapping == nil {
		return fmt.Errorf("user %s: %w", localUserID, ErrUnmappedUser)
	}

	err = s.client.UpdateMemberRole(ctx, channelID, mapping.RemoteUserID, asAdmin)
	audit.Log(audit.RoleChangeEvent{
		ChannelID:    channelID,
		LocalUserID:  localUserID,
		IsAdmin:      asAdmin,
		Success:      err == nil,
		ErrorMessage: errMessage(err),
	})
	return err
}

// RemoveMember removes a mapped local user from a channel. Returns
// ErrUnmappedUser when the local user has no remote identity.
func (s *Service) RemoveMember(ctx context.Context, channelID, localUserID string) error {
	mapping, err := s.identities.FetchMapping(localUserID)
	if err != nil {
		return err
	}
	if mapping == nil {
		return fmt.Errorf("user %s: %w", localUserID, ErrUnmappedUser)
	}

	err = s.client.RemoveMember(ctx, channelID, mapping.RemoteUserID)
	audit.Log(audit.RemoveEvent{
		ChannelID:    channelID,
		Email:        localUserID,
		Success:      err == nil,
		ErrorMessage: errMessage(err),
	})
	return err
}

// RemoveRemoteMember removes an already-fetched remote member. Used for
// orphan remote members that have no corresponding local identity.
func (s *Service) RemoveRemoteMember(ctx context.Context, channelID string, member RemoteMember) error {
	err := s.client.RemoveMember(ctx, channelID, member.RemoteUserID)
	audit.Log(audit.RemoveEvent{
		ChannelID:    channelID,
		Email:        member.Email,
		Orphan:       true,
		Success:      err == nil,
		ErrorMessage: errMessage(err),
	})
	return err
}

// ListEnrichedMembers snapshots a channel's full member list, paginating
// until a short page, keyed by lower-cased email.
func (s *Service) ListEnrichedMembers(ctx context.Context, channelID string) (map[string]RemoteMember, error) {
	members := make(map[string]RemoteMember)

	for page := 0; ; page++ {
		batch, err := s.client.ListMembers(ctx, channelID, page, s.pageSize)
		if err != nil {
			return nil, err
		}
		for _, m := range batch {
			email := strings.ToLower(m.Email)
			members[email] = RemoteMember{
				Email:        email,
				RemoteUserID: m.UserID,
				IsAdmin:      m.IsAdmin,
			}
		}
		if len(batch) < s.pageSize {
			break
		}
	}
	return members, nil
}

// DeleteMapping removes a local user's identity mapping after their remote
// account is permanently removed.
func (s *Service) DeleteMapping(localUserID string) error {
	return s.identities.DeleteMapping(localUserID)
}

// errMessage renders an error for audit fields, empty on success.
func errMessage(err error) string {
	if err != nil {
		return err.Error()
	}
	return ""
}
