// Package sync implements the membership reconciliation engine.
//
// Each pass takes a full snapshot of a channel's remote membership and diffs
// it against the desired membership derived from LMS role assignments. The
// full diff is deliberately chosen over incremental event deltas: remote
// membership can drift independently (manual removals, remote-side admin
// actions) and LMS events are neither exactly-once nor ordered. Running a
// pass twice with no intervening state change is a no-op.
package sync

import (
	"context"

	"github.com/edulinkhq/chansync/pkg/service"
)

// DesiredMember is a local user who should be present in a channel with a
// specific privilege level. Derived per pass, never stored.
type DesiredMember struct {
	Profile service.MemberProfile
	IsAdmin bool
}

// Scope is one unit of reconciliation work: one channel and the membership
// it should converge to.
type Scope struct {
	ChannelID string
	Desired   []DesiredMember
	CourseID  string
	GroupID   string
}

// ChannelService is the remote-service capability the synchronizer needs.
// *service.Service satisfies it; tests substitute a fake.
type ChannelService interface {
	CreateChannel(ctx context.Context, name string) (string, error)
	ArchiveChannel(ctx context.Context, channelID string) error
	EnrollMember(ctx context.Context, channelID string, profile service.MemberProfile, asAdmin bool) (service.RemoteMember, error)
	UpdateMemberRole(ctx context.Context, channelID, localUserID string, asAdmin bool) error
	RemoveMember(ctx context.Context, channelID, localUserID string) error
	RemoveRemoteMember(ctx context.Context, channelID string, member service.RemoteMember) error
	ListEnrichedMembers(ctx context.Context, channelID string) (map[string]service.RemoteMember, error)
	DeleteMapping(localUserID string) error
}
