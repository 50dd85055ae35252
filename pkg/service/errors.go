package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/edulinkhq/chansync/pkg/remote"
)

// ErrUnmappedUser is returned when a role update or removal is attempted for
// a local user with no known remote identity. Reconciliation callers log it
// and continue.
var ErrUnmappedUser = errors.New("no remote identity mapping for user")

// ChannelCreationError wraps any failure to create a remote channel.
type ChannelCreationError struct {
	Name    string
	Message string
}

func (e *ChannelCreationError) Error() string {
	return fmt.Sprintf("failed to create channel %q: %s", e.Name, e.Message)
}

// nameCollisionSubstring is what the remote server currently says when a
// channel name is taken. Matching on message text is fragile across remote
// server versions; the check is isolated here so it can be fixed in one
// place once the protocol grows a structured error code.
const nameCollisionSubstring = "already exists"

// IsNameCollision reports whether a remote error indicates a channel-name
// collision.
func IsNameCollision(err error) bool {
	var remoteErr *remote.Error
	if !errors.As(err, &remoteErr) {
		return false
	}
	return strings.Contains(strings.ToLower(remoteErr.Message), nameCollisionSubstring)
}
