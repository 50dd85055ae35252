// Package store defines the storage interfaces the synchronizer depends on.
// Implementations live in the gorm subpackage; tests substitute testify mocks.
package store

import "github.com/edulinkhq/chansync/pkg/model"

// IdentityStore abstracts the local-user to remote-user mapping table.
// Writes are single-row upserts; no transaction ever spans multiple members.
type IdentityStore interface {
	// FetchMapping returns the mapping for a local user, or nil if none exists
	FetchMapping(localUserID string) (*model.IdentityMapping, error)

	// FetchMappingByRemote returns the mapping for a remote user, or nil
	FetchMappingByRemote(remoteUserID string) (*model.IdentityMapping, error)

	// SaveMapping upserts the mapping for a local user
	SaveMapping(localUserID, remoteUserID string) error

	// DeleteMapping removes the mapping for a local user
	DeleteMapping(localUserID string) error
}
