// Package gorm implements the store interfaces using GORM over PostgreSQL.
package gorm

import (
	"errors"

	"gorm.io/gorm"

	"github.com/edulinkhq/chansync/pkg/model"
	"github.com/edulinkhq/chansync/pkg/store"
)

// Ensure IdentityStore implements store.IdentityStore
var _ store.IdentityStore = (*IdentityStore)(nil)

// IdentityStore implements store.IdentityStore using GORM
type IdentityStore struct {
	db *gorm.DB
}

// NewIdentityStore creates a new IdentityStore
func NewIdentityStore(db *gorm.DB) *IdentityStore {
	return &IdentityStore{db: db}
}

// FetchMapping returns the mapping for a local user, or nil
func (s *IdentityStore) FetchMapping(localUserID string) (*model.IdentityMapping, error) {
	var mapping model.IdentityMapping
	err := s.db.Raw(`
		SELECT local_user_id, remote_user_id, created_at
		FROM identity_mappings
		WHERE local_user_id = ?
	`, localUserID).Scan(&mapping).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if mapping.LocalUserID == "" {
		return nil, nil
	}
	return &mapping, nil
}

// FetchMappingByRemote returns the mapping for a remote user, or nil
func (s *IdentityStore) FetchMappingByRemote(remoteUserID string) (*model.IdentityMapping, error) {
	var mapping model.IdentityMapping
	err := s.db.Raw(`
		SELECT local_user_id, remote_user_id, created_at
		FROM identity_mappings
		WHERE remote_user_id = ?
	`, remoteUserID).Scan(&mapping).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if mapping.LocalUserID == "" {
		return nil, nil
	}
	return &mapping, nil
}

// SaveMapping upserts the mapping for a local user
func (s *IdentityStore) SaveMapping(localUserID, remoteUserID string) error {
	return s.db.Exec(`
		INSERT INTO identity_mappings (local_user_id, remote_user_id, created_at)
		VALUES (?, ?, NOW())
		ON CONFLICT (local_user_id) DO UPDATE SET remote_user_id = EXCLUDED.remote_user_id
	`, localUserID, remoteUserID).Error
}

// DeleteMapping removes the mapping for a local user
func (s *IdentityStore) DeleteMapping(localUserID string) error {
	return s.db.Exec(`DELETE FROM identity_mappings WHERE local_user_id = ?`, localUserID).Error
}
