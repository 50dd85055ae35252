package service

import (
	"github.com/stretchr/testify/mock"

	"github.com/edulinkhq/chansync/pkg/model"
	"github.com/edulinkhq/chansync/pkg/store"
)

// MockIdentityStore implements store.IdentityStore for testing using testify/mock
type MockIdentityStore struct {
	mock.Mock
}

var _ store.IdentityStore = (*MockIdentityStore)(nil)

func NewMockIdentityStore() *MockIdentityStore {
	return &MockIdentityStore{}
}

func (m *MockIdentityStore) FetchMapping(localUserID string) (*model.IdentityMapping, error) {
	args := m.Called(localUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.IdentityMapping), args.Error(1)
}

func (m *MockIdentityStore) FetchMappingByRemote(remoteUserID string) (*model.IdentityMapping, error) {
	args := m.Called(remoteUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.IdentityMapping), args.Error(1)
}

func (m *MockIdentityStore) SaveMapping(localUserID, remoteUserID string) error {
	args := m.Called(localUserID, remoteUserID)
	return args.Error(0)
}

func (m *MockIdentityStore) DeleteMapping(localUserID string) error {
	args := m.Called(localUserID)
	return args.Error(0)
}
