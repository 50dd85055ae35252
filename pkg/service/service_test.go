package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulinkhq/chansync/pkg/model"
	"github.com/edulinkhq/chansync/pkg/remote"
)

func newTestService(t *testing.T, identities *MockIdentityStore, handler http.HandlerFunc) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := remote.NewClient(remote.Config{
		BaseURL:   server.URL,
		APISecret: "s3cret",
		TeamSlug:  "campus",
	})
	require.NoError(t, err)

	svc, err := New(client, identities, 2)
	require.NoError(t, err)
	return svc
}

func TestNewValidation(t *testing.T) {
	client, err := remote.NewClient(remote.Config{BaseURL: "http://x", APISecret: "s", TeamSlug: "t"})
	require.NoError(t, err)

	_, err = New(nil, NewMockIdentityStore(), 10)
	assert.Error(t, err)

	_, err = New(client, nil, 10)
	assert.Error(t, err)

	_, err = New(client, NewMockIdentityStore(), 0)
	assert.Error(t, err)
}

func TestCreateChannelCollisionRetry(t *testing.T) {
	var names []string
	svc := newTestService(t, NewMockIdentityStore(), func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		names = append(names, body["name"])

		if len(names) == 1 {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"A channel with that name already exists on this server"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(remote.Channel{ID: "ch-2", Name: body["name"]})
	})

	channelID, err := svc.CreateChannel(context.Background(), "cs101")
	require.NoError(t, err)
	assert.Equal(t, "ch-2", channelID)

	require.Len(t, names, 2)
	assert.Equal(t, "cs101", names[0])
	assert.True(t, strings.HasPrefix(names[1], "cs101_"), "retry name should be timestamp-suffixed: %s", names[1])
}

func TestCreateChannelFatalError(t *testing.T) {
	svc := newTestService(t, NewMockIdentityStore(), func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"database unavailable"}`))
	})

	_, err := svc.CreateChannel(context.Background(), "cs101")
	require.Error(t, err)

	var creationErr *ChannelCreationError
	require.True(t, errors.As(err, &creationErr))
	assert.Contains(t, creationErr.Message, "database unavailable")
}

func TestIsNameCollision(t *testing.T) {
	assert.True(t, IsNameCollision(&remote.Error{Status: 409, Message: "Channel already exists"}))
	assert.True(t, IsNameCollision(&remote.Error{Status: 400, Message: "A channel with that name ALREADY EXISTS"}))
	assert.False(t, IsNameCollision(&remote.Error{Status: 409, Message: "conflict"}))
	assert.False(t, IsNameCollision(errors.New("already exists")))
	assert.False(t, IsNameCollision(nil))
}

func TestUpsertUser(t *testing.T) {
	t.Run("existing user is returned", func(t *testing.T) {
		svc := newTestService(t, NewMockIdentityStore(), func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			_ = json.NewEncoder(w).Encode(remote.User{ID: "u-1", Email: "alice@example.edu"})
		})

		user, err := svc.UpsertUser(context.Background(), MemberProfile{Email: "alice@example.edu"})
		require.NoError(t, err)
		assert.Equal(t, "u-1", user.ID)
	})

	t.Run("missing user is created", func(t *testing.T) {
		svc := newTestService(t, NewMockIdentityStore(), func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"error":"not found"}`))
				return
			}
			assert.Equal(t, http.MethodPost, r.Method)
			_ = json.NewEncoder(w).Encode(remote.User{ID: "u-new", Email: "bob@example.edu"})
		})

		user, err := svc.UpsertUser(context.Background(), MemberProfile{Email: "bob@example.edu", Username: "bob"})
		require.NoError(t, err)
		assert.Equal(t, "u-new", user.ID)
	})

	t.Run("other errors propagate", func(t *testing.T) {
		svc := newTestService(t, NewMockIdentityStore(), func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := svc.UpsertUser(context.Background(), MemberProfile{Email: "x@example.edu"})
		assert.Error(t, err)
	})
}

func TestEnrollMember(t *testing.T) {
	identities := NewMockIdentityStore()
	identities.On("SaveMapping", "local-1", "u-1").Return(nil)

	svc := newTestService(t, identities, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(remote.User{ID: "u-1", Email: "Alice@Example.edu"})
		case strings.HasSuffix(r.URL.Path, "/members"):
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "u-1", body["user_id"])
			assert.Equal(t, true, body["is_admin"])
			_ = json.NewEncoder(w).Encode(remote.Member{UserID: "u-1", Email: "Alice@Example.edu", IsAdmin: true})
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	member, err := svc.EnrollMember(context.Background(), "ch-1", MemberProfile{
		LocalUserID: "local-1",
		Email:       "Alice@Example.edu",
	}, true)
	require.NoError(t, err)

	assert.Equal(t, "alice@example.edu", member.Email)
	assert.Equal(t, "u-1", member.RemoteUserID)
	assert.True(t, member.IsAdmin)
	identities.AssertCalled(t, "SaveMapping", "local-1", "u-1")
}

func TestUpdateMemberRoleUnmapped(t *testing.T) {
	identities := NewMockIdentityStore()
	identities.On("FetchMapping", "ghost").Return(nil, nil)

	svc := newTestService(t, identities, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no remote call expected for unmapped user")
	})

	err := svc.UpdateMemberRole(context.Background(), "ch-1", "ghost", true)
	assert.ErrorIs(t, err, ErrUnmappedUser)
}

func TestRemoveMemberResolvedThroughMapping(t *testing.T) {
	identities := NewMockIdentityStore()
	identities.On("FetchMapping", "local-1").Return(&model.IdentityMapping{
		LocalUserID:  "local-1",
		RemoteUserID: "u-1",
	}, nil)

	var removedPath string
	svc := newTestService(t, identities, func(w http.ResponseWriter, r *http.Request) {
		removedPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, svc.RemoveMember(context.Background(), "ch-1", "local-1"))
	assert.Equal(t, "/channels/ch-1/members/u-1", removedPath)
}

func TestRemoveRemoteMemberOrphanPath(t *testing.T) {
	// Orphans have no local identity; removal must not consult the mapping.
	identities := NewMockIdentityStore()

	var removedPath string
	svc := newTestService(t, identities, func(w http.ResponseWriter, r *http.Request) {
		removedPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	err := svc.RemoveRemoteMember(context.Background(), "ch-1", RemoteMember{
		Email:        "stale@example.edu",
		RemoteUserID: "u-stale",
	})
	require.NoError(t, err)
	assert.Equal(t, "/channels/ch-1/members/u-stale", removedPath)
	identities.AssertNotCalled(t, "FetchMapping")
}

func TestListEnrichedMembers(t *testing.T) {
	pages := [][]remote.Member{
		{
			{UserID: "u-1", Email: "Alice@Example.edu", IsAdmin: true},
			{UserID: "u-2", Email: "bob@example.edu"},
		},
		{
			{UserID: "u-3", Email: "carol@example.edu"},
		},
	}

	svc := newTestService(t, NewMockIdentityStore(), func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		switch page {
		case "0":
			_ = json.NewEncoder(w).Encode(pages[0])
		case "1":
			_ = json.NewEncoder(w).Encode(pages[1])
		default:
			t.Fatalf("unexpected page %s", page)
		}
	})

	members, err := svc.ListEnrichedMembers(context.Background(), "ch-1")
	require.NoError(t, err)

	require.Len(t, members, 3)
	assert.True(t, members["alice@example.edu"].IsAdmin)
	assert.Equal(t, "u-2", members["bob@example.edu"].RemoteUserID)
	assert.Equal(t, "u-3", members["carol@example.edu"].RemoteUserID)
}

func TestChannelExists(t *testing.T) {
	t.Run("missing channel", func(t *testing.T) {
		svc := newTestService(t, NewMockIdentityStore(), func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not found"}`))
		})
		exists, err := svc.ChannelExists(context.Background(), "ch-gone")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("archived channel", func(t *testing.T) {
		svc := newTestService(t, NewMockIdentityStore(), func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(remote.Channel{ID: "ch-1", Archived: true})
		})
		archived, err := svc.IsChannelArchived(context.Background(), "ch-1")
		require.NoError(t, err)
		assert.True(t, archived)
	})
}
