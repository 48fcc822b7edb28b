package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/portal-auth/internal/adapters/memstore"
	domainauth "github.com/target/portal-auth/internal/domain/auth"
	"github.com/target/portal-auth/internal/mocks"
	"github.com/target/portal-auth/internal/ports"
	"github.com/target/portal-auth/internal/testutil"
	"go.uber.org/mock/gomock"
)

const testKey = "app.auth:test-profile"

func TestSessionStore_Load(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		status LoadStatus
		want   *domainauth.Identity
	}{
		{
			name:   "admin record",
			stored: `{"username":"admin_boss","displayName":"Boss","role":"admin","isAdmin":true}`,
			status: LoadFound,
			want:   &domainauth.Identity{Username: "admin_boss", DisplayName: "Boss", Role: domainauth.RoleAdmin},
		},
		{
			name:   "record without flag",
			stored: `{"username":"hr_user","displayName":"HR","role":"hr"}`,
			status: LoadFound,
			want:   &domainauth.Identity{Username: "hr_user", DisplayName: "HR", Role: domainauth.RoleHR},
		},
		{name: "empty value", stored: "", status: LoadMissing},
		{name: "syntax error", stored: `{"username":`, status: LoadCorrupt},
		{name: "not an object", stored: `"admin_boss"`, status: LoadCorrupt},
		{name: "unknown role", stored: `{"username":"x","role":"manager"}`, status: LoadCorrupt},
		{name: "flag disagrees with role", stored: `{"username":"x","role":"hr","isAdmin":true}`, status: LoadInconsistent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := memstore.New()
			require.NoError(t, records.Put(context.Background(), testKey, []byte(tt.stored)))

			res := NewSessionStore(records, testKey).Load(context.Background())
			assert.Equal(t, tt.status, res.Status)
			assert.Equal(t, tt.want, res.Identity)
			if tt.status == LoadFound || tt.status == LoadMissing {
				assert.NoError(t, res.Err)
			} else {
				assert.Error(t, res.Err)
			}
		})
	}
}

func TestSessionStore_LoadMissing(t *testing.T) {
	res := NewSessionStore(memstore.New(), testKey).Load(context.Background())
	assert.Equal(t, LoadMissing, res.Status)
	assert.Nil(t, res.Identity)
	assert.NoError(t, res.Err)
}

func TestSessionStore_LoadUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	records := mocks.NewMockRecordStore(ctrl)
	records.EXPECT().Get(gomock.Any(), testKey).Return(nil, errors.New("connection refused"))

	res := NewSessionStore(records, testKey).Load(context.Background())
	assert.Equal(t, LoadUnavailable, res.Status)
	assert.Nil(t, res.Identity)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "connection refused")
}

func TestSessionStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	records := memstore.New()
	store := NewSessionStore(records, testKey)

	require.NoError(t, store.Save(ctx, testutil.HRUser()))
	require.NoError(t, store.Save(ctx, testutil.AdminBoss()))

	raw, err := records.Get(ctx, testKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"admin_boss","displayName":"Admin Boss","role":"admin","isAdmin":true}`, string(raw))

	res := store.Load(ctx)
	require.Equal(t, LoadFound, res.Status)
	assert.Equal(t, testutil.AdminBoss(), *res.Identity)
}

func TestSessionStore_SaveRejectsInvalidIdentity(t *testing.T) {
	ctrl := gomock.NewController(t)
	records := mocks.NewMockRecordStore(ctrl) // no calls expected

	err := NewSessionStore(records, testKey).Save(context.Background(), domainauth.Identity{Username: "x", Role: "manager"})
	require.ErrorIs(t, err, domainauth.ErrInvalidIdentity)
}

func TestSessionStore_SaveWriteError(t *testing.T) {
	ctrl := gomock.NewController(t)
	records := mocks.NewMockRecordStore(ctrl)
	records.EXPECT().Put(gomock.Any(), testKey, gomock.Any()).Return(errors.New("quota exceeded"))

	err := NewSessionStore(records, testKey).Save(context.Background(), testutil.HRUser())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write session record")
}

func TestSessionStore_ClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	records := memstore.New()
	store := NewSessionStore(records, testKey)

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Save(ctx, testutil.HRUser()))
	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))
	assert.Equal(t, LoadMissing, store.Load(ctx).Status)
}

func TestSessionStore_ClearTreatsNotFoundAsSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	records := mocks.NewMockRecordStore(ctrl)
	records.EXPECT().Delete(gomock.Any(), testKey).Return(ports.ErrRecordNotFound)

	require.NoError(t, NewSessionStore(records, testKey).Clear(context.Background()))
}

func TestSessionStore_ClearError(t *testing.T) {
	ctrl := gomock.NewController(t)
	records := mocks.NewMockRecordStore(ctrl)
	records.EXPECT().Delete(gomock.Any(), testKey).Return(errors.New("read-only"))

	err := NewSessionStore(records, testKey).Clear(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete session record")
}
