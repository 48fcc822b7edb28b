package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeIdentity_WritesDerivedAdminFlag(t *testing.T) {
	data, err := EncodeIdentity(Identity{Username: "admin_boss", DisplayName: "Boss", Role: RoleAdmin})
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"admin_boss","displayName":"Boss","role":"admin","isAdmin":true}`, string(data))

	data, err = EncodeIdentity(Identity{Username: "hr_user", DisplayName: "HR", Role: RoleHR})
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"hr_user","displayName":"HR","role":"hr","isAdmin":false}`, string(data))
}

func TestEncodeIdentity_RejectsInvalid(t *testing.T) {
	for _, id := range []Identity{
		{Username: "", Role: RoleHR},
		{Username: "hr\xffuser", Role: RoleHR},
		{Username: "hr_user", DisplayName: "Bad \xfe\xff", Role: RoleHR},
	} {
		_, err := EncodeIdentity(id)
		require.ErrorIs(t, err, ErrInvalidIdentity, "%q", id.Username)
	}
}

func TestDecodeIdentity(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		want     Identity
		wantKind RecordErrorKind
	}{
		{
			name: "admin record",
			data: `{"username":"admin_boss","displayName":"Boss","role":"admin","isAdmin":true}`,
			want: Identity{Username: "admin_boss", DisplayName: "Boss", Role: RoleAdmin},
		},
		{
			name: "hr record without admin flag",
			data: `{"username":"hr_user","displayName":"HR","role":"hr"}`,
			want: Identity{Username: "hr_user", DisplayName: "HR", Role: RoleHR},
		},
		{
			name: "unknown fields ignored",
			data: `{"username":"hr_user","role":"hr","isAdmin":false,"theme":"dark"}`,
			want: Identity{Username: "hr_user", Role: RoleHR},
		},
		{name: "empty", data: ``, wantKind: RecordCorrupt},
		{name: "not json", data: `not-json`, wantKind: RecordCorrupt},
		{name: "array", data: `[1,2]`, wantKind: RecordCorrupt},
		{name: "truncated", data: `{"username":"hr_user"`, wantKind: RecordCorrupt},
		{name: "unknown role", data: `{"username":"x","role":"guest"}`, wantKind: RecordCorrupt},
		{name: "missing username", data: `{"role":"admin","isAdmin":true}`, wantKind: RecordCorrupt},
		{name: "wrong field type", data: `{"username":1,"role":"hr"}`, wantKind: RecordCorrupt},
		{name: "hr claiming admin", data: `{"username":"x","role":"hr","isAdmin":true}`, wantKind: RecordInconsistent},
		{name: "admin flag cleared", data: `{"username":"x","role":"admin","isAdmin":false}`, wantKind: RecordInconsistent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeIdentity([]byte(tt.data))
			if tt.wantKind == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}
			var recErr *RecordError
			require.True(t, errors.As(err, &recErr), "expected *RecordError, got %v", err)
			assert.Equal(t, tt.wantKind, recErr.Kind)
			assert.Equal(t, Identity{}, got)
		})
	}
}

func TestIdentityRecord_RoundTrip(t *testing.T) {
	in := Identity{Username: "admin_boss", DisplayName: "ผู้ดูแลระบบ", Role: RoleAdmin}
	data, err := EncodeIdentity(in)
	require.NoError(t, err)
	out, err := DecodeIdentity(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

// FuzzDecodeIdentity checks that arbitrary bytes never panic and that any
// accepted record is valid and survives a re-encode.
func FuzzDecodeIdentity(f *testing.F) {
	f.Add([]byte(`{"username":"admin_boss","displayName":"Boss","role":"admin","isAdmin":true}`))
	f.Add([]byte(`{"username":"hr_user","role":"hr"}`))
	f.Add([]byte(`{}`))
	f.Add([]byte(`null`))
	f.Add([]byte{0xff, 0x00})

	f.Fuzz(func(t *testing.T, data []byte) {
		id, err := DecodeIdentity(data)
		if err != nil {
			var recErr *RecordError
			if !errors.As(err, &recErr) {
				t.Fatalf("untyped decode error: %v", err)
			}
			return
		}
		if vErr := id.Validate(); vErr != nil {
			t.Fatalf("decoded invalid identity: %v", vErr)
		}
		if _, encErr := EncodeIdentity(id); encErr != nil {
			t.Fatalf("re-encode failed: %v", encErr)
		}
	})
}
