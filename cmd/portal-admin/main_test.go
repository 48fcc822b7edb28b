package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/portal-auth/config"
	"github.com/target/portal-auth/internal/adapters/memstore"
	"github.com/target/portal-auth/internal/bootstrap"
	"github.com/target/portal-auth/internal/mocks"
	"github.com/target/portal-auth/internal/ports"
)

const testProfile = "3f8e2c1a-9b4d-4e6f-8a2b-1c3d5e7f9a0b"

func newTestContext(t *testing.T, records ports.RecordStore, stdin string) (*commandContext, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	cfg := config.AppConfig{
		Auth: config.AuthConfig{
			DevAuth: config.DevAuthConfig{Users: "hr_user:HR User:hr;admin_boss:Admin Boss:admin"},
		},
		Session: config.SessionConfig{Backend: config.SessionBackendMemory},
	}
	cfg.Sanitize()
	return &commandContext{
		Ctx:    context.Background(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config: cfg,
		Out:    &out,
		In:     strings.NewReader(stdin),
		openRecords: func(context.Context, bootstrap.RecordStoreConfig) (*bootstrap.Records, error) {
			return &bootstrap.Records{Store: records, Backend: config.SessionBackendMemory}, nil
		},
	}, &out
}

func TestSeedThenShowSession(t *testing.T) {
	records := memstore.New()
	cmdCtx, out := newTestContext(t, records, "")

	require.NoError(t, runSeedSession(cmdCtx, []string{"-profile", testProfile, "-username", "admin_boss"}))
	assert.Contains(t, out.String(), "Profile: "+testProfile)
	assert.Equal(t, 1, records.Len())

	out.Reset()
	require.NoError(t, runShowSession(cmdCtx, []string{"-profile", testProfile}))
	got := out.String()
	assert.Contains(t, got, "Key:    app.auth:"+testProfile)
	assert.Contains(t, got, "Status: found")
	assert.Contains(t, got, "User:   admin_boss (Admin Boss)")
	assert.Contains(t, got, "Admin:  true")
}

func TestSeedSession_MintsProfile(t *testing.T) {
	records := memstore.New()
	cmdCtx, out := newTestContext(t, records, "")

	require.NoError(t, runSeedSession(cmdCtx, []string{"-username", "someone", "-display-name", "Some One", "-role", "HR"}))

	line := strings.SplitN(out.String(), "\n", 2)[0]
	minted := strings.TrimPrefix(line, "Profile: ")
	_, err := uuid.Parse(minted)
	require.NoError(t, err)

	data, err := records.Get(context.Background(), "app.auth:"+minted)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"role":"hr"`)
}

func TestSeedSession_Rejects(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing user", args: []string{"-profile", testProfile}},
		{name: "unknown user without role", args: []string{"-profile", testProfile, "-username", "nobody"}},
		{name: "bad role", args: []string{"-profile", testProfile, "-username", "hr_user", "-role", "root"}},
		{name: "non canonical profile", args: []string{"-profile", strings.ToUpper(testProfile), "-username", "hr_user"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := memstore.New()
			cmdCtx, _ := newTestContext(t, records, "")
			assert.Error(t, runSeedSession(cmdCtx, tt.args))
			assert.Equal(t, 0, records.Len())
		})
	}
}

func TestShowSession_Missing(t *testing.T) {
	cmdCtx, out := newTestContext(t, memstore.New(), "")

	require.NoError(t, runShowSession(cmdCtx, []string{"-profile", testProfile}))
	assert.Contains(t, out.String(), "Status: missing")
	assert.NotContains(t, out.String(), "User:")
}

func TestShowSession_Corrupt(t *testing.T) {
	records := memstore.New()
	require.NoError(t, records.Put(context.Background(), "app.auth:"+testProfile, []byte("{not json")))
	cmdCtx, out := newTestContext(t, records, "")

	require.NoError(t, runShowSession(cmdCtx, []string{"-profile", testProfile}))
	assert.Contains(t, out.String(), "Status: corrupt")
	assert.Contains(t, out.String(), "Error:")
}

func TestShowSession_RequiresProfile(t *testing.T) {
	cmdCtx, _ := newTestContext(t, memstore.New(), "")
	assert.Error(t, runShowSession(cmdCtx, nil))
	assert.Error(t, runShowSession(cmdCtx, []string{"-profile", "not-a-uuid"}))
}

func TestClearSession(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		stdin     string
		wantErr   error
		wantCount int
	}{
		{name: "yes flag", args: []string{"-profile", testProfile, "-yes"}, wantCount: 0},
		{name: "confirmed", args: []string{"-profile", testProfile}, stdin: "y\n", wantCount: 0},
		{name: "declined", args: []string{"-profile", testProfile}, stdin: "n\n", wantErr: errAborted, wantCount: 1},
		{name: "no input", args: []string{"-profile", testProfile}, wantErr: errAborted, wantCount: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := memstore.New()
			require.NoError(t, records.Put(context.Background(), "app.auth:"+testProfile, []byte(`{}`)))
			cmdCtx, _ := newTestContext(t, records, tt.stdin)

			err := runClearSession(cmdCtx, tt.args)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCount, records.Len())
		})
	}
}

func TestSeedSession_ReportsNothingOnSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	cmdCtx, _ := newTestContext(t, memstore.New(), "")
	cmdCtx.Diagnostics = mocks.NewMockDiagnostics(ctrl) // no calls expected

	require.NoError(t, runSeedSession(cmdCtx, []string{"-profile", testProfile, "-username", "hr_user"}))
	require.NoError(t, runClearSession(cmdCtx, []string{"-profile", testProfile, "-yes"}))
}

func TestSeedSession_WriteFailureIsReported(t *testing.T) {
	ctrl := gomock.NewController(t)
	records := mocks.NewMockRecordStore(ctrl)
	writeErr := errors.New("disk full")
	records.EXPECT().Get(gomock.Any(), "app.auth:"+testProfile).Return(nil, ports.ErrRecordNotFound)
	records.EXPECT().Put(gomock.Any(), "app.auth:"+testProfile, gomock.Any()).Return(writeErr)

	diag := mocks.NewMockDiagnostics(ctrl)
	diag.EXPECT().ReportSessionFailure(gomock.Any(), gomock.Any()).Do(func(_ context.Context, f ports.SessionFailure) {
		assert.Equal(t, ports.SessionOpSave, f.Op)
		assert.Equal(t, "error", f.Status)
		assert.Equal(t, "app.auth:"+testProfile, f.Key)
		assert.ErrorIs(t, f.Err, writeErr)
	})

	cmdCtx, out := newTestContext(t, records, "")
	cmdCtx.Diagnostics = diag

	err := runSeedSession(cmdCtx, []string{"-profile", testProfile, "-username", "hr_user"})
	require.ErrorIs(t, err, writeErr)
	assert.NotContains(t, out.String(), "Profile:")
}

func TestClearSession_DeleteFailureIsReported(t *testing.T) {
	ctrl := gomock.NewController(t)
	records := mocks.NewMockRecordStore(ctrl)
	deleteErr := errors.New("connection reset")
	records.EXPECT().Get(gomock.Any(), "app.auth:"+testProfile).Return(nil, ports.ErrRecordNotFound)
	records.EXPECT().Delete(gomock.Any(), "app.auth:"+testProfile).Return(deleteErr)

	diag := mocks.NewMockDiagnostics(ctrl)
	diag.EXPECT().ReportSessionFailure(gomock.Any(), gomock.Any()).Do(func(_ context.Context, f ports.SessionFailure) {
		assert.Equal(t, ports.SessionOpClear, f.Op)
		assert.ErrorIs(t, f.Err, deleteErr)
	})

	cmdCtx, _ := newTestContext(t, records, "")
	cmdCtx.Diagnostics = diag

	require.ErrorIs(t, runClearSession(cmdCtx, []string{"-profile", testProfile, "-yes"}), deleteErr)
}

func TestNewProfile(t *testing.T) {
	cmdCtx, out := newTestContext(t, memstore.New(), "")

	require.NoError(t, runNewProfile(cmdCtx, nil))
	id, err := uuid.Parse(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(out.String()), id.String())
}

func TestPrintUsage_ListsCommands(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printUsage(&out))
	for name := range commands() {
		assert.Contains(t, out.String(), name)
	}
}
