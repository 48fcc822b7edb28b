// Package mocks provides mock implementations for testing the portal session core.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the storage and
// diagnostics ports. The mocks provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	records := mocks.NewMockRecordStore(ctrl)
//	records.EXPECT().Get(gomock.Any(), "app.auth:p1").Return(nil, ports.ErrRecordNotFound)
package mocks

// Generate mock for RecordStore interface from internal/ports package.
// This creates MockRecordStore with methods for all RecordStore interface methods:
// Get, Put, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=record_store_mock.go github.com/target/portal-auth/internal/ports RecordStore

// Generate mock for Diagnostics interface from internal/ports package.
// This creates MockDiagnostics with methods for all Diagnostics interface methods:
// ReportSessionFailure
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=diagnostics_mock.go github.com/target/portal-auth/internal/ports Diagnostics
