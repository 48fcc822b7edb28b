package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// RecordErrorKind classifies why a persisted identity record was rejected.
type RecordErrorKind string

const (
	// RecordCorrupt means the bytes are not a well-formed identity record.
	RecordCorrupt RecordErrorKind = "corrupt"
	// RecordInconsistent means the stored admin flag disagrees with the role.
	RecordInconsistent RecordErrorKind = "inconsistent"
)

// RecordError is returned by DecodeIdentity for any rejected record.
type RecordError struct {
	Kind RecordErrorKind
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s identity record: %v", e.Kind, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// identityRecord is the persisted layout. IsAdmin is kept for compatibility
// with records written by older clients; it is optional on read.
type identityRecord struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role"`
	IsAdmin     *bool  `json:"isAdmin,omitempty"`
}

// EncodeIdentity serializes id into the persisted record layout.
// isAdmin is always written in its derived form.
func EncodeIdentity(id Identity) ([]byte, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	isAdmin := id.IsAdmin()
	data, err := json.Marshal(identityRecord{
		Username:    id.Username,
		DisplayName: id.DisplayName,
		Role:        id.Role,
		IsAdmin:     &isAdmin,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal identity record: %w", err)
	}
	return data, nil
}

// DecodeIdentity parses a persisted record. Every failure is a *RecordError.
func DecodeIdentity(data []byte) (Identity, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Identity{}, &RecordError{Kind: RecordCorrupt, Err: errors.New("record is not a JSON object")}
	}

	var rec identityRecord
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		return Identity{}, &RecordError{Kind: RecordCorrupt, Err: err}
	}

	id := Identity{Username: rec.Username, DisplayName: rec.DisplayName, Role: rec.Role}
	if err := id.Validate(); err != nil {
		return Identity{}, &RecordError{Kind: RecordCorrupt, Err: err}
	}
	if rec.IsAdmin != nil && *rec.IsAdmin != id.IsAdmin() {
		return Identity{}, &RecordError{
			Kind: RecordInconsistent,
			Err:  fmt.Errorf("isAdmin=%t does not match role %q", *rec.IsAdmin, rec.Role),
		}
	}
	return id, nil
}
