package ingest

import (
	"context"
	"fmt"
	"math"

	"rfidtags/internal/domain"
)

// ValidationKind classifies a rejected draft or update.
type ValidationKind string

const (
	MissingKey      ValidationKind = "missing_key"
	InvalidStatus   ValidationKind = "invalid_status"
	UnknownParent   ValidationKind = "unknown_parent"
	UnknownLocation ValidationKind = "unknown_location"
	InvalidCount    ValidationKind = "invalid_count"
)

// ValidationError is a draft or update that breaks a data rule.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var errCountRange = &ValidationError{
	Kind:    InvalidCount,
	Message: fmt.Sprintf("count must be between 1 and %d", math.MaxInt32),
}

func invalidStatus(s domain.Status) *ValidationError {
	return &ValidationError{
		Kind:    InvalidStatus,
		Message: fmt.Sprintf("Invalid status %q. Must be one of: %s", string(s), domain.StatusList()),
	}
}

// CheckDraft applies the rules that need no store access.
func CheckDraft(d *domain.TagDraft) error {
	if d.EPC == "" {
		return &ValidationError{Kind: MissingKey, Message: "EPC is required"}
	}
	if !d.Status.Valid() {
		return invalidStatus(d.Status)
	}
	if d.Count > math.MaxInt32 {
		return errCountRange
	}
	return nil
}

// CheckReferences verifies that non-nil parent and location ids exist at the
// time of the call. Store errors are returned unwrapped.
func CheckReferences(ctx context.Context, repo domain.TagRepository, parentID, locationID *int64) error {
	if parentID != nil {
		ok, err := repo.ExistsByID(ctx, *parentID)
		if err != nil {
			return fmt.Errorf("check parent tag: %w", err)
		}
		if !ok {
			return &ValidationError{Kind: UnknownParent, Message: "Invalid parent_tag_id: parent tag does not exist"}
		}
	}
	if locationID != nil {
		ok, err := repo.LocationExists(ctx, *locationID)
		if err != nil {
			return fmt.Errorf("check location: %w", err)
		}
		if !ok {
			return &ValidationError{Kind: UnknownLocation, Message: "Invalid current_location_id: location does not exist"}
		}
	}
	return nil
}

// Validate runs every draft rule, including the reference checks against repo.
func Validate(ctx context.Context, repo domain.TagRepository, d *domain.TagDraft) error {
	if err := CheckDraft(d); err != nil {
		return err
	}
	return CheckReferences(ctx, repo, d.ParentTagID, d.CurrentLocationID)
}

// ValidateUpdate checks the set fields of u.
func ValidateUpdate(ctx context.Context, repo domain.TagRepository, u domain.TagUpdate) error {
	if u.Status.Set && !u.Status.Null && !u.Status.Value.Valid() {
		return invalidStatus(u.Status.Value)
	}
	var parentID, locationID *int64
	if u.ParentTagID.Set && !u.ParentTagID.Null {
		parentID = &u.ParentTagID.Value
	}
	if u.CurrentLocationID.Set && !u.CurrentLocationID.Null {
		locationID = &u.CurrentLocationID.Value
	}
	return CheckReferences(ctx, repo, parentID, locationID)
}
