package domain

import (
	"context"
	"strings"
	"time"
)

// Status is the lifecycle state of a tag.
type Status string

// Allowed tag statuses. The capitalized spelling is the one persisted.
const (
	StatusAvailable Status = "Available"
	StatusReserved  Status = "Reserved"
	StatusAssigned  Status = "Assigned"
	StatusConsumed  Status = "Consumed"
	StatusLost      Status = "Lost"
	StatusDamaged   Status = "Damaged"
)

// Statuses lists every allowed status in display order.
var Statuses = []Status{
	StatusAvailable,
	StatusReserved,
	StatusAssigned,
	StatusConsumed,
	StatusLost,
	StatusDamaged,
}

// Valid reports whether s is one of the allowed statuses (exact spelling).
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// CanonicalStatus maps any casing of an allowed status ("lost", "LOST") to its
// persisted spelling. Unknown values are returned trimmed but otherwise untouched
// so that validation can report them.
func CanonicalStatus(s string) Status {
	s = strings.TrimSpace(s)
	for _, v := range Statuses {
		if strings.EqualFold(s, string(v)) {
			return v
		}
	}
	return Status(s)
}

// StatusList returns the allowed statuses joined with ", ".
func StatusList() string {
	names := make([]string, len(Statuses))
	for i, s := range Statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// Tag is a persisted RFID tag record keyed by its EPC.
// swagger:model Tag
type Tag struct {
	ID                int64     `json:"id"`
	EPC               string    `json:"epc"`
	Status            Status    `json:"status"`
	ParentTagID       *int64    `json:"parent_tag_id"`
	CurrentLocationID *int64    `json:"current_location_id"`
	RSSI              *string   `json:"rssi"`
	Count             int       `json:"count"`
	DeviceID          *string   `json:"device_id"`
	SessionID         *string   `json:"session_id"`
	Location          *string   `json:"location"`
	ReaderID          *string   `json:"reader_id"`
	Timestamp         time.Time `json:"timestamp"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TagDraft is an unvalidated candidate tag built from request data.
// An empty EPC means no key could be extracted.
type TagDraft struct {
	EPC               string
	Status            Status
	ParentTagID       *int64
	CurrentLocationID *int64
	RSSI              *string
	Count             int
	DeviceID          *string
	SessionID         *string
	Location          *string
	ReaderID          *string
	Timestamp         time.Time
}

// Optional is one field of a partial update. Set reports whether the field was
// present in the request; Null reports an explicit null, which clears the column.
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// Some returns a set, non-null Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Null returns a set Optional that clears the field.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// TagUpdate lists the mutable fields of a tag. Unset fields are left unchanged.
type TagUpdate struct {
	Status            Optional[Status]
	Location          Optional[string]
	ReaderID          Optional[string]
	RSSI              Optional[string]
	Count             Optional[int]
	DeviceID          Optional[string]
	SessionID         Optional[string]
	ParentTagID       Optional[int64]
	CurrentLocationID Optional[int64]
}

// Empty reports whether the update carries no field at all.
func (u TagUpdate) Empty() bool {
	return !u.Status.Set && !u.Location.Set && !u.ReaderID.Set && !u.RSSI.Set &&
		!u.Count.Set && !u.DeviceID.Set && !u.SessionID.Set &&
		!u.ParentTagID.Set && !u.CurrentLocationID.Set
}

// List defaults.
const (
	DefaultListLimit = 100
)

// TagFilter selects tags for listing. An empty Status matches every tag.
type TagFilter struct {
	Status Status
	Limit  int
	Offset int
}

// Normalized returns f with a default limit and non-negative offset.
func (f TagFilter) Normalized() TagFilter {
	if f.Limit < 0 {
		f.Limit = DefaultListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// TagRepository is the set of tag queries that can run either directly on the
// pool or inside an open transaction.
type TagRepository interface {
	// FindByKey returns the tag with the given EPC or ErrNotFound.
	FindByKey(ctx context.Context, epc string) (*Tag, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	// LocationExists reports whether a row with the given id exists in locations.
	LocationExists(ctx context.Context, id int64) (bool, error)
	// Insert creates a tag from d. A tag with the same EPC yields ErrDuplicateKey.
	Insert(ctx context.Context, d *TagDraft) (*Tag, error)
	// UpdateByKey applies the set fields of u and refreshes updated_at, or returns ErrNotFound.
	UpdateByKey(ctx context.Context, epc string, u TagUpdate) (*Tag, error)
	DeleteByKey(ctx context.Context, epc string) (*Tag, error)
	DeleteByID(ctx context.Context, id int64) (*Tag, error)
	// Count returns the number of tags with the given status, or all tags when status is empty.
	Count(ctx context.Context, status Status) (int, error)
	// List returns tags ordered by creation time, newest first.
	List(ctx context.Context, f TagFilter) ([]*Tag, error)
}

// TagTx is a TagRepository bound to an open transaction.
type TagTx interface {
	TagRepository
	// Savepoint runs fn inside a savepoint. When fn fails only the savepoint is
	// rolled back and fn's error is returned; the transaction stays usable.
	// Failures of the savepoint statements themselves wrap ErrStoreUnavailable.
	Savepoint(ctx context.Context, fn func() error) error
}

// TagStore owns the connection pool.
type TagStore interface {
	TagRepository
	// WithTx runs fn in a transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(tx TagTx) error) error
	Ping(ctx context.Context) error
}

// TagService is the application API used by the HTTP layer.
type TagService interface {
	List(ctx context.Context, f TagFilter) (tags []*Tag, total int, err error)
	Get(ctx context.Context, epc string) (*Tag, error)
	// CreateOne ingests a single draft inside its own transaction.
	CreateOne(ctx context.Context, d *TagDraft) (*Tag, error)
	// CreateMany ingests drafts in one transaction with per-item outcomes.
	CreateMany(ctx context.Context, drafts []*TagDraft) (*BatchResult, error)
	Update(ctx context.Context, epc string, u TagUpdate) (*Tag, error)
	DeleteByKey(ctx context.Context, epc string) (*Tag, error)
	// DeleteByID parses rawID and deletes the matching tag. A non-integer id is ErrInvalidArgument.
	DeleteByID(ctx context.Context, rawID string) (*Tag, error)
	Health(ctx context.Context) error
}
