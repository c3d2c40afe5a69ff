package ingest

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"rfidtags/internal/domain"
)

// timestampLayouts are the date string formats accepted for timestamp/ts.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// Normalizer builds drafts from payload items.
type Normalizer struct {
	Strategies []KeyStrategy
	Now        func() time.Time
}

// NewNormalizer returns a Normalizer using DefaultKeyStrategies and the wall clock.
func NewNormalizer() *Normalizer {
	return &Normalizer{Strategies: DefaultKeyStrategies, Now: time.Now}
}

// Normalize resolves p into one draft per item. Items without a usable key
// still produce a draft (with an empty EPC) so validation can report them by index.
func (n *Normalizer) Normalize(p Payload) ([]*domain.TagDraft, error) {
	items, err := p.Items()
	if err != nil {
		return nil, err
	}
	drafts := make([]*domain.TagDraft, len(items))
	for i, item := range items {
		drafts[i] = n.Draft(item)
	}
	return drafts, nil
}

// Draft normalizes a single item.
func (n *Normalizer) Draft(item gjson.Result) *domain.TagDraft {
	d := &domain.TagDraft{
		EPC:       ExtractKey(item, n.Strategies),
		Status:    domain.StatusAvailable,
		Count:     1,
		Timestamp: n.Now(),
	}
	if !item.IsObject() {
		return d
	}
	d.RSSI = firstString(item, "rssi", "signal", "rssi_dbm")
	d.DeviceID = firstString(item, "deviceId", "device_id", "reader", "reader_id")
	d.Location = firstString(item, "location")
	d.ReaderID = firstString(item, "reader_id")
	d.SessionID = firstString(item, "session_id", "sessionId")
	if s := strings.TrimSpace(item.Get("status").String()); s != "" {
		d.Status = domain.CanonicalStatus(s)
	}
	if c := item.Get("count"); c.Exists() && c.Type != gjson.Null {
		if v, ok := parseCount(c); ok {
			d.Count = normalizeCount(v)
		}
	}
	d.ParentTagID = parseReference(item.Get("parent_tag_id"))
	d.CurrentLocationID = parseReference(item.Get("current_location_id"))
	for _, field := range []string{"timestamp", "ts"} {
		if v := item.Get(field); v.Exists() && v.Type != gjson.Null {
			if ts, ok := parseTimestamp(v); ok {
				d.Timestamp = ts
			}
			break
		}
	}
	return d
}

// parseCount accepts integers, floats (truncated) and strings with a leading
// integer such as "12" or "12 reads". Values beyond the int32 range are
// reported as just past it so validation can reject them.
func parseCount(v gjson.Result) (int64, bool) {
	switch v.Type {
	case gjson.Number:
		switch {
		case v.Num > math.MaxInt32:
			return math.MaxInt32 + 1, true
		case v.Num < 1:
			return 0, true
		}
		return int64(v.Num), true
	case gjson.String:
		s := strings.TrimSpace(v.String())
		end := 0
		for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && (s[end] == '-' || s[end] == '+')) {
			end++
		}
		n, err := strconv.ParseInt(s[:end], 10, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// normalizeCount maps non-positive counts to the default of 1 and caps the
// rest just past the int32 range.
func normalizeCount(n int64) int {
	if n <= 0 {
		return 1
	}
	return int(min(n, math.MaxInt32+1))
}

// parseReference reads an optional row id. Absent or null yields nil. A value
// that is not an integer yields 0, an id that never exists, so the reference
// check rejects it.
func parseReference(v gjson.Result) *int64 {
	if !v.Exists() || v.Type == gjson.Null {
		return nil
	}
	var id int64
	switch v.Type {
	case gjson.Number:
		id = v.Int()
	case gjson.String:
		s := strings.TrimSpace(v.String())
		if s == "" {
			return nil
		}
		id, _ = strconv.ParseInt(s, 10, 64)
	}
	return &id
}

// parseTimestamp accepts epoch milliseconds (number or numeric string) or a
// date string in one of timestampLayouts.
func parseTimestamp(v gjson.Result) (time.Time, bool) {
	switch v.Type {
	case gjson.Number:
		return time.UnixMilli(v.Int()), true
	case gjson.String:
		s := strings.TrimSpace(v.String())
		if ms, err := strconv.ParseFloat(s, 64); err == nil {
			return time.UnixMilli(int64(ms)), true
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
