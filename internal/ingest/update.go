package ingest

import (
	"math"
	"strings"

	"github.com/tidwall/gjson"

	"rfidtags/internal/domain"
)

// UpdatableFields lists the request fields ParseUpdate recognises.
const UpdatableFields = "status, location, reader_id, rssi, count, device_id, session_id, parent_tag_id, current_location_id"

// ParseUpdate reads a partial update from a JSON object body. Only fields
// present in the body are set; a JSON null clears a nullable field. Unknown
// fields, including the immutable epc, are ignored.
func ParseUpdate(body []byte) (domain.TagUpdate, error) {
	var u domain.TagUpdate
	if !gjson.ValidBytes(body) {
		return u, &ParseError{Kind: InvalidJSON, Message: "request body is not valid JSON", Raw: string(body)}
	}
	obj := gjson.ParseBytes(body)
	if !obj.IsObject() {
		return u, &ParseError{Kind: InvalidPayload, Message: "request body must be a JSON object", Raw: string(body)}
	}

	if s := strings.TrimSpace(obj.Get("status").String()); s != "" {
		u.Status = domain.Some(domain.CanonicalStatus(s))
	}
	u.Location = optionalString(obj, "location")
	u.ReaderID = optionalString(obj, "reader_id")
	u.RSSI = optionalString(obj, "rssi")
	u.DeviceID = optionalString(obj, "device_id", "deviceId")
	u.SessionID = optionalString(obj, "session_id", "sessionId")
	u.ParentTagID = optionalReference(obj.Get("parent_tag_id"))
	u.CurrentLocationID = optionalReference(obj.Get("current_location_id"))

	if c := obj.Get("count"); c.Exists() && c.Type != gjson.Null {
		n, ok := parseCount(c)
		if !ok {
			return u, &ParseError{Kind: InvalidPayload, Message: "count must be an integer", Raw: string(body)}
		}
		count := normalizeCount(n)
		if count > math.MaxInt32 {
			return u, errCountRange
		}
		u.Count = domain.Some(count)
	}
	return u, nil
}

func optionalString(obj gjson.Result, fields ...string) domain.Optional[string] {
	for _, f := range fields {
		v := obj.Get(gjson.Escape(f))
		if !v.Exists() {
			continue
		}
		if v.Type == gjson.Null {
			return domain.Null[string]()
		}
		return domain.Some(v.String())
	}
	return domain.Optional[string]{}
}

func optionalReference(v gjson.Result) domain.Optional[int64] {
	if !v.Exists() {
		return domain.Optional[int64]{}
	}
	id := parseReference(v)
	if id == nil {
		return domain.Null[int64]()
	}
	return domain.Some(*id)
}
