// Package ingest turns loosely-shaped tag creation payloads into validated
// drafts and persists them with per-item outcomes.
package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"
)

// ParseErrorKind classifies a payload that could not be turned into items.
type ParseErrorKind string

const (
	InvalidJSON    ParseErrorKind = "invalid_json"
	InvalidPayload ParseErrorKind = "invalid_payload"
)

// ParseError reports a malformed request payload. Raw holds the offending
// payload for diagnostics.
type ParseError struct {
	Kind    ParseErrorKind
	Message string
	Raw     string
}

func (e *ParseError) Error() string {
	if e.Kind == InvalidJSON {
		return "invalid JSON payload: " + e.Message
	}
	return e.Message
}

// PayloadKind tags the shape of a request body.
type PayloadKind int

const (
	PayloadSingle PayloadKind = iota + 1
	PayloadMany
	PayloadRaw
)

// Payload is a request body resolved to one of three shapes: a single object,
// a list of items, or a raw string that still has to be decoded as JSON.
type Payload struct {
	Kind   PayloadKind
	Single gjson.Result
	Many   []gjson.Result
	Raw    string
}

// DecodePayload classifies body. A JSON string, or a body that is not JSON at
// all (text/plain clients), becomes a Raw payload. Raw keeps the body as sent.
func DecodePayload(body []byte) (Payload, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Payload{}, &ParseError{Kind: InvalidPayload, Message: "request body is empty"}
	}
	if !gjson.ValidBytes(trimmed) {
		return Payload{Kind: PayloadRaw, Raw: string(body)}, nil
	}
	r := gjson.ParseBytes(trimmed)
	switch {
	case r.IsObject():
		return Payload{Kind: PayloadSingle, Single: r}, nil
	case r.IsArray():
		return Payload{Kind: PayloadMany, Many: r.Array()}, nil
	case r.Type == gjson.String:
		return Payload{Kind: PayloadRaw, Raw: r.String()}, nil
	default:
		return Payload{}, &ParseError{
			Kind:    InvalidPayload,
			Message: "payload must be an object, an array or a JSON-encoded string",
			Raw:     string(body),
		}
	}
}

// PayloadFromForm builds a Single payload from urlencoded form values. Fields
// with one value become strings, repeated fields become string arrays.
func PayloadFromForm(values url.Values) (Payload, error) {
	obj := make(map[string]any, len(values))
	for k, vs := range values {
		if len(vs) == 1 {
			obj[k] = vs[0]
		} else {
			obj[k] = vs
		}
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return Payload{}, fmt.Errorf("encode form payload: %w", err)
	}
	return Payload{Kind: PayloadSingle, Single: gjson.ParseBytes(raw)}, nil
}

// Items returns the payload as a list of items. Raw payloads are decoded here,
// once; internal code never looks at the original shape again.
func (p Payload) Items() ([]gjson.Result, error) {
	switch p.Kind {
	case PayloadSingle:
		return []gjson.Result{p.Single}, nil
	case PayloadMany:
		return p.Many, nil
	case PayloadRaw:
		var probe json.RawMessage
		if err := json.Unmarshal([]byte(p.Raw), &probe); err != nil {
			return nil, &ParseError{Kind: InvalidJSON, Message: err.Error(), Raw: p.Raw}
		}
		r := gjson.ParseBytes(probe)
		switch {
		case r.IsObject():
			return []gjson.Result{r}, nil
		case r.IsArray():
			return r.Array(), nil
		}
		return nil, &ParseError{
			Kind:    InvalidPayload,
			Message: "decoded payload must be an object or an array",
			Raw:     p.Raw,
		}
	}
	return nil, &ParseError{Kind: InvalidPayload, Message: "empty payload"}
}

// IsSingular reports whether the payload denotes a single tag, either directly
// or as a JSON string that decodes to one object.
func (p Payload) IsSingular() bool {
	switch p.Kind {
	case PayloadSingle:
		return true
	case PayloadRaw:
		return gjson.Valid(p.Raw) && gjson.Parse(p.Raw).IsObject()
	}
	return false
}
