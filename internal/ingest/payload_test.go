package ingest

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayload(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantKind PayloadKind
		wantErr  ParseErrorKind
		items    int
		singular bool
	}{
		{name: "object", body: `{"epc":"E1"}`, wantKind: PayloadSingle, items: 1, singular: true},
		{name: "array", body: `[{"epc":"E1"},{"epc":"E2"}]`, wantKind: PayloadMany, items: 2},
		{name: "empty array", body: `[]`, wantKind: PayloadMany, items: 0},
		{name: "json string holding object", body: `"{\"epc\":\"E1\"}"`, wantKind: PayloadRaw, items: 1, singular: true},
		{name: "json string holding array", body: `"[{\"epc\":\"E1\"},\"E2\"]"`, wantKind: PayloadRaw, items: 2},
		{name: "text body holding object", body: ` {"epc":"E1"} `, wantKind: PayloadSingle, items: 1, singular: true},
		{name: "number", body: `42`, wantErr: InvalidPayload},
		{name: "empty", body: "  ", wantErr: InvalidPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := DecodePayload([]byte(tt.body))
			if tt.wantErr != "" {
				var pe *ParseError
				require.ErrorAs(t, err, &pe)
				assert.Equal(t, tt.wantErr, pe.Kind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, p.Kind)
			assert.Equal(t, tt.singular, p.IsSingular())
			items, err := p.Items()
			require.NoError(t, err)
			assert.Len(t, items, tt.items)
		})
	}
}

func TestPayloadItems_MalformedRaw(t *testing.T) {
	p, err := DecodePayload([]byte(`{"epc": `))
	require.NoError(t, err)
	assert.Equal(t, PayloadRaw, p.Kind)
	assert.False(t, p.IsSingular())

	_, err = p.Items()
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, InvalidJSON, pe.Kind)
	assert.Equal(t, `{"epc": `, pe.Raw)
	assert.Contains(t, pe.Error(), "invalid JSON payload")
}

func TestPayload_RawKeepsBodyAsSent(t *testing.T) {
	body := "\n  {\"epc\": \"E1\",\n"
	p, err := DecodePayload([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, PayloadRaw, p.Kind)
	assert.Equal(t, body, p.Raw)

	_, err = p.Items()
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, body, pe.Raw)

	_, err = DecodePayload([]byte(" 42 "))
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, InvalidPayload, pe.Kind)
	assert.Equal(t, " 42 ", pe.Raw)
}

func TestPayloadItems_RawScalar(t *testing.T) {
	p, err := DecodePayload([]byte(`"true"`))
	require.NoError(t, err)

	_, err = p.Items()
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, InvalidPayload, pe.Kind)
}

func TestPayloadFromForm(t *testing.T) {
	values := url.Values{
		"epc":       {"E-FORM"},
		"form_data": {"x", "E-SECOND"},
	}
	p, err := PayloadFromForm(values)
	require.NoError(t, err)
	assert.True(t, p.IsSingular())

	items, err := p.Items()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "E-FORM", items[0].Get("epc").String())
	assert.True(t, items[0].Get("form_data").IsArray())
}
