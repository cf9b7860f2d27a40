package analytics

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypeStrings(t *testing.T) {
	assert.Equal(t, "identify", NewIdentifyEvent("u", nil).Type())
	assert.Equal(t, "track", NewTrackEvent("e", "u", nil).Type())
	assert.Equal(t, "page", NewPageEvent("p", "u", nil).Type())
	assert.Equal(t, "screen", NewScreenEvent("s", "u", nil).Type())
	assert.Equal(t, "group", NewGroupEvent("g", nil).Type())
	assert.Equal(t, "alias", NewAliasEvent("p", "u").Type())
}

func TestValidate(t *testing.T) {
	anon := NewTrackEvent("purchase", "", nil)
	anon.AnonymousID = "anon-1"

	cases := []struct {
		name  string
		event Event
		ok    bool
		field string
	}{
		{"track ok", NewTrackEvent("purchase", "u1", nil), true, ""},
		{"track no identity", NewTrackEvent("purchase", "", nil), false, "userId"},
		{"track anonymous only", anon, true, ""},
		{"track no name", NewTrackEvent("", "u1", nil), false, "event"},
		{"identify ok", NewIdentifyEvent("u1", nil), true, ""},
		{"identify no identity", NewIdentifyEvent("", nil), false, "userId"},
		{"page no name", NewPageEvent("", "u1", nil), false, "event"},
		{"screen no identity", NewScreenEvent("Home", "", nil), false, "userId"},
		{"group ok", NewGroupEvent("g1", nil), true, ""},
		{"group no id", NewGroupEvent("", nil), false, "groupId"},
		{"alias ok", NewAliasEvent("prev", "u1"), true, ""},
		{"alias no previous", NewAliasEvent("", "u1"), false, "previousId"},
		{"alias no user", NewAliasEvent("prev", ""), false, "userId"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.event.Validate()
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestSerializeOmitsEmptyFields(t *testing.T) {
	e := NewTrackEvent("purchase", "u1", map[string]string{"amount": "9.99"})

	payload, err := e.Serialize()
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(payload, &m))

	assert.Equal(t, "track", m["type"])
	assert.Equal(t, "u1", m["userId"])
	assert.Equal(t, "purchase", m["event"])
	assert.Equal(t, map[string]any{"amount": "9.99"}, m["properties"])
	assert.NotEmpty(t, m["messageId"])

	// 빈 optional 필드는 키 자체가 없어야 한다
	for _, k := range []string{"anonymousId", "groupId", "previousId", "traits"} {
		assert.NotContains(t, m, k)
	}
}

func TestSerializeTraitsForIdentifyAndGroup(t *testing.T) {
	for _, e := range []Event{
		NewIdentifyEvent("u1", map[string]string{"plan": "pro"}),
		NewGroupEvent("g1", map[string]string{"plan": "pro"}),
	} {
		payload, err := e.Serialize()
		require.NoError(t, err)

		var m map[string]any
		require.NoError(t, json.Unmarshal(payload, &m))
		assert.Contains(t, m, "traits")
		assert.NotContains(t, m, "properties")
	}
}

func TestSerializeIdempotent(t *testing.T) {
	e := NewTrackEvent("purchase", "u1", map[string]string{"a": "1", "b": "2", "c": "3"})

	first, err := e.Serialize()
	require.NoError(t, err)
	second, err := e.Serialize()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEventImmutableAfterConstruction(t *testing.T) {
	props := map[string]string{"amount": "9.99"}
	e := NewTrackEvent("purchase", "u1", props)

	// 생성 이후 호출자 map 변경은 이벤트에 반영되면 안 된다
	props["amount"] = "0.00"

	payload, err := e.Serialize()
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"9.99"`)
}
