package extract

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decode parses s the way the processor does: numbers as json.Number.
func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&v))
	return v
}

func encode(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestFields(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		selectors []string
		want      string
	}{
		{
			name:      "bare keys",
			in:        `{"id":1,"name":"test","description":"A test item","extra":"not needed"}`,
			selectors: []string{"id", "name"},
			want:      `{"id":1,"name":"test"}`,
		},
		{
			name:      "nested flattening",
			in:        `{"user":{"name":"John","profile":{"age":30}}}`,
			selectors: []string{"user.name", "user.profile.age"},
			want:      `{"user_name":"John","user_profile_age":30}`,
		},
		{
			name:      "missing path is absent not null",
			in:        `{"user":{"profile":{}}}`,
			selectors: []string{"user.profile.age", "id"},
			want:      `{}`,
		},
		{
			name:      "array index segment",
			in:        `{"tags":[{"k":"a"},{"k":"b"}]}`,
			selectors: []string{"tags.1.k", "tags.2.k", "tags.x.k"},
			want:      `{"tags_1_k":"b"}`,
		},
		{
			name:      "scalar mid-path",
			in:        `{"a":5}`,
			selectors: []string{"a.b"},
			want:      `{}`,
		},
		{
			name:      "selected subtree kept whole",
			in:        `{"a":{"b":{"c":"value"}}}`,
			selectors: []string{"a.b"},
			want:      `{"a_b":{"c":"value"}}`,
		},
		{
			name:      "array broadcast",
			in:        `[{"id":1,"name":"a","extra":"x"},{"id":2,"name":"b"}]`,
			selectors: []string{"id", "name"},
			want:      `[{"id":1,"name":"a"},{"id":2,"name":"b"}]`,
		},
		{
			name:      "array of mixed values",
			in:        `[{"id":1},7,"s",null]`,
			selectors: []string{"id"},
			want:      `[{"id":1},7,"s",null]`,
		},
		{
			name:      "scalar unchanged",
			in:        `"just a string"`,
			selectors: []string{"id"},
			want:      `"just a string"`,
		},
		{
			name:      "null field value kept",
			in:        `{"id":null}`,
			selectors: []string{"id"},
			want:      `{"id":null}`,
		},
		{
			name:      "large number preserved",
			in:        `{"id":12345678901234567890}`,
			selectors: []string{"id"},
			want:      `{"id":12345678901234567890}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fields(decode(t, tt.in), tt.selectors)
			assert.JSONEq(t, tt.want, encode(t, got))
		})
	}
}

func TestFields_Deterministic(t *testing.T) {
	in := decode(t, `{"b":{"c":[1,2,{"d":true}]},"a":"x","z":0}`)
	sel := []string{"z", "b.c.2.d", "a", "b.c.0"}

	first := encode(t, Fields(in, sel))
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, encode(t, Fields(in, sel)))
	}
}

func TestFields_DoesNotMutateInput(t *testing.T) {
	in := decode(t, `{"id":1,"nested":{"x":1}}`)
	before := encode(t, in)
	_ = Fields(in, []string{"id"})
	assert.Equal(t, before, encode(t, in))
}

func TestResolve(t *testing.T) {
	in := decode(t, `{"a":{"b":{"c":"value"}},"list":[10,20]}`)

	v, ok := Resolve(in, "a.b.c")
	require.True(t, ok)
	assert.Equal(t, "value", v)

	v, ok = Resolve(in, "list.1")
	require.True(t, ok)
	assert.Equal(t, json.Number("20"), v)

	for _, path := range []string{"a.x", "list.-1", "list.2", "list.first", "a.b.c.d"} {
		_, ok := Resolve(in, path)
		assert.False(t, ok, path)
	}
}

func TestFlatKey(t *testing.T) {
	assert.Equal(t, "id", FlatKey("id"))
	assert.Equal(t, "user_profile_age", FlatKey("user.profile.age"))
}

func TestParseSelectors(t *testing.T) {
	assert.Equal(t, []string{"id", "name", "title"}, ParseSelectors("id,name,title"))
	assert.Equal(t, []string{"id", "user.name"}, ParseSelectors(" id , ,user.name ,"))
	assert.Nil(t, ParseSelectors(""))
	assert.Nil(t, ParseSelectors(" , "))
}
