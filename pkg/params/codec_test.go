package params

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEncode_PreservesText(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"key order", `{"z":1,"a":2,"m":{"y":true,"b":null}}`},
		{"numbers", `{"int":10,"float":1.50,"exp":1e3,"neg":-0.0}`},
		{"html", `{"text":"<p>Tom & Jerry</p>"}`},
		{"unicode", `{"text":"héllo ✓"}`},
		{"arrays", `{"list":[1,"two",{"three":3},[],{}]}`},
		{"escapes", `{"q":"say \"hi\"\n"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Decode([]byte(tt.input))
			require.NoError(t, err)

			out, err := Encode(v)
			require.NoError(t, err)
			assert.Equal(t, tt.input, string(out))
		})
	}
}

func TestDecode_Types(t *testing.T) {
	v, err := Decode([]byte(`{"n":3,"s":"x","b":false,"l":[null]}`))
	require.NoError(t, err)

	obj, ok := v.(*Object)
	require.True(t, ok)

	n, _ := obj.Get("n")
	assert.Equal(t, json.Number("3"), n)
	l, _ := obj.Get("l")
	assert.Equal(t, []any{nil}, l)
}

func TestDecode_Errors(t *testing.T) {
	for _, input := range []string{
		``,
		`{not json`,
		`{"a":1`,
		`{"a":1}}`,
		`{"a":1} {"b":2}`,
		`[1,2`,
	} {
		t.Run(input, func(t *testing.T) {
			_, err := Decode([]byte(input))
			assert.Error(t, err)
		})
	}
}

func TestDecode_Scalars(t *testing.T) {
	v, err := Decode([]byte(`"text"`))
	require.NoError(t, err)
	assert.Equal(t, "text", v)

	v, err = Decode([]byte(` 42 `))
	require.NoError(t, err)
	assert.Equal(t, json.Number("42"), v)
}

func TestEncode_GoValues(t *testing.T) {
	out, err := Encode(ObjectOf("f", 1.5, "i", int64(7), "s", []any{"a"}))
	require.NoError(t, err)
	assert.Equal(t, `{"f":1.5,"i":7,"s":["a"]}`, string(out))
}

func TestObject_JSONInterop(t *testing.T) {
	var o Object
	require.NoError(t, json.Unmarshal([]byte(`{"b":1,"a":2}`), &o))
	assert.Equal(t, []string{"b", "a"}, o.Keys())

	data, err := json.Marshal(struct {
		Params *Object `json:"params"`
	}{Params: &o})
	require.NoError(t, err)
	assert.Equal(t, `{"params":{"b":1,"a":2}}`, string(data))

	assert.Error(t, json.Unmarshal([]byte(`[1]`), &o))
}

func TestEqual(t *testing.T) {
	a, err := Decode([]byte(`{"x":[1,{"y":"z"}],"n":1.0}`))
	require.NoError(t, err)
	b, err := Decode([]byte(`{"n":1,"x":[1,{"y":"z"}]}`))
	require.NoError(t, err)
	c, err := Decode([]byte(`{"n":1,"x":[1,{"y":"w"}]}`))
	require.NoError(t, err)

	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
	assert.False(t, Equal(a, nil))
	assert.True(t, Equal(nil, nil))

	// go-cmp picks up the Equal method on *Object
	assert.Empty(t, cmp.Diff(a, b))
	assert.NotEmpty(t, cmp.Diff(a, c))
}
