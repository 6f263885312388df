package provision

import (
	"math"
	"testing"
	"time"

	"github.com/blacktop/go-plist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleTime = time.Date(2023, time.March, 4, 5, 6, 7, 890, time.UTC)

func TestNewEntitlementValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want EntitlementValue
	}{
		{"bool", true, Boolean(true)},
		{"string", "SELFSIGNED.*", String("SELFSIGNED.*")},
		{"int", 5, Integer(5)},
		{"int64", int64(-9), Integer(-9)},
		{"uint64", uint64(12), Integer(12)},
		{"uint8", uint8(255), Integer(255)},
		{"float64", 1.5, Float(1.5)},
		{"float32", float32(0.25), Float(0.25)},
		{"bytes", []byte{1, 2}, Blob{1, 2}},
		{"time", sampleTime, Timestamp(sampleTime)},
		{"nil", nil, Null{}},
		{"empty array", []any{}, Array{}},
		{"empty dictionary", map[string]any{}, Dictionary{}},
		{"nested", map[string]any{
			"a": []any{1, map[string]any{"b": []any{"c", false}}},
		}, Dictionary{
			"a": Array{Integer(1), Dictionary{"b": Array{String("c"), Boolean(false)}}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewEntitlementValue(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Kind(), got.Kind())
			assert.True(t, Equal(tt.want, got), "got %#v", got)
		})
	}
}

func TestNewEntitlementValueUnrepresentable(t *testing.T) {
	tests := []struct {
		name string
		in   any
		path string
	}{
		{"uid", plist.UID(1), ""},
		{"uint64 overflow", uint64(math.MaxUint64), ""},
		{"struct", struct{}{}, ""},
		{"nested", map[string]any{"a": []any{true, plist.UID(1)}}, "a[1]"},
		{"deep", []any{map[string]any{"b": map[string]any{"c": complex(1, 2)}}}, "[0].b.c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewEntitlementValue(tt.in)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, ErrUnrepresentableValue)
			if tt.path != "" {
				assert.ErrorContains(t, err, tt.path)
			}
		})
	}
}

func TestNewEntitlementsDictionary(t *testing.T) {
	d, err := NewEntitlementsDictionary(map[string]any{
		"get-task-allow": true,
		"beta-reports-active": []any{
			"x", int64(1),
		},
	})
	require.NoError(t, err)
	assert.Len(t, d, 2)
	assert.True(t, Equal(Boolean(true), d["get-task-allow"]))

	_, err = NewEntitlementsDictionary(map[string]any{"ok": 1, "bad": plist.UID(2)})
	assert.ErrorIs(t, err, ErrUnrepresentableValue)
	assert.ErrorContains(t, err, `"bad"`)

	d, err = NewEntitlementsDictionary(nil)
	require.NoError(t, err)
	assert.NotNil(t, d)
	assert.Empty(t, d)
}

func TestNewEntitlementValueCopiesBlobs(t *testing.T) {
	b := []byte{1, 2, 3}
	v, err := NewEntitlementValue(b)
	require.NoError(t, err)
	b[0] = 9
	assert.Equal(t, Blob{1, 2, 3}, v)
}

func TestRawValue(t *testing.T) {
	raw := map[string]any{
		"bool":   true,
		"string": "s",
		"int":    int64(-1),
		"float":  2.5,
		"data":   []byte{0xde, 0xad},
		"date":   sampleTime,
		"array":  []any{int64(1), "two", []any{}},
		"dict":   map[string]any{"nested": map[string]any{"x": false}},
	}
	d, err := NewEntitlementsDictionary(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, d.RawValue())

	assert.Nil(t, RawValue(Null{}))
	assert.Equal(t, []any{nil}, RawValue(Array{Null{}}))
}

func TestPlistValue(t *testing.T) {
	d := EntitlementsDictionary{
		"a": Array{String("x"), Integer(1)},
		"b": Dictionary{"c": Blob{1}},
	}
	v, err := d.PlistValue()
	require.NoError(t, err)
	_, err = plist.Marshal(v, plist.XMLFormat)
	require.NoError(t, err)

	d["b"] = Dictionary{"c": Array{Null{}}}
	_, err = d.PlistValue()
	assert.ErrorIs(t, err, ErrUnrepresentableValue)
	assert.ErrorContains(t, err, "b.c[0]")
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b EntitlementValue
		want bool
	}{
		{"same string", String("a"), String("a"), true},
		{"different string", String("a"), String("b"), false},
		{"integer vs float", Integer(1), Float(1), false},
		{"blob vs string", Blob("a"), String("a"), false},
		{"nil blob vs empty blob", Blob(nil), Blob{}, true},
		{"timestamps in different zones", Timestamp(sampleTime), Timestamp(sampleTime.In(time.FixedZone("X", 3600))), true},
		{"null", Null{}, Null{}, true},
		{"array order", Array{Integer(1), Integer(2)}, Array{Integer(2), Integer(1)}, false},
		{"dictionary order", Dictionary{"a": Integer(1), "b": Integer(2)}, Dictionary{"b": Integer(2), "a": Integer(1)}, true},
		{"dictionary missing key", Dictionary{"a": Null{}}, Dictionary{"b": Null{}}, false},
		{"nil", nil, nil, true},
		{"nil vs null", nil, Null{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
			assert.Equal(t, tt.want, Equal(tt.b, tt.a))
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "data", KindBlob.String())
	assert.Equal(t, "double", KindFloat.String())
	assert.Equal(t, "Kind(0)", Kind(0).String())
	k, ok := kindForTag("date")
	assert.True(t, ok)
	assert.Equal(t, KindTimestamp, k)
	_, ok = kindForTag("Date")
	assert.False(t, ok)
}
