package provision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want EntitlementValue
	}{
		{"object", `{"a":true}`, Dictionary{"a": Boolean(true)}},
		{"empty object", `{}`, Dictionary{}},
		{"array", `[1,"x",null]`, Array{Integer(1), String("x"), Null{}}},
		{"bool", `false`, Boolean(false)},
		{"base64 string", `"aGk="`, Blob("hi")},
		{"integer", `42`, Integer(42)},
		{"negative integer", `-7`, Integer(-7)},
		{"float", `1.25`, Float(1.25)},
		{"plain string", `"SELFSIGNED.*"`, String("SELFSIGNED.*")},
		{"null", `null`, Null{}},
		{"nested", `{"a":[{"b":[2.5]}]}`, Dictionary{"a": Array{Dictionary{"b": Array{Float(2.5)}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ProbeJSON([]byte(tt.in))
			require.NoError(t, err)
			assert.True(t, Equal(tt.want, got), "got %#v", got)
		})
	}
}

func TestProbeJSONAmbiguous(t *testing.T) {
	// valid base64 wins over string
	got, err := ProbeJSON([]byte(`"test"`))
	require.NoError(t, err)
	assert.Equal(t, KindBlob, got.Kind())

	// timestamps are not probed
	got, err = ProbeJSON([]byte(`"2023-03-04T05:06:07Z"`))
	require.NoError(t, err)
	assert.Equal(t, KindString, got.Kind())
}

func TestProbeJSONErrors(t *testing.T) {
	for _, in := range []string{``, `{`, `[1,`, `tru`, `{"a":[1,}`} {
		got, err := ProbeJSON([]byte(in))
		assert.Nil(t, got, in)
		assert.ErrorIs(t, err, ErrDecode, in)
	}
}

func TestProbeEntitlementsJSON(t *testing.T) {
	d, err := ProbeEntitlementsJSON([]byte(`{"get-task-allow":true,"aps-environment":"development","ids":[1,2]}`))
	require.NoError(t, err)
	assert.True(t, EntitlementsDictionary{
		"get-task-allow":  Boolean(true),
		"aps-environment": String("development"),
		"ids":             Array{Integer(1), Integer(2)},
	}.Equal(d))

	for _, in := range []string{`[]`, `null`, `"x"`, `{"a":}`} {
		_, err := ProbeEntitlementsJSON([]byte(in))
		assert.ErrorIs(t, err, ErrDecode, in)
	}
}
