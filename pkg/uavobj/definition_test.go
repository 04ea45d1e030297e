package uavobj

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/telelink/pkg/talk"
)

const testDefinitions = `
[[object]]
id = 0x5c9cd5aa
name = "AttitudeActual"
single_instance = true
period_ms = 100

  [[object.field]]
  name = "Roll"
  type = "float32"
  units = "deg"

  [[object.field]]
  name = "Pitch"
  type = "float32"

[[object]]
id = 0x1f4a0b32
name = "ActuatorCommand"

  [[object.field]]
  name = "Channel"
  type = "int16"
  elements = 4

  [[object.field]]
  name = "Armed"
  type = "enum"
  options = ["False", "True"]
`

func TestLoad(t *testing.T) {
	defs, err := Load(strings.NewReader(testDefinitions))
	require.NoError(t, err)
	require.Len(t, defs, 2)
	require.Equal(t, uint32(0x5c9cd5aa), defs[0].ID)
	require.True(t, defs[0].SingleInstance)
	require.Equal(t, 100, defs[0].PeriodMs)
	require.Equal(t, 8, defs[0].NumBytes())
	require.Equal(t, "deg", defs[0].Fields[0].Units)
	require.False(t, defs[1].SingleInstance)
	require.Equal(t, 9, defs[1].NumBytes())
	require.Equal(t, []string{"False", "True"}, defs[1].Fields[1].Options)
	for _, def := range defs {
		require.NoError(t, def.Validate())
	}
}

func TestLoadUnknownKey(t *testing.T) {
	_, err := Load(strings.NewReader("[[object]]\nid = 1\nname = \"X\"\nrate = 5\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "rate")
}

func TestLoadFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "uavobj")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	fn := filepath.Join(dir, "objects.toml")
	require.NoError(t, ioutil.WriteFile(fn, []byte(testDefinitions), 0644))
	defs, err := LoadFile(fn)
	require.NoError(t, err)
	require.Len(t, defs, 2)

	_, err = LoadFile(filepath.Join(dir, "missing.toml"))
	require.Error(t, err)
}

func TestDefinitionMaxSize(t *testing.T) {
	def := Definition{ID: 1, Name: "X", Fields: []Field{{Name: "V", Type: FieldUint8, Elements: talk.MaxPayloadLength}}}
	require.NoError(t, def.Validate())
	def.Fields = append(def.Fields, Field{Name: "W", Type: FieldUint8})
	require.IsType(t, &DefinitionError{}, def.Validate())
}

func TestDefinitionValidate(t *testing.T) {
	field := Field{Name: "V", Type: FieldUint8}
	testCases := []struct {
		name string
		def  Definition
	}{
		{"missing name", Definition{ID: 1, Fields: []Field{field}}},
		{"zero id", Definition{Name: "X", Fields: []Field{field}}},
		{"no fields", Definition{ID: 1, Name: "X"}},
		{"duplicate field", Definition{ID: 1, Name: "X", Fields: []Field{field, field}}},
		{"unknown type", Definition{ID: 1, Name: "X", Fields: []Field{{Name: "V", Type: "double"}}}},
		{"enum without options", Definition{ID: 1, Name: "X", Fields: []Field{{Name: "V", Type: FieldEnum}}}},
		{"too large", Definition{ID: 1, Name: "X", Fields: []Field{{Name: "V", Type: FieldUint32, Elements: 64}}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.def.Validate()
			require.Error(t, err)
			require.IsType(t, &DefinitionError{}, err)
		})
	}
}
