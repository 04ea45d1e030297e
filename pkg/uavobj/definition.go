package uavobj

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"

	"github.com/robotalks/telelink/pkg/talk"
)

// FieldType is the type of field elements.
type FieldType string

// Field types.
const (
	FieldInt8    FieldType = "int8"
	FieldInt16   FieldType = "int16"
	FieldInt32   FieldType = "int32"
	FieldUint8   FieldType = "uint8"
	FieldUint16  FieldType = "uint16"
	FieldUint32  FieldType = "uint32"
	FieldFloat32 FieldType = "float32"
	FieldEnum    FieldType = "enum" // uint8 with named options
)

// Size returns the size of one element, 0 for unknown types.
func (t FieldType) Size() int {
	switch t {
	case FieldInt8, FieldUint8, FieldEnum:
		return 1
	case FieldInt16, FieldUint16:
		return 2
	case FieldInt32, FieldUint32, FieldFloat32:
		return 4
	}
	return 0
}

// Field describes one field of an object.
type Field struct {
	Name     string    `toml:"name" json:"name"`
	Type     FieldType `toml:"type" json:"type"`
	Elements int       `toml:"elements" json:"elements,omitempty"`
	Options  []string  `toml:"options" json:"options,omitempty"`
	Units    string    `toml:"units" json:"units,omitempty"`
}

// NumElements returns the element count, at least 1.
func (f *Field) NumElements() int {
	if f.Elements < 1 {
		return 1
	}
	return f.Elements
}

// NumBytes returns the serialized size of the field.
func (f *Field) NumBytes() int {
	return f.Type.Size() * f.NumElements()
}

// Definition describes an object.
type Definition struct {
	ID             uint32  `toml:"id" json:"id"`
	Name           string  `toml:"name" json:"name"`
	Description    string  `toml:"description" json:"description,omitempty"`
	SingleInstance bool    `toml:"single_instance" json:"single_instance"`
	PeriodMs       int     `toml:"period_ms" json:"period_ms,omitempty"`
	Fields         []Field `toml:"field" json:"fields"`
}

// NumBytes returns the serialized size of one instance.
func (d *Definition) NumBytes() (size int) {
	for i := range d.Fields {
		size += d.Fields[i].NumBytes()
	}
	return
}

// Validate checks the definition.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return &DefinitionError{Object: fmt.Sprintf("%08x", d.ID), Reason: "missing name"}
	}
	if d.ID == 0 {
		return &DefinitionError{Object: d.Name, Reason: "zero id"}
	}
	if len(d.Fields) == 0 {
		return &DefinitionError{Object: d.Name, Reason: "no fields"}
	}
	names := make(map[string]bool)
	for _, f := range d.Fields {
		if f.Name == "" || names[f.Name] {
			return &DefinitionError{Object: d.Name, Reason: fmt.Sprintf("invalid field name %q", f.Name)}
		}
		names[f.Name] = true
		if f.Type.Size() == 0 {
			return &DefinitionError{Object: d.Name, Reason: fmt.Sprintf("field %s: unknown type %q", f.Name, f.Type)}
		}
		if f.Type == FieldEnum && len(f.Options) == 0 {
			return &DefinitionError{Object: d.Name, Reason: fmt.Sprintf("field %s: enum without options", f.Name)}
		}
	}
	if size := d.NumBytes(); size > talk.MaxPayloadLength {
		return &DefinitionError{Object: d.Name, Reason: fmt.Sprintf("size %d exceeds %d", size, talk.MaxPayloadLength)}
	}
	return nil
}

type definitionFile struct {
	Objects []Definition `toml:"object"`
}

// Load reads definitions from TOML.
func Load(r io.Reader) ([]Definition, error) {
	var file definitionFile
	meta, err := toml.NewDecoder(r).Decode(&file)
	if err != nil {
		return nil, fmt.Errorf("parse object definitions: %v", err)
	}
	if keys := meta.Undecoded(); len(keys) > 0 {
		return nil, fmt.Errorf("parse object definitions: unknown key %s", keys[0])
	}
	return file.Objects, nil
}

// LoadFile reads definitions from a TOML file.
func LoadFile(path string) ([]Definition, error) {
	var file definitionFile
	meta, err := toml.DecodeFile(path, &file)
	if err != nil {
		return nil, fmt.Errorf("load object definitions (%s): %v", path, err)
	}
	if keys := meta.Undecoded(); len(keys) > 0 {
		return nil, fmt.Errorf("load object definitions (%s): unknown key %s", path, keys[0])
	}
	return file.Objects, nil
}
