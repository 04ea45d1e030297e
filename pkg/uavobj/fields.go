package uavobj

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Values maps field names to values. A field with several elements maps to
// a []interface{}. Enum elements decode to their option name.
type Values map[string]interface{}

// Decode returns the field values of an instance.
func (o *Object) Decode(instID uint16) (Values, error) {
	data, err := o.Data(instID)
	if err != nil {
		return nil, err
	}
	values := make(Values, len(o.def.Fields))
	off := 0
	for i := range o.def.Fields {
		f := &o.def.Fields[i]
		n, sz := f.NumElements(), f.Type.Size()
		if n == 1 {
			values[f.Name] = decodeElement(f, data[off:off+sz])
		} else {
			elems := make([]interface{}, n)
			for e := range elems {
				elems[e] = decodeElement(f, data[off+e*sz:off+(e+1)*sz])
			}
			values[f.Name] = elems
		}
		off += f.NumBytes()
	}
	return values, nil
}

// Encode merges values onto the current data of an instance and returns
// the packed result. An absent instance starts from zeros.
func (o *Object) Encode(instID uint16, values Values) ([]byte, error) {
	data, err := o.Data(instID)
	if err != nil {
		data = make([]byte, o.size)
	}
	offsets := make(map[string]int, len(o.def.Fields))
	off := 0
	for i := range o.def.Fields {
		offsets[o.def.Fields[i].Name] = off
		off += o.def.Fields[i].NumBytes()
	}
	for name, v := range values {
		f := o.field(name)
		if f == nil {
			return nil, &FieldError{Field: name, Reason: "unknown field"}
		}
		off, n, sz := offsets[name], f.NumElements(), f.Type.Size()
		elems, isList := v.([]interface{})
		switch {
		case isList && len(elems) != n:
			return nil, &FieldError{Field: name, Reason: fmt.Sprintf("expect %d elements", n)}
		case isList:
		case n == 1:
			elems = []interface{}{v}
		default:
			return nil, &FieldError{Field: name, Reason: fmt.Sprintf("expect %d elements", n)}
		}
		for e, ev := range elems {
			if err := encodeElement(f, data[off+e*sz:off+(e+1)*sz], ev); err != nil {
				return nil, err
			}
		}
	}
	return data, nil
}

func (o *Object) field(name string) *Field {
	for i := range o.def.Fields {
		if o.def.Fields[i].Name == name {
			return &o.def.Fields[i]
		}
	}
	return nil
}

func decodeElement(f *Field, p []byte) interface{} {
	switch f.Type {
	case FieldInt8:
		return int64(int8(p[0]))
	case FieldInt16:
		return int64(int16(binary.LittleEndian.Uint16(p)))
	case FieldInt32:
		return int64(int32(binary.LittleEndian.Uint32(p)))
	case FieldUint8:
		return uint64(p[0])
	case FieldUint16:
		return uint64(binary.LittleEndian.Uint16(p))
	case FieldUint32:
		return uint64(binary.LittleEndian.Uint32(p))
	case FieldFloat32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(p)))
	case FieldEnum:
		if int(p[0]) < len(f.Options) {
			return f.Options[p[0]]
		}
		return uint64(p[0])
	}
	return nil
}

func encodeElement(f *Field, p []byte, v interface{}) error {
	if f.Type == FieldEnum {
		if s, ok := v.(string); ok {
			for n, opt := range f.Options {
				if opt == s {
					p[0] = byte(n)
					return nil
				}
			}
		}
	}
	num, err := toFloat(v)
	if err != nil {
		return &FieldError{Field: f.Name, Reason: err.Error()}
	}
	if f.Type == FieldFloat32 {
		binary.LittleEndian.PutUint32(p, math.Float32bits(float32(num)))
		return nil
	}
	if num != math.Trunc(num) {
		return &FieldError{Field: f.Name, Reason: fmt.Sprintf("%v is not an integer", v)}
	}
	lo, hi := fieldRange(f)
	if num < lo || num > hi {
		return &FieldError{Field: f.Name, Reason: fmt.Sprintf("%v out of range", v)}
	}
	switch f.Type.Size() {
	case 1:
		p[0] = byte(int64(num))
	case 2:
		binary.LittleEndian.PutUint16(p, uint16(int64(num)))
	case 4:
		binary.LittleEndian.PutUint32(p, uint32(int64(num)))
	}
	return nil
}

func fieldRange(f *Field) (float64, float64) {
	switch f.Type {
	case FieldInt8:
		return math.MinInt8, math.MaxInt8
	case FieldInt16:
		return math.MinInt16, math.MaxInt16
	case FieldInt32:
		return math.MinInt32, math.MaxInt32
	case FieldUint8:
		return 0, math.MaxUint8
	case FieldUint16:
		return 0, math.MaxUint16
	case FieldEnum:
		return 0, float64(len(f.Options) - 1)
	}
	return 0, math.MaxUint32
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(n, 64)
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("unsupported value %v", v)
}
