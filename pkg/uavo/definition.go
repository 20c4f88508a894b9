//
//  Copyright 2023 PayPal Inc.
//
//  Licensed to the Apache Software Foundation (ASF) under one or more
//  contributor license agreements.  See the NOTICE file distributed with
//  this work for additional information regarding copyright ownership.
//  The ASF licenses this file to You under the Apache License, Version 2.0
//  (the "License"); you may not use this file except in compliance with
//  the License.  You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.
//

package uavo

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"

	"taulabs/pkg/errors"
	"taulabs/pkg/util"
)

type FieldType uint8

const (
	TypeInt8 FieldType = iota
	TypeInt16
	TypeInt32
	TypeUint8
	TypeUint16
	TypeUint32
	TypeFloat
	TypeEnum
)

var fieldTypeNames = map[string]FieldType{
	"int8":   TypeInt8,
	"int16":  TypeInt16,
	"int32":  TypeInt32,
	"uint8":  TypeUint8,
	"uint16": TypeUint16,
	"uint32": TypeUint32,
	"float":  TypeFloat,
	"enum":   TypeEnum,
}

func (t FieldType) Size() int {
	switch t {
	case TypeInt8, TypeUint8, TypeEnum:
		return 1
	case TypeInt16, TypeUint16:
		return 2
	default:
		return 4
	}
}

func (t FieldType) String() string {
	for k, v := range fieldTypeNames {
		if v == t {
			return k
		}
	}
	return "unknown"
}

type (
	FieldDef struct {
		Name     string   `yaml:"name"`
		Type     string   `yaml:"type"`
		Elements int      `yaml:"elements"`
		Options  []string `yaml:"options"`

		kind FieldType
	}

	// Definition describes the layout of one object type.
	Definition struct {
		Name           string     `yaml:"name"`
		ID             uint32     `yaml:"id"`
		SingleInstance bool       `yaml:"singleinstance"`
		Description    string     `yaml:"description"`
		Fields         []FieldDef `yaml:"fields"`

		wire []FieldDef
		size int
	}
)

func (f *FieldDef) Kind() FieldType {
	return f.kind
}

func (f *FieldDef) Size() int {
	return f.kind.Size() * f.Elements
}

// Init validates the definition and computes its wire layout. Fields go on
// the wire ordered by element size, largest first; declaration order breaks
// ties.
func (d *Definition) Init() error {
	if d.Name == "" {
		return fmt.Errorf("%w: missing name", errors.ErrBadDefinition)
	}
	if len(d.Fields) == 0 {
		return fmt.Errorf("%w: %s has no fields", errors.ErrBadDefinition, d.Name)
	}
	seen := make(map[string]bool, len(d.Fields))
	for i := range d.Fields {
		f := &d.Fields[i]
		kind, ok := fieldTypeNames[strings.ToLower(f.Type)]
		if !ok {
			return fmt.Errorf("%w: %s.%s has unknown type %q", errors.ErrBadDefinition, d.Name, f.Name, f.Type)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: %s.%s declared twice", errors.ErrBadDefinition, d.Name, f.Name)
		}
		seen[f.Name] = true
		f.kind = kind
		if f.Elements <= 0 {
			f.Elements = 1
		}
	}
	d.wire = make([]FieldDef, len(d.Fields))
	copy(d.wire, d.Fields)
	sort.SliceStable(d.wire, func(i, j int) bool {
		return d.wire[i].kind.Size() > d.wire[j].kind.Size()
	})
	d.size = 0
	for i := range d.wire {
		d.size += d.wire[i].Size()
	}
	if d.ID == 0 {
		d.ID = util.Murmur3Hash([]byte(d.layout()))
	}
	return nil
}

// layout is the canonical text form used for id derivation and hashing.
func (d *Definition) layout() string {
	var sb strings.Builder
	sb.WriteString(d.Name)
	if d.SingleInstance {
		sb.WriteString("|single")
	}
	for _, f := range d.wire {
		fmt.Fprintf(&sb, "|%s:%s:%d", f.Name, f.kind, f.Elements)
		for _, o := range f.Options {
			sb.WriteString(":" + o)
		}
	}
	return sb.String()
}

func (d *Definition) Size() int {
	return d.size
}

func (d *Definition) WireFields() []FieldDef {
	return d.wire
}

// Decode unpacks the little-endian object data into fields in wire order.
func (d *Definition) Decode(data []byte) (fields []Field, err error) {
	if len(data) != d.size {
		err = fmt.Errorf("%s: data length %d, expected %d", d.Name, len(data), d.size)
		return
	}
	fields = make([]Field, 0, len(d.wire))
	off := 0
	for i := range d.wire {
		f := &d.wire[i]
		sz := f.kind.Size()
		if f.Elements == 1 {
			fields = append(fields, Field{f.Name, decodeValue(f.kind, data[off:off+sz])})
			off += sz
			continue
		}
		switch f.kind {
		case TypeInt8, TypeInt16, TypeInt32:
			vals := make([]int64, f.Elements)
			for k := range vals {
				vals[k] = decodeValue(f.kind, data[off:off+sz]).(int64)
				off += sz
			}
			fields = append(fields, Field{f.Name, vals})
		case TypeFloat:
			vals := make([]float64, f.Elements)
			for k := range vals {
				vals[k] = decodeValue(f.kind, data[off:off+sz]).(float64)
				off += sz
			}
			fields = append(fields, Field{f.Name, vals})
		default:
			vals := make([]uint64, f.Elements)
			for k := range vals {
				vals[k] = decodeValue(f.kind, data[off:off+sz]).(uint64)
				off += sz
			}
			fields = append(fields, Field{f.Name, vals})
		}
	}
	return
}

func decodeValue(kind FieldType, b []byte) interface{} {
	switch kind {
	case TypeInt8:
		return int64(int8(b[0]))
	case TypeInt16:
		return int64(int16(binary.LittleEndian.Uint16(b)))
	case TypeInt32:
		return int64(int32(binary.LittleEndian.Uint32(b)))
	case TypeUint8, TypeEnum:
		return uint64(b[0])
	case TypeUint16:
		return uint64(binary.LittleEndian.Uint16(b))
	case TypeUint32:
		return uint64(binary.LittleEndian.Uint32(b))
	case TypeFloat:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	}
	return nil
}

// Encode packs values into object data. Missing fields are zero; a field
// with several elements takes a slice or a single value for element 0.
func (d *Definition) Encode(values map[string]interface{}) (data []byte, err error) {
	data = make([]byte, d.size)
	off := 0
	for i := range d.wire {
		f := &d.wire[i]
		sz := f.kind.Size()
		elems := make([]interface{}, f.Elements)
		if v, ok := values[f.Name]; ok {
			if err = spread(v, elems); err != nil {
				err = fmt.Errorf("%s.%s: %w", d.Name, f.Name, err)
				return
			}
		}
		for _, e := range elems {
			if err = encodeValue(f.kind, e, data[off:off+sz]); err != nil {
				err = fmt.Errorf("%s.%s: %w", d.Name, f.Name, err)
				return
			}
			off += sz
		}
	}
	return
}

func spread(v interface{}, elems []interface{}) error {
	switch x := v.(type) {
	case []int64:
		return spreadSlice(len(x), elems, func(i int) interface{} { return x[i] })
	case []uint64:
		return spreadSlice(len(x), elems, func(i int) interface{} { return x[i] })
	case []float64:
		return spreadSlice(len(x), elems, func(i int) interface{} { return x[i] })
	case []interface{}:
		return spreadSlice(len(x), elems, func(i int) interface{} { return x[i] })
	default:
		elems[0] = v
	}
	return nil
}

func spreadSlice(n int, elems []interface{}, at func(int) interface{}) error {
	if n > len(elems) {
		return fmt.Errorf("%d values for %d elements", n, len(elems))
	}
	for i := 0; i < n; i++ {
		elems[i] = at(i)
	}
	return nil
}

func encodeValue(kind FieldType, v interface{}, b []byte) error {
	if v == nil {
		return nil
	}
	if kind == TypeFloat {
		f, ok := toFloat(v)
		if !ok {
			return fmt.Errorf("cannot encode %T as float", v)
		}
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(f)))
		return nil
	}
	n, ok := toInt(v)
	if !ok {
		return fmt.Errorf("cannot encode %T as %s", v, kind)
	}
	switch kind.Size() {
	case 1:
		b[0] = byte(n)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(n))
	default:
		binary.LittleEndian.PutUint32(b, uint32(n))
	}
	return nil
}

func toInt(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return int64(x), true
	case float32:
		return int64(x), true
	case float64:
		return int64(x), true
	}
	return 0, false
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	if n, ok := toInt(v); ok {
		return float64(n), true
	}
	return 0, false
}
