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
	"bytes"
	"fmt"
	"time"
)

type (
	// Record is one decoded object instance. It is never modified after
	// the decoder hands it out.
	Record struct {
		Name   string
		ObjID  uint32
		InstID uint16
		Time   time.Time
		Fields []Field
	}

	// Field is a named value of a record. Scalars are int64, uint64 or
	// float64; multi-element fields hold a slice of the same kinds.
	Field struct {
		Name  string
		Value interface{}
	}
)

func (r *Record) Get(name string) (v interface{}, ok bool) {
	for i := range r.Fields {
		if r.Fields[i].Name == name {
			return r.Fields[i].Value, true
		}
	}
	return
}

// Uint returns a scalar field as an unsigned integer.
func (r *Record) Uint(name string) (uint64, bool) {
	v, ok := r.Get(name)
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case uint64:
		return x, true
	case int64:
		if x >= 0 {
			return uint64(x), true
		}
	case float64:
		if x >= 0 {
			return uint64(x), true
		}
	}
	return 0, false
}

// Map returns the field values keyed by field name.
func (r *Record) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(r.Fields))
	for _, f := range r.Fields {
		m[f.Name] = f.Value
	}
	return m
}

func (r *Record) String() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s(%08x)", r.Name, r.ObjID)
	for i, f := range r.Fields {
		if i == 0 {
			buf.WriteByte(' ')
		} else {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "%s=%v", f.Name, f.Value)
	}
	return buf.String()
}
