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

package common

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"taulabs/pkg/logging"
	"taulabs/pkg/uavo"
)

// Filter selects records with a boolean expression over the record fields
// and the names name, objid, instid and time, e.g.
//
//	name == "AttitudeActual" && Roll > 10
type Filter struct {
	src  string
	prog *vm.Program
}

// NewFilter compiles src. An empty src yields a nil filter that matches
// every record.
func NewFilter(src string) (f *Filter, err error) {
	if src == "" {
		return
	}
	var prog *vm.Program
	if prog, err = expr.Compile(src, expr.AsBool(), expr.AllowUndefinedVariables()); err != nil {
		err = fmt.Errorf("filter %q: %w", src, err)
		return
	}
	f = &Filter{src: src, prog: prog}
	return
}

func recordEnv(rec *uavo.Record) map[string]interface{} {
	env := rec.Map()
	env["name"] = rec.Name
	env["objid"] = rec.ObjID
	env["instid"] = rec.InstID
	env["time"] = rec.Time
	return env
}

// Match reports whether rec passes the filter. A record the expression
// cannot be evaluated on, e.g. because it lacks a field, does not match.
func (f *Filter) Match(rec *uavo.Record) bool {
	if f == nil {
		return true
	}
	out, err := expr.Run(f.prog, recordEnv(rec))
	if err != nil {
		logging.Verbosef("filter %q on %s: %s", f.src, rec.Name, err)
		return false
	}
	b, _ := out.(bool)
	return b
}
