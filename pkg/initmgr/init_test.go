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

package initmgr

import (
	"fmt"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func reset() {
	mtx.Lock()
	initializers = nil
	mtx.Unlock()
}

func TestInitFinalizeOrder(t *testing.T) {
	reset()
	defer reset()
	devnull, _ := os.Open(os.DevNull)
	stderr = devnull
	defer func() { stderr = os.Stderr }()

	var calls []string
	add := func(name string, weight int, fail bool) {
		RegisterWithWeight(&Initializer{
			name: name,
			InitializeFunc: func(args ...interface{}) error {
				calls = append(calls, "init "+name+fmt.Sprint(args...))
				if fail {
					return fmt.Errorf("%s failed", name)
				}
				return nil
			},
			FinalizeFunc: func() { calls = append(calls, "fin "+name) },
		}, weight, name)
	}
	add("otel", 2, false)
	add("logging", 1, false)

	if err := initialize(); err != nil {
		t.Fatal(err)
	}
	Finalize()
	Finalize()
	want := []string{"init logginglogging", "init otelotel", "fin otel", "fin logging"}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("calls (-want +got):\n%s", diff)
	}
}

func TestInitFailure(t *testing.T) {
	reset()
	defer reset()
	devnull, _ := os.Open(os.DevNull)
	stderr = devnull
	var code int
	exit = func(c int) { code = c }
	defer func() {
		stderr = os.Stderr
		exit = os.Exit
	}()

	finalized := false
	RegisterWithFuncs(func(args ...interface{}) error { return nil }, func() { finalized = true })
	RegisterWithFuncs(func(args ...interface{}) error { return fmt.Errorf("no collector") }, func() { t.Error("failed initializer finalized") })

	Init()
	if code != 255 {
		t.Errorf("exit code %d", code)
	}
	if !finalized {
		t.Error("initialized entry not finalized")
	}
}

func noopInit(args ...interface{}) error { return nil }

func TestNewInitializerName(t *testing.T) {
	i := NewInitializer(noopInit, nil)
	if i.Name() != "taulabs/pkg/initmgr" {
		t.Errorf("name %q", i.Name())
	}
}
