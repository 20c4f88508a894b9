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

// Package initmgr runs the registered initializers of a binary in order and
// finalizes them in reverse order.
package initmgr

import (
	"fmt"
	"os"
	"os/signal"
	"reflect"
	"runtime"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/golang/glog"
)

var (
	initializers initEntriesT
	mtx          sync.Mutex
	stderr       = os.Stderr
	exit         = os.Exit
)

type entryT struct {
	initializer  IInitializer
	weight       int
	args         []interface{}
	initOnce     sync.Once
	finalizeOnce sync.Once
	initialized  bool
}

type initEntriesT []*entryT

type IInitializer interface {
	Name() string
	Initialize(args ...interface{}) error
	Finalize()
}

func (rs initEntriesT) Len() int {
	return len(rs)
}

func (rs initEntriesT) Less(i, j int) bool {
	return rs[i].weight < rs[j].weight
}

func (rs initEntriesT) Swap(i, j int) {
	rs[i], rs[j] = rs[j], rs[i]
}

// Init runs every registered initializer once, lowest weight first. On
// failure the ones already initialized are finalized and the process exits
// with 255.
func Init() {
	if err := initialize(); err != nil {
		fmt.Fprintf(stderr, "\n... Initialization FAILURE (%s)\n\n", err)
		glog.Errorf("initialization failure: %s", err)
		Finalize()
		exit(255)
	}
}

func initialize() (err error) {
	signal.Ignore(syscall.SIGPIPE)

	mtx.Lock()
	sort.Stable(initializers)
	entries := append(initEntriesT(nil), initializers...)
	mtx.Unlock()

	for _, e := range entries {
		e.initOnce.Do(func() {
			name := e.initializer.Name()
			if err = e.initializer.Initialize(e.args...); err == nil {
				e.initialized = true
				fmt.Fprintf(stderr, "... [ok]   initmgr.initialize %s\n", name)
			} else {
				fmt.Fprintf(stderr, "... [fail] initmgr.initialize %s\t (error: %s)\n", name, err.Error())
			}
		})
		if err != nil {
			return
		}
	}
	return
}

// HandleSignals finalizes everything and exits when SIGINT or SIGTERM
// arrives. onSignal, if not nil, runs first.
func HandleSignals(onSignal func(sig os.Signal)) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(stderr, "... signal %d (%s) received\n", sig, sig)
		if onSignal != nil {
			onSignal(sig)
		}
		Finalize()
		stderr.Sync()
		exit(0)
	}()
}

func Finalize() {
	mtx.Lock()
	entries := append(initEntriesT(nil), initializers...)
	mtx.Unlock()

	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if !e.initialized {
			continue
		}
		e.finalizeOnce.Do(func() {
			fmt.Fprintf(stderr, "... initmgr.finalize %s\n", e.initializer.Name())
			e.initializer.Finalize()
		})
	}
}

func Register(rc IInitializer, args ...interface{}) {
	mtx.Lock()
	n := len(initializers)
	mtx.Unlock()
	RegisterWithWeight(rc, n, args...)
}

func RegisterWithFuncs(initializeFunc func(args ...interface{}) error, finalizeFunc func(), args ...interface{}) {
	Register(NewInitializer(initializeFunc, finalizeFunc), args...)
}

func RegisterWithWeight(rc IInitializer, weight int, args ...interface{}) {
	mtx.Lock()
	initializers = append(initializers, &entryT{initializer: rc, weight: weight, args: args})
	mtx.Unlock()
}

type Initializer struct {
	name           string
	InitializeFunc func(args ...interface{}) error
	FinalizeFunc   func()
}

func (i *Initializer) Name() string {
	return i.name
}

func (i *Initializer) Initialize(args ...interface{}) (err error) {
	if i.InitializeFunc != nil {
		err = i.InitializeFunc(args...)
	}
	return
}

func (i *Initializer) Finalize() {
	if i.FinalizeFunc != nil {
		i.FinalizeFunc()
	}
}

// NewInitializer names the initializer after the package of initializeFunc.
func NewInitializer(initializeFunc func(args ...interface{}) error, finalizeFunc func()) IInitializer {
	name := runtime.FuncForPC(reflect.ValueOf(initializeFunc).Pointer()).Name()
	i := strings.LastIndex(name, ".")
	if i == -1 {
		name = "unknown package"
	} else {
		name = name[0:i]
	}
	return &Initializer{name, initializeFunc, finalizeFunc}
}
