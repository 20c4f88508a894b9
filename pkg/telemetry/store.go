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

package telemetry

import (
	"sync"

	"taulabs/pkg/uavo"
)

// Store is the append-only record log of a session plus the latest record
// of each object type. A record at index i never changes once appended.
type Store struct {
	mtx    sync.Mutex
	cond   *sync.Cond
	log    []*uavo.Record
	latest map[string]*uavo.Record
	done   bool
	err    error

	// number of broadcasts, for tests
	notifies uint64
}

func NewStore() *Store {
	s := &Store{
		latest: make(map[string]*uavo.Record),
	}
	s.cond = sync.NewCond(&s.mtx)
	return s
}

// Append adds a batch in one critical section and wakes waiting readers
// once.
func (s *Store) Append(recs []*uavo.Record) {
	if len(recs) == 0 {
		return
	}
	s.mtx.Lock()
	s.log = append(s.log, recs...)
	for _, rec := range recs {
		s.latest[rec.Name] = rec
	}
	s.notifies++
	s.cond.Broadcast()
	s.mtx.Unlock()
}

// Latest returns a copy of the latest value index.
func (s *Store) Latest() map[string]*uavo.Record {
	s.mtx.Lock()
	m := make(map[string]*uavo.Record, len(s.latest))
	for k, v := range s.latest {
		m[k] = v
	}
	s.mtx.Unlock()
	return m
}

func (s *Store) Len() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return len(s.log)
}

func (s *Store) At(i int) *uavo.Record {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if i < 0 || i >= len(s.log) {
		return nil
	}
	return s.log[i]
}

// Done reports whether the stream ended and the fatal error, if any.
func (s *Store) Done() (bool, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.done, s.err
}

// Wait blocks until the stream ends.
func (s *Store) Wait() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	for !s.done {
		s.cond.Wait()
	}
	return s.err
}

// finish marks the end of the stream and wakes every blocked reader. The
// first error wins.
func (s *Store) finish(err error) {
	s.mtx.Lock()
	s.done = true
	if s.err == nil {
		s.err = err
	}
	s.notifies++
	s.cond.Broadcast()
	s.mtx.Unlock()
}

func (s *Store) notifyCount() uint64 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.notifies
}
