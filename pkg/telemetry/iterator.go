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
	"taulabs/pkg/uavo"
)

// Iterator is a consumer cursor over the record log. Iterators never
// consume records; every iterator sees the whole log in append order.
//
//	it := s.Iter()
//	for it.Next() {
//		rec := it.Record()
//		...
//	}
//	if err := it.Err(); err != nil {
//		...
//	}
type Iterator struct {
	s        *Session
	cursor   int
	blocking bool
	rec      *uavo.Record
	err      error
}

// Iter returns an iterator starting at the beginning of the log, blocking
// according to the session config.
func (s *Session) Iter() *Iterator {
	return s.IterMode(s.conf.IterBlocks)
}

func (s *Session) IterMode(blocking bool) *Iterator {
	return &Iterator{s: s, blocking: blocking}
}

// Next advances to the next record. A blocking iterator waits for more
// records until the stream ends. A non-blocking one returns false once it
// caught up with the log; calling Next later may yield records appended in
// between.
func (it *Iterator) Next() bool {
	if it.err != nil {
		return false
	}
	st := it.s.store
	attempted := false
	for {
		st.mtx.Lock()
		if it.cursor < len(st.log) {
			it.rec = st.log[it.cursor]
			it.cursor++
			st.mtx.Unlock()
			return true
		}
		it.rec = nil
		if st.done {
			it.err = st.err
			st.mtx.Unlock()
			return false
		}
		if !it.s.conf.ServiceInIter {
			if !it.blocking {
				st.mtx.Unlock()
				return false
			}
			st.cond.Wait()
			st.mtx.Unlock()
			continue
		}
		st.mtx.Unlock()

		if !it.blocking {
			if attempted {
				return false
			}
			attempted = true
			if err := it.s.Service(0); err != nil {
				it.err = err
				return false
			}
			continue
		}
		if err := it.s.Service(it.s.conf.ServiceTimeout.Duration); err != nil {
			it.err = err
			return false
		}
	}
}

func (it *Iterator) Record() *uavo.Record {
	return it.rec
}

// Err returns the fatal error that ended the stream, if any.
func (it *Iterator) Err() error {
	return it.err
}

// Position returns the number of records consumed so far.
func (it *Iterator) Position() int {
	return it.cursor
}
