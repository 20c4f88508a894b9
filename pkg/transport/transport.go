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

// Package transport supplies raw bytes to a telemetry session.
package transport

import (
	"time"
)

// Transport is a byte source (and optionally sink) driven by one goroutine
// at a time.
type Transport interface {
	// Receive returns the bytes available now, waiting no later than
	// deadline. A zero deadline waits indefinitely; a past deadline makes a
	// single attempt. It returns nil, nil when nothing arrived in time.
	Receive(deadline time.Time) ([]byte, error)
	// Send queues b for transmission without blocking.
	Send(b []byte) error
	// Done reports that no further data can be produced.
	Done() bool
	Close() error
}
