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
	"fmt"
	"sync"

	"taulabs/pkg/uavo"
)

// LinkStatus is the telemetry link state reported in the Status field of
// the flight and ground station statistics objects.
type LinkStatus uint8

const (
	StatusDisconnected LinkStatus = iota
	StatusHandshakeReq
	StatusHandshakeAck
	StatusConnected
)

const FlightStatusObject = "FlightTelemetryStats"

var linkStatusNames = [...]string{
	StatusDisconnected: "Disconnected",
	StatusHandshakeReq: "HandshakeReq",
	StatusHandshakeAck: "HandshakeAck",
	StatusConnected:    "Connected",
}

func (s LinkStatus) String() string {
	if int(s) < len(linkStatusNames) {
		return linkStatusNames[s]
	}
	return fmt.Sprintf("LinkStatus(%d)", uint8(s))
}

// StatusEncoder builds the ground station status record sent back to the
// flight side.
type StatusEncoder interface {
	EncodeStatus(status uint8) ([]byte, error)
}

// Handshake tracks the flight side link status. It is driven only by
// inbound records and never times out.
type Handshake struct {
	mtx   sync.Mutex
	last  LinkStatus
	known bool
}

// React returns the status to reply with for rec. Records other than the
// flight statistics, and a HandshakeReq status, need no reply.
func (h *Handshake) React(rec *uavo.Record) (out LinkStatus, send bool) {
	if rec.Name != FlightStatusObject {
		return
	}
	v, ok := rec.Uint("Status")
	if !ok {
		return
	}
	in := LinkStatus(v)
	h.mtx.Lock()
	h.last = in
	h.known = true
	h.mtx.Unlock()

	switch in {
	case StatusDisconnected:
		return StatusHandshakeReq, true
	case StatusHandshakeAck, StatusConnected:
		return StatusConnected, true
	}
	return
}

// State returns the last status the flight side reported. ok is false until
// the first flight statistics record arrives.
func (h *Handshake) State() (st LinkStatus, ok bool) {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	return h.last, h.known
}
