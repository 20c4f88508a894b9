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

package uavtalk

import (
	"encoding/binary"
	"fmt"
	"time"

	"taulabs/pkg/uavo"
)

// Encode builds an object frame carrying values for def.
func Encode(def *uavo.Definition, instID uint16, values map[string]interface{}) ([]byte, error) {
	data, err := def.Encode(values)
	if err != nil {
		return nil, err
	}
	return frame(TypeObj, def.ID, instID, data), nil
}

func frame(typ byte, objID uint32, instID uint16, data []byte) []byte {
	length := HeaderLength + len(data)
	b := make([]byte, length+1)
	b[0] = SyncVal
	b[1] = typ
	binary.LittleEndian.PutUint16(b[2:4], uint16(length))
	binary.LittleEndian.PutUint32(b[4:8], objID)
	binary.LittleEndian.PutUint16(b[8:10], instID)
	copy(b[HeaderLength:], data)
	b[length] = CRC8(b[:length])
	return b
}

// LogFrame prefixes a frame with the ground station log header.
func LogFrame(ts time.Duration, frame []byte) []byte {
	b := make([]byte, LogPrefixLength+len(frame))
	binary.LittleEndian.PutUint32(b[0:4], uint32(ts/time.Millisecond))
	binary.LittleEndian.PutUint64(b[4:12], uint64(len(frame)))
	copy(b[LogPrefixLength:], frame)
	return b
}

const StatusObject = "GCSTelemetryStats"

// StatusEncoder builds the ground station telemetry status frames used in
// the connection handshake.
type StatusEncoder struct {
	def *uavo.Definition
}

func NewStatusEncoder(coll *uavo.Collection) (*StatusEncoder, error) {
	def := coll.ByName(StatusObject)
	if def == nil {
		return nil, fmt.Errorf("uavtalk: no %s definition", StatusObject)
	}
	return &StatusEncoder{def: def}, nil
}

// EncodeStatus returns a status frame with the rate, failure and retry
// counters zeroed.
func (e *StatusEncoder) EncodeStatus(status uint8) ([]byte, error) {
	return Encode(e.def, 0, map[string]interface{}{
		"TxDataRate": 0,
		"RxDataRate": 0,
		"TxFailures": 0,
		"RxFailures": 0,
		"TxRetries":  0,
		"Status":     status,
	})
}
