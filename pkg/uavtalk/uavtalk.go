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

// Package uavtalk implements the UAVTalk framing used between the flight
// controller and the ground station.
package uavtalk

const (
	SyncVal byte = 0x3C

	TypeMask    byte = 0x78
	TypeVer     byte = 0x20
	TypeObj     byte = TypeVer | 0x00
	TypeObjReq  byte = TypeVer | 0x01
	TypeObjAck  byte = TypeVer | 0x02
	TypeAck     byte = TypeVer | 0x03
	TypeNack    byte = TypeVer | 0x04
	TimestampOn byte = 0x80

	// sync, type, length (2), object id (4), instance id (2)
	HeaderLength = 10
	// timestamped frames append a 16-bit millisecond counter
	TimestampLength = 2
	MaxPayload      = 255
	MaxFrameSize    = HeaderLength + TimestampLength + MaxPayload + 1

	// ground station logs prefix every frame with a u32 timestamp and a
	// u64 frame size
	LogPrefixLength = 12
)

var crcTable [256]byte

func init() {
	for i := 0; i < 256; i++ {
		crc := byte(i)
		for j := 0; j < 8; j++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x07
			} else {
				crc <<= 1
			}
		}
		crcTable[i] = crc
	}
}

// CRC8 computes the frame checksum (polynomial 0x07, initial value 0).
func CRC8(data []byte) (crc byte) {
	for _, b := range data {
		crc = crcTable[crc^b]
	}
	return
}

func hasData(typ byte) bool {
	t := typ &^ TimestampOn
	return t == TypeObj || t == TypeObjAck
}
