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

	"taulabs/pkg/logging"
	"taulabs/pkg/uavo"
)

type (
	DecoderConfig struct {
		// frames are prefixed with ground station timestamps
		GCSTimestamps bool
		// stamp records with the wall clock instead of in-frame timestamps
		UseWalltime bool
	}

	DecoderStats struct {
		Frames      uint64
		Records     uint64
		CRCErrors   uint64
		SyncErrors  uint64
		UnknownObjs uint64
		Skipped     uint64
	}

	// Decoder turns a byte stream into records. It buffers partial frames
	// between calls to Feed.
	Decoder struct {
		coll  *uavo.Collection
		conf  DecoderConfig
		buf   []byte
		stats DecoderStats
		now   func() time.Time
	}
)

func NewDecoder(coll *uavo.Collection, conf DecoderConfig) *Decoder {
	return &Decoder{
		coll: coll,
		conf: conf,
		now:  time.Now,
	}
}

func (d *Decoder) Stats() DecoderStats {
	return d.stats
}

// Buffered returns the number of bytes waiting for the rest of a frame.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Feed appends chunk to the decoder and returns the next complete record,
// or nil when no complete frame is buffered. Feed(nil) drains records left
// over from earlier chunks.
func (d *Decoder) Feed(chunk []byte) (rec *uavo.Record, err error) {
	if len(chunk) != 0 {
		d.buf = append(d.buf, chunk...)
	}
	for {
		var consumed int
		var ok bool
		if d.conf.GCSTimestamps {
			rec, consumed, ok, err = d.nextLogged()
		} else {
			rec, consumed, ok = d.nextFrame(d.buf, time.Time{})
		}
		if consumed > 0 {
			d.consume(consumed)
		}
		if err != nil || !ok || rec != nil {
			return
		}
	}
}

func (d *Decoder) consume(n int) {
	rest := copy(d.buf, d.buf[n:])
	d.buf = d.buf[:rest]
}

// nextLogged handles one frame of the ground station log format.
func (d *Decoder) nextLogged() (rec *uavo.Record, consumed int, ok bool, err error) {
	if len(d.buf) < LogPrefixLength {
		return
	}
	ms := binary.LittleEndian.Uint32(d.buf[0:4])
	size := binary.LittleEndian.Uint64(d.buf[4:12])
	if size > MaxFrameSize {
		err = fmt.Errorf("uavtalk: log frame size %d exceeds %d", size, MaxFrameSize)
		return
	}
	total := LogPrefixLength + int(size)
	if len(d.buf) < total {
		return
	}
	ts := time.UnixMilli(int64(ms))
	rec, _, _ = d.nextFrame(d.buf[LogPrefixLength:total], ts)
	return rec, total, true, nil
}

// nextFrame parses at most one frame from buf. It reports ok=false when buf
// holds only part of a frame.
func (d *Decoder) nextFrame(buf []byte, ts time.Time) (rec *uavo.Record, consumed int, ok bool) {
	for consumed < len(buf) && buf[consumed] != SyncVal {
		consumed++
		d.stats.SyncErrors++
	}
	frame := buf[consumed:]
	if len(frame) < 4 {
		return
	}
	typ := frame[1]
	length := int(binary.LittleEndian.Uint16(frame[2:4]))
	hdrLen := HeaderLength
	if typ&TimestampOn != 0 {
		hdrLen += TimestampLength
	}
	if typ&TypeMask != TypeVer || length < hdrLen || length > hdrLen+MaxPayload {
		d.stats.SyncErrors++
		return nil, consumed + 1, true
	}
	if len(frame) < length+1 {
		return
	}
	if CRC8(frame[:length]) != frame[length] {
		logging.Debugf("uavtalk: crc mismatch type=%02x len=%d", typ, length)
		d.stats.CRCErrors++
		return nil, consumed + 1, true
	}
	consumed += length + 1
	ok = true
	d.stats.Frames++

	objID := binary.LittleEndian.Uint32(frame[4:8])
	instID := binary.LittleEndian.Uint16(frame[8:10])
	if typ&TimestampOn != 0 && ts.IsZero() && !d.conf.UseWalltime {
		ts = time.UnixMilli(int64(binary.LittleEndian.Uint16(frame[10:12])))
	}
	if !hasData(typ) {
		d.stats.Skipped++
		return
	}
	def := d.coll.ByID(objID)
	if def == nil {
		d.stats.UnknownObjs++
		logging.Verbosef("uavtalk: unknown object %08x", objID)
		return
	}
	fields, err := def.Decode(frame[hdrLen:length])
	if err != nil {
		d.stats.Skipped++
		logging.Debugf("uavtalk: %s", err)
		return
	}
	if ts.IsZero() {
		ts = d.now()
	}
	d.stats.Records++
	rec = &uavo.Record{
		Name:   def.Name,
		ObjID:  objID,
		InstID: instID,
		Time:   ts,
		Fields: fields,
	}
	return
}
