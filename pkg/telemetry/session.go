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
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"taulabs/pkg/errors"
	"taulabs/pkg/logging"
	"taulabs/pkg/logging/otel"
	"taulabs/pkg/stats"
	"taulabs/pkg/transport"
	"taulabs/pkg/uavo"
	"taulabs/pkg/util"
)

// Codec turns raw bytes into records. Feed appends chunk to the codec's
// buffer and returns the next complete record, or nil when none is
// buffered. Feed(nil) drains records left over from earlier chunks.
type Codec interface {
	Feed(chunk []byte) (*uavo.Record, error)
}

type Option func(s *Session)

func WithStatusEncoder(enc StatusEncoder) Option {
	return func(s *Session) {
		s.enc = enc
	}
}

func WithInstruments(in *otel.Instruments) Option {
	return func(s *Session) {
		s.instruments = in
	}
}

// Session owns one transport, one codec and the record store fed from
// them. Only one goroutine performs I/O at any time: either consumers
// while iterating (ServiceInIter) or the goroutine started by Start.
type Session struct {
	id          string
	conf        Config
	transport   transport.Transport
	codec       Codec
	store       *Store
	handshake   *Handshake
	enc         StatusEncoder
	instruments *otel.Instruments
	metrics     *otel.SessionMetrics
	stats       *stats.ServiceStat

	serviceMtx sync.Mutex

	startMtx sync.Mutex
	started  bool
	closed   bool
	closing  atomic.Bool
	wg       sync.WaitGroup
}

func NewSession(t transport.Transport, codec Codec, conf Config, opts ...Option) (s *Session, err error) {
	conf.SetDefaultIfNotDefined()
	s = &Session{
		id:        util.NewSessionId(),
		conf:      conf,
		transport: t,
		codec:     codec,
		store:     NewStore(),
		stats:     stats.NewServiceStat(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if conf.Handshaking {
		if s.enc == nil {
			return nil, errors.ErrNoStatusEncoder
		}
		s.handshake = &Handshake{}
	}
	if s.instruments == nil {
		s.instruments = otel.Default()
	}
	s.metrics = s.instruments.ForSession(s.id)
	if logging.LOG_DEBUG {
		b := logging.NewKVBufferForLog().AddSession(s.id)
		b.Add("selfDriven", fmt.Sprint(conf.ServiceInIter)).Add("handshaking", fmt.Sprint(conf.Handshaking))
		glog.InfoDepth(1, "new session ", b.String())
	}
	return
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Config() Config {
	return s.conf
}

// Latest returns a snapshot of the latest record of each object type.
func (s *Session) Latest() map[string]*uavo.Record {
	return s.store.Latest()
}

func (s *Session) Len() int {
	return s.store.Len()
}

func (s *Session) At(i int) *uavo.Record {
	return s.store.At(i)
}

func (s *Session) Stats() stats.StatsData {
	return s.stats.GetStats()
}

// LinkStatus returns the last status the flight side reported. ok is false
// for sessions without handshaking or before the first status record.
func (s *Session) LinkStatus() (st LinkStatus, ok bool) {
	if s.handshake == nil {
		return
	}
	return s.handshake.State()
}

// Done reports whether the stream ended.
func (s *Session) Done() bool {
	done, _ := s.store.Done()
	return done
}

// Wait blocks until the stream ends and returns the fatal error, if any.
func (s *Session) Wait() error {
	return s.store.Wait()
}

// Service performs one service step: receive what the transport has before
// the timeout (a negative timeout waits indefinitely), decode every
// complete record and append them as one batch. Errors are fatal and end
// the stream.
func (s *Session) Service(timeout time.Duration) (err error) {
	s.serviceMtx.Lock()
	defer s.serviceMtx.Unlock()

	if done, ferr := s.store.Done(); done {
		return ferr
	}

	var deadline time.Time
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
	}
	timeStart := time.Now()

	var data []byte
	if data, err = s.transport.Receive(deadline); err != nil {
		s.fail(err, "transport")
		return
	}

	recs, err := s.decode(data)
	s.store.Append(recs)

	if len(data) != 0 || err != nil {
		elapsed := time.Since(timeStart)
		s.stats.Put(elapsed, len(recs), len(data), err)
		s.metrics.RecordServiceStep(len(recs), len(data), elapsed)
		if logging.LOG_VERBOSE {
			b := logging.NewKVBufferForLog().AddSession(s.id).AddBytes(len(data)).AddRecords(len(recs))
			glog.Info("service ", b.String())
		}
	}
	if err != nil {
		s.fail(err, "decode")
		return
	}

	if s.transport.Done() {
		glog.Infof("session %s stream ended after %d records", s.id, s.store.Len())
		s.store.finish(nil)
	}
	return
}

func (s *Session) decode(data []byte) (recs []*uavo.Record, err error) {
	chunk := data
	for {
		var rec *uavo.Record
		rec, err = s.codec.Feed(chunk)
		chunk = nil
		if err != nil || rec == nil {
			return
		}
		if s.handshake != nil {
			if err = s.react(rec); err != nil {
				return
			}
		}
		recs = append(recs, rec)
	}
}

// react replies to a flight status record inline, one send per record.
func (s *Session) react(rec *uavo.Record) error {
	out, send := s.handshake.React(rec)
	if !send {
		return nil
	}
	in, _ := s.handshake.State()
	frame, err := s.enc.EncodeStatus(uint8(out))
	if err != nil {
		return err
	}
	if in != out || logging.LOG_DEBUG {
		b := logging.NewKVBufferForLog().AddSession(s.id).Add("in", in.String()).AddStatus(out.String())
		glog.Info("handshake ", b.String())
	}
	s.metrics.RecordHandshake(in.String(), out.String())
	return s.transport.Send(frame)
}

func (s *Session) fail(err error, kind string) {
	b := logging.NewKVBufferForLog().AddSession(s.id).Add("kind", kind).AddError(err)
	glog.Errorf("session failed %s", b.String())
	s.metrics.RecordError(kind)
	s.store.finish(err)
}

// Start runs the service loop in a background goroutine until the
// transport is done, a service step fails or the session is closed.
func (s *Session) Start() error {
	s.startMtx.Lock()
	defer s.startMtx.Unlock()

	if s.conf.ServiceInIter {
		return errors.ErrSelfDriven
	}
	if s.started {
		return errors.ErrAlreadyStarted
	}
	if s.closed || s.Done() {
		return errors.ErrExhausted
	}
	s.started = true
	s.wg.Add(1)
	go s.serviceLoop()
	return nil
}

func (s *Session) serviceLoop() {
	defer s.wg.Done()
	timeout := s.conf.ServiceTimeout.Duration
	for !s.closing.Load() {
		if err := s.Service(timeout); err != nil {
			return
		}
		if s.Done() {
			return
		}
	}
	logging.Debugf("session %s service loop stopped", s.id)
}

// Close stops the background loop, closes the transport and wakes every
// blocked consumer. It waits for a service step in progress to return.
func (s *Session) Close() (err error) {
	s.startMtx.Lock()
	if s.closed {
		s.startMtx.Unlock()
		return
	}
	s.closed = true
	s.startMtx.Unlock()

	s.closing.Store(true)
	s.wg.Wait()

	s.serviceMtx.Lock()
	err = s.transport.Close()
	s.serviceMtx.Unlock()

	s.store.finish(nil)
	logging.Debugf("session %s closed", s.id)
	return
}
