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

	"github.com/golang/glog"

	"taulabs/pkg/transport"
	"taulabs/pkg/uavo"
	"taulabs/pkg/uavtalk"
	"taulabs/pkg/util"
)

// DialNetwork connects to a flight controller or simulator over TCP. The
// session is self-driven, iteration blocks, and the handshake is answered.
func DialNetwork(addr string, coll *uavo.Collection, conf transport.Config, opts ...Option) (s *Session, err error) {
	var enc *uavtalk.StatusEncoder
	if enc, err = uavtalk.NewStatusEncoder(coll); err != nil {
		return
	}
	var t *transport.FDTransport
	if t, err = transport.DialTCP(addr, conf); err != nil {
		return
	}
	dec := uavtalk.NewDecoder(coll, uavtalk.DecoderConfig{UseWalltime: true})
	sconf := Config{
		ServiceInIter: true,
		IterBlocks:    true,
		Handshaking:   true,
	}
	opts = append([]Option{WithStatusEncoder(enc)}, opts...)
	if s, err = NewSession(t, dec, sconf, opts...); err != nil {
		t.Close()
		return
	}
	glog.Infof("session %s connected to %s", s.ID(), addr)
	return
}

type FileOptions struct {
	// overrides the header; the header is not parsed when set
	GitHash string
	// used as is when set, otherwise resolved through Repository
	Collection *uavo.Collection
	Repository uavo.Repository
	// frames carry ground station timestamps
	GCSTimestamps  bool
	Transport      transport.Config
	ServiceTimeout util.Duration
}

// OpenFile replays a recorded log. The session is thread-driven and its
// service goroutine is already running when OpenFile returns.
func OpenFile(path string, opts FileOptions) (s *Session, err error) {
	parseHeader := opts.GitHash == ""
	var t *transport.FileTransport
	if t, err = transport.OpenReplay(path, parseHeader, opts.Transport); err != nil {
		return
	}
	githash := opts.GitHash
	if h := t.Header(); h != nil {
		githash = h.GitHash
	}

	coll := opts.Collection
	if coll == nil {
		if coll, err = opts.Repository.Load(githash); err != nil {
			t.Close()
			err = fmt.Errorf("definitions for %q: %w", githash, err)
			return
		}
	}

	dec := uavtalk.NewDecoder(coll, uavtalk.DecoderConfig{GCSTimestamps: opts.GCSTimestamps})
	sconf := Config{
		IterBlocks:     true,
		ServiceTimeout: opts.ServiceTimeout,
	}
	if s, err = NewSession(t, dec, sconf); err != nil {
		t.Close()
		return
	}
	if err = s.Start(); err != nil {
		s.Close()
		s = nil
	}
	return
}
