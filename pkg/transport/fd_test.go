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

package transport

import (
	goerrors "errors"
	"net"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"taulabs/pkg/errors"
)

func newSocketPair(t *testing.T) (tr *FDTransport, peer int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatal(err)
	}
	if tr, err = NewFDTransport(fds[0], Config{}); err != nil {
		t.Fatal(err)
	}
	peer = fds[1]
	t.Cleanup(func() {
		tr.Close()
		unix.Close(peer)
	})
	return
}

func TestFDReceive(t *testing.T) {
	tr, peer := newSocketPair(t)
	if _, err := unix.Write(peer, []byte("hello")); err != nil {
		t.Fatal(err)
	}
	data, err := tr.Receive(time.Now().Add(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Errorf("received %q", data)
	}
}

func TestFDReceiveDeadline(t *testing.T) {
	tr, _ := newSocketPair(t)
	start := time.Now()
	data, err := tr.Receive(start.Add(50 * time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if data != nil {
		t.Errorf("unexpected data %q", data)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("returned after %s", elapsed)
	}

	// a past deadline is a single zero-wait attempt
	start = time.Now()
	if data, err = tr.Receive(start.Add(-time.Second)); err != nil || data != nil {
		t.Errorf("data=%q err=%v", data, err)
	}
	if elapsed := time.Since(start); elapsed > 20*time.Millisecond {
		t.Errorf("zero-wait receive took %s", elapsed)
	}
}

func TestFDReadChunk(t *testing.T) {
	tr, peer := newSocketPair(t)
	buf := make([]byte, 3000)
	if _, err := unix.Write(peer, buf); err != nil {
		t.Fatal(err)
	}
	total := 0
	for total < len(buf) {
		data, err := tr.Receive(time.Now().Add(time.Second))
		if err != nil {
			t.Fatal(err)
		}
		if len(data) == 0 {
			t.Fatalf("nothing received after %d bytes", total)
		}
		if len(data) > DefaultConfig.ReadChunkSize {
			t.Errorf("received %d bytes in one step", len(data))
		}
		total += len(data)
	}
	if total != len(buf) {
		t.Errorf("received %d bytes", total)
	}
}

func TestFDStreamClosed(t *testing.T) {
	tr, peer := newSocketPair(t)
	unix.Close(peer)
	_, err := tr.Receive(time.Now().Add(time.Second))
	if !goerrors.Is(err, errors.ErrStreamClosed) {
		t.Errorf("expected stream closed, got %v", err)
	}
}

func TestFDSend(t *testing.T) {
	tr, peer := newSocketPair(t)
	if err := tr.Send([]byte("abc")); err != nil {
		t.Fatal(err)
	}
	if err := tr.Flush(time.Now().Add(time.Second)); err != nil {
		t.Fatal(err)
	}
	if tr.Pending() != 0 {
		t.Errorf("%d bytes pending", tr.Pending())
	}
	buf := make([]byte, 16)
	n, err := unix.Read(peer, buf)
	if err != nil {
		t.Fatal(err)
	}
	if string(buf[:n]) != "abc" {
		t.Errorf("peer read %q", buf[:n])
	}
}

func TestFDClose(t *testing.T) {
	tr, _ := newSocketPair(t)
	if tr.Done() {
		t.Error("done before close")
	}
	if err := tr.Close(); err != nil {
		t.Fatal(err)
	}
	if !tr.Done() {
		t.Error("not done after close")
	}
	if err := tr.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
	if _, err := tr.Receive(time.Time{}); !goerrors.Is(err, errors.ErrStreamClosed) {
		t.Errorf("receive after close: %v", err)
	}
	if err := tr.Send([]byte{1}); !goerrors.Is(err, errors.ErrStreamClosed) {
		t.Errorf("send after close: %v", err)
	}
}

func TestDialTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		conn.Write([]byte("uav"))
		conn.Close()
	}()

	tr, err := DialTCP(ln.Addr().String(), Config{})
	if err != nil {
		t.Fatal(err)
	}
	defer tr.Close()

	var got []byte
	for {
		data, err := tr.Receive(time.Now().Add(time.Second))
		if err != nil {
			if !goerrors.Is(err, errors.ErrStreamClosed) {
				t.Fatal(err)
			}
			break
		}
		got = append(got, data...)
	}
	if string(got) != "uav" {
		t.Errorf("received %q", got)
	}
}

func TestDialTCPRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()
	if tr, err := DialTCP(addr, Config{}); err == nil {
		tr.Close()
		t.Error("dial to a closed port succeeded")
	}
}
