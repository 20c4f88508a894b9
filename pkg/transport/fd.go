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
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"taulabs/pkg/errors"
	"taulabs/pkg/logging"
)

// FDTransport is a bidirectional transport over a non-blocking descriptor
// such as a socket or a pipe. All I/O happens inside Receive, Send and
// Flush, so it must only be driven by one goroutine at a time.
type FDTransport struct {
	fd      int
	conf    Config
	recvBuf []byte
	sendBuf []byte
	chunk   []byte
	closed  bool
}

// NewFDTransport takes ownership of fd and switches it to non-blocking mode.
func NewFDTransport(fd int, conf Config) (t *FDTransport, err error) {
	conf.SetDefaultIfNotDefined()
	if err = unix.SetNonblock(fd, true); err != nil {
		err = fmt.Errorf("set nonblock fd %d: %w", fd, err)
		return
	}
	t = &FDTransport{
		fd:    fd,
		conf:  conf,
		chunk: make([]byte, conf.ReadChunkSize),
	}
	return
}

func (t *FDTransport) Fd() int {
	return t.fd
}

func (t *FDTransport) Receive(deadline time.Time) (data []byte, err error) {
	if t.closed {
		return nil, fmt.Errorf("receive: %w", errors.ErrStreamClosed)
	}
	// always do some minimal IO if possible
	if _, err = t.doIO(time.Now()); err != nil {
		return
	}
	for len(t.recvBuf) < 1 {
		var didStuff bool
		if didStuff, err = t.doIO(deadline); err != nil {
			return
		}
		if !didStuff {
			break
		}
	}
	if len(t.recvBuf) < 1 {
		return
	}
	data = t.recvBuf
	t.recvBuf = nil
	return
}

func (t *FDTransport) Send(b []byte) (err error) {
	if t.closed {
		return fmt.Errorf("send: %w", errors.ErrStreamClosed)
	}
	t.sendBuf = append(t.sendBuf, b...)
	_, err = t.doIO(time.Now())
	return
}

// Flush writes queued bytes until the send buffer is empty or the deadline
// passes.
func (t *FDTransport) Flush(deadline time.Time) (err error) {
	for len(t.sendBuf) > 0 && !t.closed {
		var didStuff bool
		if didStuff, err = t.doIO(deadline); err != nil || !didStuff {
			return
		}
	}
	return
}

// Pending returns the number of queued bytes not yet written.
func (t *FDTransport) Pending() int {
	return len(t.sendBuf)
}

func (t *FDTransport) Done() bool {
	return t.closed
}

func (t *FDTransport) Close() (err error) {
	if t.closed {
		return
	}
	t.closed = true
	if len(t.sendBuf) > 0 {
		logging.Debugf("fd %d closed with %d bytes unsent", t.fd, len(t.sendBuf))
	}
	return unix.Close(t.fd)
}

// doIO waits once for the descriptor to become readable (while the receive
// buffer has room) or writable (while there is something to send), then
// performs at most one read and one write.
func (t *FDTransport) doIO(deadline time.Time) (didStuff bool, err error) {
	var events int16
	wantRead := len(t.recvBuf) < t.conf.RecvBufSize
	if wantRead {
		events |= unix.POLLIN
	}
	if len(t.sendBuf) > 0 {
		events |= unix.POLLOUT
	}

	timeout := -1
	if !deadline.IsZero() {
		tm := time.Until(deadline)
		if tm < 0 {
			tm = 0
		}
		timeout = int((tm + time.Millisecond - 1) / time.Millisecond)
	}

	fds := []unix.PollFd{{Fd: int32(t.fd), Events: events}}
	var n int
	if n, err = unix.Poll(fds, timeout); err != nil {
		if err == unix.EINTR {
			err = nil
			return
		}
		err = fmt.Errorf("poll fd %d: %w", t.fd, err)
		return
	}
	if n == 0 {
		return
	}
	revents := fds[0].Revents
	if revents&unix.POLLNVAL != 0 {
		err = fmt.Errorf("fd %d invalid: %w", t.fd, errors.ErrStreamClosed)
		return
	}

	if wantRead && revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
		// the descriptor was reported readable, so a zero-length read
		// means the other end is gone
		n, err = unix.Read(t.fd, t.chunk)
		switch {
		case err == unix.EAGAIN || err == unix.EINTR:
			err = nil
		case err != nil:
			err = fmt.Errorf("read fd %d: %w", t.fd, err)
			return
		case n == 0:
			err = fmt.Errorf("fd %d: %w", t.fd, errors.ErrStreamClosed)
			return
		default:
			t.recvBuf = append(t.recvBuf, t.chunk[:n]...)
			didStuff = true
		}
	}

	if len(t.sendBuf) > 0 && revents&unix.POLLOUT != 0 {
		n, err = unix.Write(t.fd, t.sendBuf)
		if err == unix.EAGAIN || err == unix.EINTR {
			err = nil
		} else if err != nil {
			err = fmt.Errorf("write fd %d: %w", t.fd, err)
			return
		}
		if n > 0 {
			t.sendBuf = t.sendBuf[n:]
		}
		didStuff = true
	}
	return
}
