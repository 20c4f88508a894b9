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
	"net"
	"time"

	"github.com/golang/glog"
	"golang.org/x/sys/unix"

	"taulabs/pkg/logging"
)

// DialTCP connects to addr and returns a descriptor transport owning the
// socket.
func DialTCP(addr string, conf Config) (t *FDTransport, err error) {
	conf.SetDefaultIfNotDefined()
	timeStart := time.Now()

	var tcpAddr *net.TCPAddr
	if tcpAddr, err = net.ResolveTCPAddr("tcp", addr); err != nil {
		return
	}
	ip := tcpAddr.IP
	if ip == nil {
		ip = net.IPv4(127, 0, 0, 1)
	}

	var sa unix.Sockaddr
	domain := unix.AF_INET
	if ip4 := ip.To4(); ip4 != nil {
		s4 := &unix.SockaddrInet4{Port: tcpAddr.Port}
		copy(s4.Addr[:], ip4)
		sa = s4
	} else {
		domain = unix.AF_INET6
		s6 := &unix.SockaddrInet6{Port: tcpAddr.Port}
		copy(s6.Addr[:], ip.To16())
		sa = s6
	}

	var fd int
	if fd, err = unix.Socket(domain, unix.SOCK_STREAM, 0); err != nil {
		err = fmt.Errorf("socket: %w", err)
		return
	}
	unix.CloseOnExec(fd)
	if err = connect(fd, sa, conf.ConnectTimeout.Duration); err != nil {
		unix.Close(fd)
		glog.Errorf("fail to connect %s error: %s", addr, err)
		return
	}
	if t, err = NewFDTransport(fd, conf); err != nil {
		unix.Close(fd)
		return
	}
	logging.Debugf("connected to %s fd=%d in %s", addr, fd, time.Since(timeStart))
	return
}

func connect(fd int, sa unix.Sockaddr, timeout time.Duration) (err error) {
	if err = unix.SetNonblock(fd, true); err != nil {
		return
	}
	err = unix.Connect(fd, sa)
	if err == nil {
		return
	}
	if err != unix.EINPROGRESS && err != unix.EINTR {
		return
	}
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLOUT}}
	deadline := time.Now().Add(timeout)
	for {
		ms := int(time.Until(deadline) / time.Millisecond)
		if ms <= 0 {
			return fmt.Errorf("connect timeout after %s", timeout)
		}
		var n int
		if n, err = unix.Poll(fds, ms); err == unix.EINTR {
			continue
		} else if err != nil {
			return
		}
		if n > 0 {
			break
		}
	}
	var soerr int
	if soerr, err = unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR); err != nil {
		return
	}
	if soerr != 0 {
		return unix.Errno(soerr)
	}
	return nil
}
