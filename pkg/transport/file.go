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
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/golang/snappy"
)

const CompressedSuffix = ".sz"

// FileTransport replays a recorded log. It is read-only and reads block.
type FileTransport struct {
	closer io.Closer
	r      *bufio.Reader
	chunk  int
	header *Header
	done   bool
}

// NewFileTransport wraps an already opened reader. The caller keeps
// ownership of r unless it also implements io.Closer.
func NewFileTransport(r io.Reader, conf Config) *FileTransport {
	conf.SetDefaultIfNotDefined()
	t := &FileTransport{
		chunk: conf.FileChunkSize,
	}
	if c, ok := r.(io.Closer); ok {
		t.closer = c
	}
	if br, ok := r.(*bufio.Reader); ok {
		t.r = br
	} else {
		t.r = bufio.NewReader(r)
	}
	return t
}

// OpenFile opens a log file without header parsing.
func OpenFile(path string, conf Config) (*FileTransport, error) {
	return OpenReplay(path, false, conf)
}

// OpenReplay opens a log file, transparently decompressing snappy streams,
// and optionally consumes the four line header in front of the frames.
func OpenReplay(path string, parseHeader bool, conf Config) (t *FileTransport, err error) {
	var f *os.File
	if f, err = os.Open(path); err != nil {
		return
	}
	var src io.Reader = f
	if conf.Compressed || strings.HasSuffix(path, CompressedSuffix) {
		src = snappy.NewReader(f)
	}
	t = NewFileTransport(src, conf)
	t.closer = f
	if parseHeader {
		if t.header, err = ReadHeader(t.r); err != nil {
			f.Close()
			t = nil
			err = fmt.Errorf("%s: %w", path, err)
			return
		}
	}
	glog.Infof("replaying %s", path)
	return
}

// Header returns the parsed log header, or nil when none was parsed.
func (t *FileTransport) Header() *Header {
	return t.header
}

// Receive ignores the deadline. An empty read marks the end of the log.
func (t *FileTransport) Receive(_ time.Time) ([]byte, error) {
	if t.done {
		return nil, nil
	}
	buf := make([]byte, t.chunk)
	n, err := io.ReadFull(t.r, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		err = nil
	}
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	if n == 0 {
		t.done = true
		return nil, nil
	}
	return buf[:n], nil
}

func (t *FileTransport) Send(_ []byte) error {
	return nil
}

func (t *FileTransport) Done() bool {
	return t.done
}

func (t *FileTransport) Close() (err error) {
	t.done = true
	if t.closer != nil {
		err = t.closer.Close()
		t.closer = nil
	}
	return
}

var _ Transport = (*FileTransport)(nil)
var _ Transport = (*FDTransport)(nil)
