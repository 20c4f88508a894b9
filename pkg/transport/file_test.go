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
	"bytes"
	goerrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang/snappy"
	"github.com/google/go-cmp/cmp"

	"taulabs/pkg/errors"
)

const testHeader = "Tau Labs git hash:\n" +
	"Next:3f2a9c1 2014-05-01\n" +
	"0123456789abcdef\n" +
	"-------------------------------------------------\n"

func payload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func drain(t *testing.T, tr Transport) (data []byte, calls int) {
	t.Helper()
	for !tr.Done() {
		chunk, err := tr.Receive(time.Time{})
		if err != nil {
			t.Fatal(err)
		}
		calls++
		data = append(data, chunk...)
		if calls > 1000 {
			t.Fatal("transport never finished")
		}
	}
	return
}

func TestReadHeader(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect *Header
		bad    bool
	}{
		{
			name:   "colon",
			input:  testHeader,
			expect: &Header{GitHash: "3f2a9c1", UAVOHash: "0123456789abcdef"},
		},
		{
			name:   "plain",
			input:  "Tau Labs git hash:\n3f2a9c1\nabc\n---\n",
			expect: &Header{GitHash: "3f2a9c1", UAVOHash: "abc"},
		},
		{
			name:  "signature",
			input: "OpenPilot git hash:\n3f2a9c1\nabc\n---\n",
			bad:   true,
		},
		{
			name:  "short",
			input: "Tau Labs git hash:\n3f2a9c1\n",
			bad:   true,
		},
		{
			name:  "empty",
			input: "",
			bad:   true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h, err := ReadHeader(bufio.NewReader(strings.NewReader(tc.input)))
			if tc.bad {
				if !goerrors.Is(err, errors.ErrBadHeader) {
					t.Errorf("expected bad header, got %v", err)
				}
				if !errors.IsConfigError(err) {
					t.Error("bad header is a configuration error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tc.expect, h); diff != "" {
				t.Errorf("header mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFileTransport(t *testing.T) {
	data := payload(300)
	path := filepath.Join(t.TempDir(), "flight.uav")
	if err := os.WriteFile(path, append([]byte(testHeader), data...), 0644); err != nil {
		t.Fatal(err)
	}
	tr, err := OpenReplay(path, true, Config{})
	if err != nil {
		t.Fatal(err)
	}
	defer tr.Close()
	if tr.Header() == nil || tr.Header().GitHash != "3f2a9c1" {
		t.Errorf("header %+v", tr.Header())
	}
	if err := tr.Send([]byte{1, 2, 3}); err != nil {
		t.Errorf("send on a replay: %v", err)
	}

	got, calls := drain(t, tr)
	if !bytes.Equal(got, data) {
		t.Errorf("replayed %d bytes, want %d", len(got), len(data))
	}
	// 128 + 128 + 44 + the empty read
	if calls != 4 {
		t.Errorf("%d receive calls", calls)
	}
}

func TestFileTransportNoHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.uav")
	if err := os.WriteFile(path, []byte(testHeader), 0644); err != nil {
		t.Fatal(err)
	}
	tr, err := OpenFile(path, Config{FileChunkSize: 16})
	if err != nil {
		t.Fatal(err)
	}
	defer tr.Close()
	if tr.Header() != nil {
		t.Error("header parsed")
	}
	got, _ := drain(t, tr)
	if string(got) != testHeader {
		t.Errorf("read %q", got)
	}
}

func TestOpenReplayBadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.uav")
	if err := os.WriteFile(path, []byte("garbage\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenReplay(path, true, Config{}); !goerrors.Is(err, errors.ErrBadHeader) {
		t.Errorf("expected bad header, got %v", err)
	}
}

func TestSnappyReplay(t *testing.T) {
	data := payload(1000)
	path := filepath.Join(t.TempDir(), "flight.uav"+CompressedSuffix)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := snappy.NewBufferedWriter(f)
	w.Write([]byte(testHeader))
	w.Write(data)
	if err = w.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	tr, err := OpenReplay(path, true, Config{})
	if err != nil {
		t.Fatal(err)
	}
	defer tr.Close()
	if tr.Header().UAVOHash != "0123456789abcdef" {
		t.Errorf("header %+v", tr.Header())
	}
	got, _ := drain(t, tr)
	if !bytes.Equal(got, data) {
		t.Errorf("replayed %d bytes, want %d", len(got), len(data))
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := OpenFile(filepath.Join(t.TempDir(), "none"), Config{}); err == nil {
		t.Error("opened a missing file")
	}
}
