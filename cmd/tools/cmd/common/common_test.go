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

package common

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/go-cmp/cmp"

	"taulabs/pkg/uavo"
)

func attitude(roll float64) *uavo.Record {
	return &uavo.Record{
		Name:  "AttitudeActual",
		ObjID: 0x33dad5e6,
		Time:  time.Date(2014, 5, 1, 12, 0, 0, 0, time.UTC),
		Fields: []uavo.Field{
			{Name: "Roll", Value: roll},
			{Name: "Pitch", Value: float64(0)},
			{Name: "Yaw", Value: float64(90)},
		},
	}
}

func status(st uint64) *uavo.Record {
	return &uavo.Record{
		Name:   "FlightTelemetryStats",
		Fields: []uavo.Field{{Name: "Status", Value: st}},
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		src    string
		expect []bool // attitude(5), attitude(20), status(3)
	}{
		{"", []bool{true, true, true}},
		{`name == "AttitudeActual"`, []bool{true, true, false}},
		{`name == "AttitudeActual" && Roll > 10`, []bool{false, true, false}},
		{`Status == 3`, []bool{false, false, true}},
		{`Roll > 10`, []bool{false, true, false}},
		{`objid == 0x33dad5e6 || Status >= 2`, []bool{true, true, true}},
	}
	recs := []*uavo.Record{attitude(5), attitude(20), status(3)}
	for _, tc := range tests {
		f, err := NewFilter(tc.src)
		if err != nil {
			t.Fatalf("%q: %s", tc.src, err)
		}
		var got []bool
		for _, rec := range recs {
			got = append(got, f.Match(rec))
		}
		if diff := cmp.Diff(tc.expect, got); diff != "" {
			t.Errorf("%q (-want +got):\n%s", tc.src, diff)
		}
	}
}

func TestFilterCompileError(t *testing.T) {
	if _, err := NewFilter(`Roll >`); err == nil {
		t.Error("invalid expression compiled")
	}
	if _, err := NewFilter(`1 + 2`); err == nil {
		t.Error("non-boolean expression compiled")
	}
}

func TestPrinterText(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewPrinter(&buf, "text")
	if err != nil {
		t.Fatal(err)
	}
	if err = p.Print(attitude(5)); err != nil {
		t.Fatal(err)
	}
	want := "12:00:00.000 AttitudeActual Roll=5, Pitch=0, Yaw=90\n"
	if buf.String() != want {
		t.Errorf("got %q want %q", buf.String(), want)
	}
}

func TestPrinterYaml(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewPrinter(&buf, "YAML")
	if err != nil {
		t.Fatal(err)
	}
	err = p.PrintLatest(map[string]*uavo.Record{
		"FlightTelemetryStats": status(3),
		"AttitudeActual":       attitude(5),
	})
	if err != nil {
		t.Fatal(err)
	}
	docs := strings.Split(strings.TrimPrefix(buf.String(), "---\n"), "---\n")
	if len(docs) != 2 {
		t.Fatalf("%d documents:\n%s", len(docs), buf.String())
	}
	var first struct {
		Name   string
		ObjID  string `yaml:"objid"`
		Fields map[string]float64
	}
	if err = yaml.Unmarshal([]byte(docs[0]), &first); err != nil {
		t.Fatal(err)
	}
	if first.Name != "AttitudeActual" || first.ObjID != "33dad5e6" || first.Fields["Yaw"] != 90 {
		t.Errorf("first document %+v", first)
	}
	if !strings.Contains(docs[1], "Status: 3") {
		t.Errorf("second document %q", docs[1])
	}

	if _, err = NewPrinter(&buf, "xml"); err == nil {
		t.Error("unknown format accepted")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uavcli.toml")
	content := `
Definitions = "defs"
Address = "10.0.0.2:9000"

[Transport]
ConnectTimeout = "2s"
FileChunkSize = 512

[Session]
ServiceTimeout = "100ms"

[Otel]
Enabled = false
Port = 4319
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	var conf Config
	if err := LoadConfig(path, &conf); err != nil {
		t.Fatal(err)
	}
	if conf.Definitions != "defs" || conf.Address != "10.0.0.2:9000" || conf.RepositoryRoot != "." {
		t.Errorf("config %+v", conf)
	}
	if conf.Transport.ConnectTimeout.Duration != 2*time.Second || conf.Transport.FileChunkSize != 512 || conf.Transport.RecvBufSize != 1024 {
		t.Errorf("transport %+v", conf.Transport)
	}
	if conf.Session.ServiceTimeout.Duration != 100*time.Millisecond || !conf.Session.IterBlocks {
		t.Errorf("session %+v", conf.Session)
	}
	if conf.Otel.Port != 4319 || conf.Otel.Host != "127.0.0.1" {
		t.Errorf("otel %+v", conf.Otel)
	}

	if err := LoadConfig(filepath.Join(t.TempDir(), "none.toml"), &conf); err == nil {
		t.Error("missing config file accepted")
	}
}
