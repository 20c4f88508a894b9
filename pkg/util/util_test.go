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

package util

import (
	"testing"
	"time"

	"github.com/BurntSushi/toml"
)

func TestDurationToml(t *testing.T) {
	var conf struct {
		Timeout Duration
	}
	if _, err := toml.Decode(`Timeout = "250ms"`, &conf); err != nil {
		t.Fatal(err)
	}
	if conf.Timeout.Duration != 250*time.Millisecond {
		t.Errorf("got %s", conf.Timeout.Duration)
	}
	text, err := conf.Timeout.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	if string(text) != "250ms" {
		t.Errorf("marshal %q", text)
	}
}

func TestMurmur3HexString(t *testing.T) {
	a := Murmur3HexString([]byte("FlightTelemetryStats"))
	b := Murmur3HexString([]byte("FlightTelemetryStats"))
	c := Murmur3HexString([]byte("GCSTelemetryStats"))
	if len(a) != 32 {
		t.Errorf("length %d", len(a))
	}
	if a != b {
		t.Error("digest not deterministic")
	}
	if a == c {
		t.Error("distinct inputs share a digest")
	}
}

func TestNewSessionId(t *testing.T) {
	if NewSessionId() == NewSessionId() {
		t.Error("session ids repeat")
	}
}
