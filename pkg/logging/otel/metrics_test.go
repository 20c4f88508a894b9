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

package otel

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	otelCfg "taulabs/pkg/logging/otel/config"
)

func collect(t *testing.T, reader sdkmetric.Reader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestSessionMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	in, err := NewInstruments(provider.Meter(MeterName))
	if err != nil {
		t.Fatal(err)
	}

	m := in.ForSession("s1")
	m.RecordServiceStep(3, 90, 2*time.Millisecond)
	m.RecordServiceStep(2, 40, 4*time.Millisecond)
	m.RecordHandshake("Disconnected", "HandshakeReq")
	m.RecordError("stream")
	in.ForSession("s2").RecordServiceStep(1, 10, time.Millisecond)

	metrics := collect(t, reader)

	records, ok := metrics[PopulateMetricNamePrefix(kRecords)].Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("records metric missing: %+v", metrics)
	}
	perSession := map[string]int64{}
	for _, dp := range records.DataPoints {
		sid, _ := dp.Attributes.Value(attribute.Key(Session))
		perSession[sid.AsString()] = dp.Value
	}
	if perSession["s1"] != 5 || perSession["s2"] != 1 {
		t.Errorf("records per session %v", perSession)
	}

	latency, ok := metrics[PopulateMetricNamePrefix(kServiceLatency)].Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("latency metric missing")
	}
	var steps uint64
	for _, dp := range latency.DataPoints {
		steps += dp.Count
	}
	if steps != 3 {
		t.Errorf("%d latency samples", steps)
	}

	handshake, ok := metrics[PopulateMetricNamePrefix(kHandshake)].Data.(metricdata.Sum[int64])
	if !ok || len(handshake.DataPoints) != 1 {
		t.Fatal("handshake metric missing")
	}
	dp := handshake.DataPoints[0]
	if v, _ := dp.Attributes.Value(attribute.Key(Outbound)); v.AsString() != "HandshakeReq" {
		t.Errorf("outbound attribute %q", v.AsString())
	}
	if _, ok := metrics[PopulateMetricNamePrefix(kErrors)]; !ok {
		t.Error("errors metric missing")
	}
}

func TestDefaultInstrumentsNoop(t *testing.T) {
	// without a provider the global meter drops everything
	m := Default().ForSession("noop")
	m.RecordServiceStep(1, 1, time.Millisecond)
	m.RecordHandshake("Connected", "Connected")
	if IsEnabled() {
		t.Error("provider enabled without Initialize")
	}
}

func TestInitializeDisabled(t *testing.T) {
	if err := Initialize(&otelCfg.Config{}); err != nil {
		t.Fatal(err)
	}
	if IsEnabled() {
		t.Error("disabled config installed a provider")
	}
	if err := Initialize("bad"); err == nil {
		t.Error("wrong argument accepted")
	}
}

func TestExportToCollector(t *testing.T) {
	mc := runMockCollector(t)
	defer mc.MustStop(t)

	host, portStr, _ := net.SplitHostPort(mc.endpoint)
	port, _ := strconv.Atoi(portStr)
	cfg := otelCfg.Config{
		Host:       host,
		Port:       uint32(port),
		Enabled:    true,
		Resolution: 3600,
	}
	ctx := context.Background()
	provider, err := NewMeterProvider(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	in, err := NewInstruments(provider.Meter(MeterName))
	if err != nil {
		t.Fatal(err)
	}
	in.ForSession("export").RecordServiceStep(4, 100, 3*time.Millisecond)

	flushCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err = provider.ForceFlush(flushCtx); err != nil {
		t.Fatal(err)
	}

	found := false
	for _, m := range mc.GetMetrics() {
		if m.GetName() != PopulateMetricNamePrefix(kRecords) {
			continue
		}
		for _, dp := range m.GetSum().GetDataPoints() {
			if dp.GetAsInt() == 4 {
				found = true
			}
		}
	}
	if !found {
		t.Errorf("records not exported, got %d metrics", len(mc.GetMetrics()))
	}
	provider.Shutdown(flushCtx)
}
