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
	"sync"
	"time"

	"github.com/golang/glog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const METRIC_PREFIX = "uav.session."

const (
	kRecords        = "records"
	kBytes          = "bytes"
	kServiceLatency = "service_latency"
	kHandshake      = "handshake"
	kErrors         = "errors"
)

// attribute keys
const (
	Session  = string("session")
	Inbound  = string("inbound")
	Outbound = string("outbound")
	Kind     = string("kind")
)

var (
	instrumentsOnce    sync.Once
	defaultInstruments *Instruments
)

// Instruments holds the session instruments created from one meter.
type Instruments struct {
	records   metric.Int64Counter
	bytes     metric.Int64Counter
	latency   metric.Float64Histogram
	handshake metric.Int64Counter
	errors    metric.Int64Counter
}

func NewInstruments(meter metric.Meter) (in *Instruments, err error) {
	in = &Instruments{}
	if in.records, err = meter.Int64Counter(
		PopulateMetricNamePrefix(kRecords),
		metric.WithDescription("Records decoded by a telemetry session"),
	); err != nil {
		return
	}
	if in.bytes, err = meter.Int64Counter(
		PopulateMetricNamePrefix(kBytes),
		metric.WithDescription("Bytes received by a telemetry session"),
		metric.WithUnit("By"),
	); err != nil {
		return
	}
	if in.latency, err = meter.Float64Histogram(
		PopulateMetricNamePrefix(kServiceLatency),
		metric.WithDescription("Histogram for session service steps"),
		metric.WithUnit("ms"),
	); err != nil {
		return
	}
	if in.handshake, err = meter.Int64Counter(
		PopulateMetricNamePrefix(kHandshake),
		metric.WithDescription("Handshake status records sent in reply to the flight side"),
	); err != nil {
		return
	}
	in.errors, err = meter.Int64Counter(
		PopulateMetricNamePrefix(kErrors),
		metric.WithDescription("Fatal session errors"),
	)
	return
}

// Default returns the instruments bound to the global meter provider. They
// are no-ops until InitMetricProvider installs an exporting provider.
func Default() *Instruments {
	instrumentsOnce.Do(func() {
		var err error
		if defaultInstruments, err = NewInstruments(otel.Meter(MeterName)); err != nil {
			glog.Errorf("fail to create instruments: %s", err)
			defaultInstruments, _ = NewInstruments(noop.NewMeterProvider().Meter(MeterName))
		}
	})
	return defaultInstruments
}

// SessionMetrics tags every measurement with the session id.
type SessionMetrics struct {
	in    *Instruments
	sid   string
	attrs metric.MeasurementOption
}

func (in *Instruments) ForSession(sid string) *SessionMetrics {
	return &SessionMetrics{
		in:    in,
		sid:   sid,
		attrs: metric.WithAttributes(attribute.String(Session, sid)),
	}
}

func (m *SessionMetrics) RecordServiceStep(nrec int, nbytes int, latency time.Duration) {
	ctx := context.Background()
	if nrec > 0 {
		m.in.records.Add(ctx, int64(nrec), m.attrs)
	}
	if nbytes > 0 {
		m.in.bytes.Add(ctx, int64(nbytes), m.attrs)
	}
	m.in.latency.Record(ctx, float64(latency)/float64(time.Millisecond), m.attrs)
}

func (m *SessionMetrics) RecordHandshake(inbound string, outbound string) {
	m.in.handshake.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(Session, m.sid),
		attribute.String(Inbound, inbound),
		attribute.String(Outbound, outbound),
	))
}

func (m *SessionMetrics) RecordError(kind string) {
	m.in.errors.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(Session, m.sid),
		attribute.String(Kind, kind),
	))
}

func PopulateMetricNamePrefix(metricName string) string {
	return METRIC_PREFIX + metricName
}
