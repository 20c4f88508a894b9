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
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"

	collectormetricpb "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	metricpb "go.opentelemetry.io/proto/otlp/metrics/v1"
	"google.golang.org/protobuf/proto"
)

const DefaultMetricsPath string = "/v1/metrics"

// mockCollector accepts OTLP/HTTP protobuf exports and keeps the metrics.
type mockCollector struct {
	endpoint string
	server   *http.Server

	lock    sync.Mutex
	metrics []*metricpb.Metric
}

func (c *mockCollector) MustStop(t *testing.T) {
	if err := c.server.Shutdown(context.Background()); err != nil {
		t.Log(err)
	}
}

func (c *mockCollector) GetMetrics() []*metricpb.Metric {
	c.lock.Lock()
	defer c.lock.Unlock()
	m := make([]*metricpb.Metric, 0, len(c.metrics))
	return append(m, c.metrics...)
}

func (c *mockCollector) serveMetrics(w http.ResponseWriter, r *http.Request) {
	rawRequest, err := readRequest(r)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	request, err := unmarshalMetricsRequest(rawRequest, r.Header.Get("content-type"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	rawResponse, err := proto.Marshal(&collectormetricpb.ExportMetricsServiceResponse{})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/x-protobuf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rawResponse)

	c.lock.Lock()
	defer c.lock.Unlock()
	for _, rm := range request.GetResourceMetrics() {
		for _, sm := range rm.GetScopeMetrics() {
			c.metrics = append(c.metrics, sm.GetMetrics()...)
		}
	}
}

func unmarshalMetricsRequest(rawRequest []byte, contentType string) (*collectormetricpb.ExportMetricsServiceRequest, error) {
	request := &collectormetricpb.ExportMetricsServiceRequest{}
	if contentType != "application/x-protobuf" {
		return request, fmt.Errorf("invalid content-type: %s, only application/x-protobuf is supported", contentType)
	}
	err := proto.Unmarshal(rawRequest, request)
	return request, err
}

func readRequest(r *http.Request) ([]byte, error) {
	if r.Header.Get("Content-Encoding") == "gzip" {
		gunzipper, err := gzip.NewReader(r.Body)
		if err != nil {
			return nil, err
		}
		defer gunzipper.Close()
		var raw bytes.Buffer
		if _, err = io.Copy(&raw, gunzipper); err != nil {
			return nil, err
		}
		return raw.Bytes(), nil
	}
	return io.ReadAll(r.Body)
}

func runMockCollector(t *testing.T) *mockCollector {
	ln, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatal(err)
	}
	m := &mockCollector{
		endpoint: ln.Addr().String(),
	}
	mux := http.NewServeMux()
	mux.Handle(DefaultMetricsPath, http.HandlerFunc(m.serveMetrics))
	m.server = &http.Server{Handler: mux}
	go func() {
		_ = m.server.Serve(ln)
	}()
	return m
}
