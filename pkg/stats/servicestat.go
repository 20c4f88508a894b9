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

package stats

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

type (
	// ServiceStat collects per service step latency and batch sizes of a
	// session. It is safe for concurrent use.
	ServiceStat struct {
		mtx       sync.Mutex
		latency   *hdrhistogram.Histogram
		batch     *hdrhistogram.Histogram
		total     time.Duration
		records   int64
		bytes     int64
		numErrors int64
		tmStart   time.Time
	}
	StatsData struct {
		Steps         int64
		Records       int64
		Bytes         int64
		Errors        int64
		Elapsed       time.Duration
		AvgLatency    time.Duration
		MinLatency    time.Duration
		MaxLatency    time.Duration
		P50Latency    time.Duration
		P95Latency    time.Duration
		P99Latency    time.Duration
		MaxBatch      int64
		RecordsPerSec float64
	}
)

func NewServiceStat() *ServiceStat {
	s := &ServiceStat{}
	s.Init()
	return s
}

func (s *ServiceStat) Init() {
	s.mtx.Lock()
	if s.latency == nil {
		s.latency = hdrhistogram.New(1, int64(3600*time.Second), 3)
		s.batch = hdrhistogram.New(0, 1<<20, 3)
		s.tmStart = time.Now()
	}
	s.mtx.Unlock()
}

// Put records one service step that took tm, decoded nrec records out of
// nbytes received bytes.
func (s *ServiceStat) Put(tm time.Duration, nrec int, nbytes int, err error) {
	if s.latency == nil {
		s.Init()
	}
	s.mtx.Lock()
	if tm < 1 {
		tm = 1
	}
	s.latency.RecordValue(int64(tm))
	s.batch.RecordValue(int64(nrec))
	s.total += tm
	s.records += int64(nrec)
	s.bytes += int64(nbytes)
	if err != nil {
		s.numErrors++
	}
	s.mtx.Unlock()
}

func (s *ServiceStat) GetStats() (stat StatsData) {
	if s.latency == nil {
		s.Init()
	}
	s.mtx.Lock()
	stat.Steps = s.latency.TotalCount()
	stat.Records = s.records
	stat.Bytes = s.bytes
	stat.Errors = s.numErrors
	stat.Elapsed = time.Since(s.tmStart)
	if stat.Steps != 0 {
		stat.MinLatency = time.Duration(s.latency.Min())
		stat.MaxLatency = time.Duration(s.latency.Max())
		stat.P50Latency = time.Duration(s.latency.ValueAtQuantile(50.))
		stat.P95Latency = time.Duration(s.latency.ValueAtQuantile(95.))
		stat.P99Latency = time.Duration(s.latency.ValueAtQuantile(99.))
		stat.AvgLatency = s.total / time.Duration(stat.Steps)
		stat.MaxBatch = s.batch.Max()
	}
	s.mtx.Unlock()

	if stat.Elapsed > 0 {
		stat.RecordsPerSec = float64(stat.Records) / stat.Elapsed.Seconds()
	}
	return
}

func (s *ServiceStat) Reset() {
	if s.latency == nil {
		s.Init()
	}
	s.mtx.Lock()
	s.latency.Reset()
	s.batch.Reset()
	s.total = 0
	s.records = 0
	s.bytes = 0
	s.numErrors = 0
	s.tmStart = time.Now()
	s.mtx.Unlock()
}

func (d *StatsData) PrettyPrint(w io.Writer) {
	msfunc := func(d time.Duration) time.Duration {
		return d.Round(time.Microsecond)
	}
	fmt.Fprintln(w,
		`
  records/s |                      service step latency                    |  number of |  number of |  number of |  max  |
            | average    | min        | max        |      50%   |      95%   |      99%   |    steps   |   records  |    bytes   | batch | errors
------------+------------+------------+------------+------------+------------+------------+------------+------------+------------+-------+-------`)
	fmt.Fprintf(w, "%12.2f %12s %12s %12s %12s %12s %12s %12d %12d %12d %7d %7d\n",
		d.RecordsPerSec, msfunc(d.AvgLatency), msfunc(d.MinLatency), msfunc(d.MaxLatency),
		msfunc(d.P50Latency), msfunc(d.P95Latency), msfunc(d.P99Latency),
		d.Steps, d.Records, d.Bytes, d.MaxBatch, d.Errors)
}
