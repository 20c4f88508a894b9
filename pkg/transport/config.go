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
	"time"

	"taulabs/pkg/util"
)

var (
	DefaultConfig = Config{
		ConnectTimeout: util.Duration{Duration: 5 * time.Second},
		RecvBufSize:    1024,
		ReadChunkSize:  1024,
		FileChunkSize:  128,
	}
)

type Config struct {
	ConnectTimeout util.Duration
	// POLLIN is only requested while fewer bytes are buffered
	RecvBufSize   int
	ReadChunkSize int
	FileChunkSize int
	// replay files are snappy framed streams
	Compressed bool
}

func (conf *Config) SetDefaultIfNotDefined() (set bool) {
	if conf.ConnectTimeout.Duration == 0 {
		set = true
		conf.ConnectTimeout = DefaultConfig.ConnectTimeout
	}
	if conf.RecvBufSize == 0 {
		set = true
		conf.RecvBufSize = DefaultConfig.RecvBufSize
	}
	if conf.ReadChunkSize == 0 {
		set = true
		conf.ReadChunkSize = DefaultConfig.ReadChunkSize
	}
	if conf.FileChunkSize == 0 {
		set = true
		conf.FileChunkSize = DefaultConfig.FileChunkSize
	}
	return
}
