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

package telemetry

import (
	"time"

	"github.com/golang/glog"

	"taulabs/pkg/util"
)

var (
	DefaultConfig = Config{
		IterBlocks:     true,
		ServiceTimeout: util.Duration{Duration: 500 * time.Millisecond},
	}
)

type Config struct {
	// ServiceInIter makes consumers drive the I/O while iterating. When
	// false a background goroutine started with Start does it.
	ServiceInIter bool
	IterBlocks    bool
	Handshaking   bool
	// deadline of one self-driven or background service step
	ServiceTimeout util.Duration
}

func (c *Config) SetDefaultIfNotDefined() (set bool) {
	if c.ServiceTimeout.Duration == 0 {
		set = true
		c.ServiceTimeout = DefaultConfig.ServiceTimeout
	}
	return
}

func (c *Config) Dump() {
	glog.Infof("ServiceInIter: %t", c.ServiceInIter)
	glog.Infof("IterBlocks: %t", c.IterBlocks)
	glog.Infof("Handshaking: %t", c.Handshaking)
	glog.Infof("ServiceTimeout: %s", c.ServiceTimeout.Duration)
}
