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
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/golang/glog"

	"taulabs/pkg/logging"
	otelcfg "taulabs/pkg/logging/otel/config"
	"taulabs/pkg/telemetry"
	"taulabs/pkg/transport"
	"taulabs/pkg/uavo"
)

var DefaultConfig = Config{
	RepositoryRoot: ".",
	Transport:      transport.DefaultConfig,
	Session:        telemetry.DefaultConfig,
}

// Config is the optional TOML file shared by the uavcli commands.
type Config struct {
	// directory of object definitions, overrides the repository lookup
	Definitions    string
	RepositoryRoot string
	Address        string
	Transport      transport.Config
	Session        telemetry.Config
	Otel           otelcfg.Config
}

func LoadConfig(file string, conf *Config) (err error) {
	*conf = DefaultConfig
	if file != "" {
		if _, err = toml.DecodeFile(file, conf); err != nil {
			err = fmt.Errorf("config error: %w", err)
			return
		}
	}
	conf.Transport.SetDefaultIfNotDefined()
	conf.Session.SetDefaultIfNotDefined()
	conf.Otel.Validate()
	if logging.LOG_DEBUG {
		conf.Dump()
	}
	return
}

func (c *Config) Dump() {
	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	encoder.Encode(c)
	glog.Info(buf.String())
}

func (c *Config) Repository() uavo.Repository {
	return uavo.Repository{Root: c.RepositoryRoot}
}

// LoadDefinitions returns the definition set named by Definitions, or the
// local set of the repository.
func (c *Config) LoadDefinitions() (*uavo.Collection, error) {
	if c.Definitions != "" {
		return uavo.LoadDir(c.Definitions)
	}
	return c.Repository().LoadLocal()
}
