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

package watch

import (
	"io"
	"os"

	"github.com/golang/glog"

	"taulabs/cmd/tools/cmd/common"
	"taulabs/pkg/cmd"
	"taulabs/pkg/initmgr"
	"taulabs/pkg/logging/otel"
	"taulabs/pkg/telemetry"
)

const kDefaultAddr = "127.0.0.1:9000"

var _ cmd.ICommand = (*cmdWatchT)(nil)

type cmdWatchT struct {
	cmd.Command
	optConfig string
	optAddr   string
	optDefs   string
	optRepo   string
	optFilter string
	optFormat string
	optCount  int
	optStats  bool
}

func (c *cmdWatchT) Init(name string, desc string) {
	c.Command.Init(name, desc)
	c.StringOption(&c.optConfig, "c|config", "", "specify toml configuration file")
	c.StringOption(&c.optAddr, "addr", "", "flight controller or simulator address (default "+kDefaultAddr+")")
	c.StringOption(&c.optDefs, "defs", "", "load object definitions from this directory")
	c.StringOption(&c.optRepo, "repo", "", "root of the definition repository")
	c.StringOption(&c.optFilter, "filter", "", "only print records matching this expression")
	c.StringOption(&c.optFormat, "format", common.FormatText, "output format (text|yaml)")
	c.IntOption(&c.optCount, "n", 0, "stop after printing this many records, 0 for no limit")
	c.BoolOption(&c.optStats, "stats", false, "print service statistics on exit")
}

// apply merges the command line into conf.
func (c *cmdWatchT) apply(conf *common.Config) {
	if c.optAddr != "" {
		conf.Address = c.optAddr
	}
	if conf.Address == "" {
		conf.Address = kDefaultAddr
	}
	if c.optDefs != "" {
		conf.Definitions = c.optDefs
	}
	if c.optRepo != "" {
		conf.RepositoryRoot = c.optRepo
	}
}

func (c *cmdWatchT) dial(conf *common.Config) (s *telemetry.Session, err error) {
	coll, err := conf.LoadDefinitions()
	if err != nil {
		return
	}
	return telemetry.DialNetwork(conf.Address, coll, conf.Transport)
}

func (c *cmdWatchT) watch(s *telemetry.Session, w io.Writer) (n int, err error) {
	filter, err := common.NewFilter(c.optFilter)
	if err != nil {
		return
	}
	printer, err := common.NewPrinter(w, c.optFormat)
	if err != nil {
		return
	}
	return common.Stream(s.Iter(), filter, printer, c.optCount)
}

func (c *cmdWatchT) Exec() {
	c.Validate()

	var conf common.Config
	if err := common.LoadConfig(c.optConfig, &conf); err != nil {
		common.Exit(err)
	}
	c.apply(&conf)

	initmgr.RegisterWithFuncs(otel.Initialize, otel.Finalize, &conf.Otel)
	initmgr.Init()

	s, err := c.dial(&conf)
	if err != nil {
		common.Exit(err)
	}
	initmgr.HandleSignals(func(os.Signal) { s.Close() })

	n, err := c.watch(s, os.Stdout)
	if st, ok := s.LinkStatus(); ok {
		glog.Infof("%d records printed, link %s", n, st)
	}
	if c.optStats {
		st := s.Stats()
		st.PrettyPrint(os.Stdout)
	}
	s.Close()
	if err != nil {
		common.Exit(err)
	}
	initmgr.Finalize()
}

func init() {
	c := &cmdWatchT{}
	c.Init("watch", "connect to a flight controller and print live telemetry")
	c.AddDetails(`  The ground station side of the connection handshake is answered while
  records are printed. The address and transport settings may also come
  from the configuration file.`)
	c.AddExample("uavcli watch -addr 192.168.4.1:9000 -filter 'name == \"FlightStatus\"'",
		"print flight status changes")
	c.AddExample("uavcli watch -n 100 -format yaml", "print the first 100 records from the local simulator")

	cmd.Register(c)
}
