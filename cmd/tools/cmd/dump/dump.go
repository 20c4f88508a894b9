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

package dump

import (
	"fmt"
	"os"

	"taulabs/cmd/tools/cmd/common"
	"taulabs/pkg/cmd"
	"taulabs/pkg/initmgr"
	"taulabs/pkg/logging/otel"
	"taulabs/pkg/telemetry"
)

var _ cmd.ICommand = (*cmdDumpT)(nil)

type cmdDumpT struct {
	cmd.Command
	optConfig      string
	optGitHash     string
	optTimestamped bool
	optDefs        string
	optRepo        string
	optFilter      string
	optFormat      string
	optLatest      bool
	optStats       bool
	path           string
}

func (c *cmdDumpT) Init(name string, desc string) {
	c.Command.Init(name, desc)
	c.SetSynopsis("<logfile>")
	c.StringOption(&c.optConfig, "c|config", "", "specify toml configuration file")
	c.StringOption(&c.optGitHash, "g|githash", "", "use the definitions of this git hash and do not parse the log header")
	c.BoolOption(&c.optTimestamped, "t|timestamped", false, "frames carry in-frame timestamps instead of ground station log timestamps")
	c.StringOption(&c.optDefs, "defs", "", "load object definitions from this directory")
	c.StringOption(&c.optRepo, "repo", "", "root of the definition repository")
	c.StringOption(&c.optFilter, "filter", "", "only print records matching this expression")
	c.StringOption(&c.optFormat, "format", common.FormatText, "output format (text|yaml)")
	c.BoolOption(&c.optLatest, "latest", false, "print the latest record of each object after the dump")
	c.BoolOption(&c.optStats, "stats", false, "print service statistics after the dump")
}

func (c *cmdDumpT) Parse(args []string) (err error) {
	if err = c.Command.Parse(args); err != nil {
		return
	}
	if c.NArg() < 1 {
		err = fmt.Errorf("missing log file")
		return
	}
	c.path = c.Arg(0)
	return
}

func (c *cmdDumpT) fileOptions(conf *common.Config) (opts telemetry.FileOptions, err error) {
	opts = telemetry.FileOptions{
		GitHash:        c.optGitHash,
		GCSTimestamps:  !c.optTimestamped,
		Transport:      conf.Transport,
		ServiceTimeout: conf.Session.ServiceTimeout,
	}
	if c.optDefs != "" {
		conf.Definitions = c.optDefs
	}
	if c.optRepo != "" {
		conf.RepositoryRoot = c.optRepo
	}
	if conf.Definitions != "" {
		opts.Collection, err = conf.LoadDefinitions()
	} else {
		opts.Repository = conf.Repository()
	}
	return
}

func (c *cmdDumpT) Exec() {
	c.Validate()

	var conf common.Config
	if err := common.LoadConfig(c.optConfig, &conf); err != nil {
		common.Exit(err)
	}
	filter, err := common.NewFilter(c.optFilter)
	if err != nil {
		common.Exit(err)
	}
	printer, err := common.NewPrinter(os.Stdout, c.optFormat)
	if err != nil {
		common.Exit(err)
	}
	opts, err := c.fileOptions(&conf)
	if err != nil {
		common.Exit(err)
	}

	initmgr.RegisterWithFuncs(otel.Initialize, otel.Finalize, &conf.Otel)
	initmgr.Init()

	s, err := telemetry.OpenFile(c.path, opts)
	if err != nil {
		common.Exit(err)
	}
	initmgr.HandleSignals(func(os.Signal) { s.Close() })

	if _, err = common.Stream(s.Iter(), filter, printer, 0); err != nil {
		s.Close()
		common.Exit(err)
	}
	if c.optLatest {
		printer.PrintLatest(s.Latest())
	}
	if c.optStats {
		st := s.Stats()
		st.PrettyPrint(os.Stdout)
	}
	s.Close()
	initmgr.Finalize()
}

func init() {
	c := &cmdDumpT{}
	c.Init("dump", "decode and print a recorded telemetry log")
	c.AddDetails(`  Records are replayed from the log file in order. The definitions are
  looked up by the git hash in the log header unless -defs or -githash is
  given. Filter expressions see the record fields by name as well as name,
  objid, instid and time.`)
	c.AddExample("uavcli dump -filter 'name == \"AttitudeActual\" && Roll > 30' flight.tll",
		"print the attitude records with a roll above 30 degrees")
	c.AddExample("uavcli dump -t -defs ./shared/uavobjectdefinition -format yaml capture.bin",
		"dump a raw capture with in-frame timestamps as yaml")

	cmd.Register(c)
}
