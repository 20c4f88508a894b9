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

package cmd

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/golang/glog"
	"github.com/mattn/go-isatty"

	"taulabs/pkg/logging"
	"taulabs/pkg/version"
)

var (
	commands           = make(map[string]ICommand)
	groups             = make(map[string]*Group)
	notGroupedCommands []ICommand
)

type (
	ICommand interface {
		GetName() string
		GetDesc() string //get short description
		GetSynopsis() string
		GetDetails() string
		GetOptionDesc() string
		GetExample() string
		AddExample(cmdExample string, desc string)
		AddDetails(txt string)
		Init(name string, desc string)
		Exec()
		Parse(args []string) error
		PrintUsage()
	}

	Command struct {
		Option
		name        string
		desc        string //short description. (one ine)
		synopsis    string
		details     string
		examples    string
		optVModule  string
		optLogLevel string
	}

	Group struct {
		cmds []ICommand
		name string
	}
)

func (c *Command) Init(name string, desc string) {
	c.name = name
	c.desc = desc
	c.Option.Init(name, flag.ContinueOnError)
	c.StringOption(&c.optLogLevel, "log-level", "warning", "specify log level (error|warning|info|debug|verbose)")
	c.StringVar(&c.optVModule, "vmodule", "", "comma-separated list of pattern=N settings for file-filtered logging")
	c.Option.Usage = c.PrintUsage
}

func (c *Command) SetSynopsis(str string) {
	c.synopsis = str
}

func (c *Command) GetName() string {
	return c.name
}

func (c *Command) GetDesc() string {
	return c.desc
}

func (c *Command) GetSynopsis() string {
	return c.synopsis
}

func (c *Command) GetDetails() string {
	return c.details
}

func (c *Command) GetExample() string {
	return c.examples
}

func (c *Command) GetProgName() string {
	return filepath.Base(os.Args[0])
}

func (c *Command) LogLevel() string {
	return c.optLogLevel
}

func (c *Command) AddExample(cmdExample string, desc string) {
	c.examples += desc + "\n\t\t" + cmdExample + "\n\n"
}

func (c *Command) AddDetails(txt string) {
	c.details += txt
}

func (c *Command) Write(w io.Writer) {
	wo := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	err := usageTemplate.Execute(wo, c)
	if err != nil {
		fmt.Fprintln(w, err)
	}
	wo.Flush()
}

func (c *Command) PrintUsage() {
	var buf bytes.Buffer
	c.Write(&buf)
	page(&buf)
}

// page sends long help text through less when stdout is a terminal.
func page(buf *bytes.Buffer) {
	if isatty.IsTerminal(os.Stdout.Fd()) {
		less := exec.Command("less", "-FX")
		less.Stdin = bytes.NewReader(buf.Bytes())
		less.Stdout = os.Stdout
		if err := less.Run(); err == nil {
			return
		}
	}
	os.Stdout.Write(buf.Bytes())
}

func (c *Command) Validate() {
	if !c.Parsed() {
		glog.Exit("not parsed")
	}
}

// Parse parses the command options and sets up logging from -log-level and
// -vmodule.
func (c *Command) Parse(arguments []string) (err error) {
	if err = c.Option.Parse(arguments); err != nil {
		return
	}
	logging.InitLogging(c.optLogLevel, c.name)
	if c.optVModule != "" {
		err = logging.SetVModule(c.optVModule)
	}
	return
}

func RegisterNewGroup(name string, cmds ...ICommand) (grp *Group) {
	if _, grpFound := groups[name]; grpFound {
		fmt.Printf("group %s has been registered.", name)
		return
	}
	grp = &Group{name: name}
	for _, c := range cmds {
		if register(c) {
			grp.cmds = append(grp.cmds, c)
		}
	}
	groups[name] = grp
	return
}

func Register(c ICommand) bool {
	if register(c) {
		notGroupedCommands = append(notGroupedCommands, c)
		return true
	}
	return false
}

func register(c ICommand) bool {
	if _, found := commands[c.GetName()]; found {
		fmt.Printf("Command %s has been registered.", c.GetName())
		return false
	}
	commands[c.GetName()] = c
	return true
}

func GetCommand(name string) ICommand {
	if cmd, ok := commands[name]; ok {
		return cmd
	}
	return nil
}

// ParseCommandLine finds the first registered command name in args and
// returns it with the arguments following it.
func ParseCommandLine(osArgs []string) (cmd ICommand, args []string) {
	for i := 1; i < len(osArgs); i++ {
		if cmd = GetCommand(osArgs[i]); cmd != nil {
			args = append(args, osArgs[i+1:]...)
			return
		}
		args = append(args, osArgs[i])
	}
	return nil, args
}

func Write(w io.Writer) {
	progName := filepath.Base(os.Args[0])
	fmt.Fprintf(w, "\nUSAGE\n  %s [-version] [[options] <command> [<args>]] \n\n", progName)
	WriteCommand(w)
}

func WriteCommand(w io.Writer) {
	if len(groups)+len(notGroupedCommands) == 0 {
		return
	}
	fmt.Fprintln(w, "\nCOMMAND")

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		g := groups[name]
		fmt.Fprintf(w, "  %s\n", g.name)
		for _, c := range g.cmds {
			fmt.Fprintf(w, "    * %s\n      %s\n", c.GetName(), c.GetDesc())
		}
	}
	if len(notGroupedCommands) != 0 {
		if len(groups) != 0 {
			fmt.Fprintln(w, "  others")
		}
		for _, c := range notGroupedCommands {
			fmt.Fprintf(w, "    * %s\n      %s\n", c.GetName(), c.GetDesc())
		}
	}
}

func PrintUsage() {
	var buf bytes.Buffer
	Write(&buf)
	page(&buf)
}

func PrintVersionOrUsage(args []string) {
	var option Option
	var displayVersion bool
	option.Init("", flag.ContinueOnError)
	option.BoolOption(&displayVersion, "version", false, "display version info.")
	option.Usage = PrintUsage
	if err := option.Parse(args); err == nil {
		if displayVersion {
			version.PrintVersionInfo()
		} else {
			PrintUsage()
		}
	}
}
