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
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"

	"taulabs/pkg/uavo"
)

const (
	FormatText = "text"
	FormatYaml = "yaml"
)

const kTimeLayout = "15:04:05.000"

// Printer writes records as text lines or as a stream of YAML documents.
type Printer struct {
	w      io.Writer
	format string
	name   *color.Color
	field  *color.Color
}

// NewPrinter colours text output only when w is a terminal.
func NewPrinter(w io.Writer, format string) (p *Printer, err error) {
	format = strings.ToLower(format)
	if format != FormatText && format != FormatYaml {
		err = fmt.Errorf("unknown output format %q", format)
		return
	}
	p = &Printer{
		w:      w,
		format: format,
		name:   color.New(color.FgCyan, color.Bold),
		field:  color.New(color.FgYellow),
	}
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isatty.IsTerminal(f.Fd()) && !color.NoColor
	}
	if !useColor {
		p.name.DisableColor()
		p.field.DisableColor()
	}
	return
}

func (p *Printer) Print(rec *uavo.Record) (err error) {
	if p.format == FormatYaml {
		return p.printYaml(rec)
	}
	var b strings.Builder
	if !rec.Time.IsZero() {
		b.WriteString(rec.Time.Format(kTimeLayout))
		b.WriteByte(' ')
	}
	b.WriteString(p.name.Sprint(rec.Name))
	if rec.InstID != 0 {
		fmt.Fprintf(&b, "[%d]", rec.InstID)
	}
	for i, f := range rec.Fields {
		if i == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", p.field.Sprint(f.Name), f.Value)
	}
	b.WriteByte('\n')
	_, err = io.WriteString(p.w, b.String())
	return
}

type yamlRecord struct {
	Name   string        `yaml:"name"`
	ObjID  string        `yaml:"objid"`
	InstID uint16        `yaml:"instid,omitempty"`
	Time   string        `yaml:"time,omitempty"`
	Fields yaml.MapSlice `yaml:"fields"`
}

func (p *Printer) printYaml(rec *uavo.Record) (err error) {
	doc := yamlRecord{
		Name:   rec.Name,
		ObjID:  fmt.Sprintf("%08x", rec.ObjID),
		InstID: rec.InstID,
	}
	if !rec.Time.IsZero() {
		doc.Time = rec.Time.Format(time.RFC3339Nano)
	}
	for _, f := range rec.Fields {
		doc.Fields = append(doc.Fields, yaml.MapItem{Key: f.Name, Value: f.Value})
	}
	var out []byte
	if out, err = yaml.Marshal(doc); err != nil {
		return
	}
	if _, err = io.WriteString(p.w, "---\n"); err != nil {
		return
	}
	_, err = p.w.Write(out)
	return
}

// PrintLatest prints one record per object type, ordered by name.
func (p *Printer) PrintLatest(latest map[string]*uavo.Record) error {
	names := make([]string, 0, len(latest))
	for name := range latest {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := p.Print(latest[name]); err != nil {
			return err
		}
	}
	return nil
}
