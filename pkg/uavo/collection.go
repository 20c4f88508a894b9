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

package uavo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/golang/glog"

	"taulabs/pkg/errors"
	"taulabs/pkg/util"
)

const LocalDefinitionPath = "shared/uavobjectdefinition"

type (
	// Collection is a set of object definitions indexed by id and name.
	Collection struct {
		byID    map[uint32]*Definition
		byName  map[string]*Definition
		GitHash string
	}

	// Repository locates definition sets on disk. Sets for a given git hash
	// live in <Root>/<githash>; the working copy lives in
	// <Root>/shared/uavobjectdefinition.
	Repository struct {
		Root string
	}
)

func NewCollection(defs ...*Definition) (c *Collection, err error) {
	c = &Collection{
		byID:   make(map[uint32]*Definition),
		byName: make(map[string]*Definition),
	}
	for _, d := range defs {
		if err = c.Add(d); err != nil {
			return nil, err
		}
	}
	return
}

func (c *Collection) Add(d *Definition) error {
	if err := d.Init(); err != nil {
		return err
	}
	if prev, found := c.byID[d.ID]; found {
		return fmt.Errorf("%w: %s and %s share id %08x", errors.ErrBadDefinition, prev.Name, d.Name, d.ID)
	}
	if _, found := c.byName[d.Name]; found {
		return fmt.Errorf("%w: %s defined twice", errors.ErrBadDefinition, d.Name)
	}
	c.byID[d.ID] = d
	c.byName[d.Name] = d
	return nil
}

func (c *Collection) ByID(id uint32) *Definition {
	return c.byID[id]
}

func (c *Collection) ByName(name string) *Definition {
	return c.byName[name]
}

func (c *Collection) Len() int {
	return len(c.byID)
}

// Definitions returns the definitions ordered by object id.
func (c *Collection) Definitions() []*Definition {
	defs := make([]*Definition, 0, len(c.byID))
	for _, d := range c.byID {
		defs = append(defs, d)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}

// Hash identifies the definition set independent of load order.
func (c *Collection) Hash() string {
	var sb strings.Builder
	for _, d := range c.Definitions() {
		fmt.Fprintf(&sb, "%08x=%s\n", d.ID, d.layout())
	}
	return util.Murmur3HexString([]byte(sb.String()))
}

// Parse reads a YAML list of definitions.
func Parse(data []byte) (defs []*Definition, err error) {
	if err = yaml.Unmarshal(data, &defs); err != nil {
		err = fmt.Errorf("%w: %s", errors.ErrBadDefinition, err)
	}
	return
}

func LoadFile(path string) ([]*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	defs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

// LoadDir loads every *.yaml file of dir into one collection.
func LoadDir(dir string) (c *Collection, err error) {
	var files []string
	if files, err = filepath.Glob(filepath.Join(dir, "*.yaml")); err != nil {
		return
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no object definitions in %s", dir)
	}
	sort.Strings(files)
	if c, err = NewCollection(); err != nil {
		return
	}
	for _, f := range files {
		var defs []*Definition
		if defs, err = LoadFile(f); err != nil {
			return nil, err
		}
		for _, d := range defs {
			if err = c.Add(d); err != nil {
				return nil, fmt.Errorf("%s: %w", f, err)
			}
		}
	}
	glog.Infof("loaded %d object definitions from %s (hash %s)", c.Len(), dir, c.Hash())
	return
}

// Load returns the definition set recorded for a git hash.
func (r Repository) Load(githash string) (c *Collection, err error) {
	if githash == "" {
		return r.LoadLocal()
	}
	if c, err = LoadDir(filepath.Join(r.Root, githash)); err == nil {
		c.GitHash = githash
	}
	return
}

func (r Repository) LoadLocal() (*Collection, error) {
	return LoadDir(filepath.Join(r.Root, LocalDefinitionPath))
}
