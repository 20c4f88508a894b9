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

package insp

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/golang/glog"

	"taulabs/pkg/cmd"
	"taulabs/pkg/uavo"
	"taulabs/pkg/uavtalk"
)

type cmdInspectT struct {
	cmd.Command
	optDefs string
	optRepo string
	optLog  bool
	frame   []byte
}

func (c *cmdInspectT) Init(name string, desc string) {
	c.Command.Init(name, desc)
	c.SetSynopsis("<hex-string>")
	c.StringOption(&c.optDefs, "defs", "", "load object definitions from this directory")
	c.StringOption(&c.optRepo, "repo", ".", "root of the definition repository")
	c.BoolOption(&c.optLog, "l|logged", false, "the frame carries the ground station log prefix")
}

func (c *cmdInspectT) Parse(args []string) (err error) {
	if err = c.Command.Parse(args); err != nil {
		return
	}
	if c.NArg() < 1 {
		err = fmt.Errorf("missing hex frame")
		return
	}
	src := strings.Join(c.Args(), "")
	src = strings.NewReplacer(" ", "", ":", "", "0x", "").Replace(src)
	c.frame, err = hex.DecodeString(src)
	return
}

func (c *cmdInspectT) definitions() *uavo.Collection {
	var coll *uavo.Collection
	var err error
	if c.optDefs != "" {
		coll, err = uavo.LoadDir(c.optDefs)
	} else {
		coll, err = uavo.Repository{Root: c.optRepo}.LoadLocal()
	}
	if err != nil {
		glog.Warningf("%s, objects will not be decoded", err)
		coll, _ = uavo.NewCollection()
	}
	return coll
}

// inspect prints the raw bytes and header of one frame followed by the
// decoded record, or the decoder counters if nothing could be decoded.
func inspect(w io.Writer, coll *uavo.Collection, frame []byte, logged bool) {
	fmt.Fprint(w, hex.Dump(frame))
	fmt.Fprintln(w)

	b := frame
	if logged && len(b) >= uavtalk.LogPrefixLength {
		fmt.Fprintf(w, "  log time  : %d ms\n", binary.LittleEndian.Uint32(b[0:4]))
		fmt.Fprintf(w, "  log size  : %d\n", binary.LittleEndian.Uint64(b[4:12]))
		b = b[uavtalk.LogPrefixLength:]
	}
	if len(b) >= uavtalk.HeaderLength {
		typ := b[1]
		objID := binary.LittleEndian.Uint32(b[4:8])
		fmt.Fprintf(w, "  sync      : 0x%02x\n", b[0])
		fmt.Fprintf(w, "  type      : 0x%02x (timestamp %v)\n", typ&^uavtalk.TimestampOn, typ&uavtalk.TimestampOn != 0)
		fmt.Fprintf(w, "  length    : %d\n", binary.LittleEndian.Uint16(b[2:4]))
		fmt.Fprintf(w, "  object id : 0x%08x", objID)
		if def := coll.ByID(objID); def != nil {
			fmt.Fprintf(w, " (%s)", def.Name)
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  inst id   : %d\n", binary.LittleEndian.Uint16(b[8:10]))
	}

	dec := uavtalk.NewDecoder(coll, uavtalk.DecoderConfig{GCSTimestamps: logged})
	rec, err := dec.Feed(frame)
	if err != nil {
		fmt.Fprintf(w, "\n  error     : %s\n", err)
		return
	}
	if rec != nil {
		fmt.Fprintf(w, "\n  %s\n", rec)
		return
	}
	st := dec.Stats()
	fmt.Fprintf(w, "\n  not decoded: crc errors %d, sync errors %d, unknown objects %d, skipped %d, buffered %d\n",
		st.CRCErrors, st.SyncErrors, st.UnknownObjs, st.Skipped, dec.Buffered())
}

func (c *cmdInspectT) Exec() {
	c.Validate()
	inspect(os.Stdout, c.definitions(), c.frame, c.optLog)
}

func init() {
	c := &cmdInspectT{}
	c.Init("inspect", "decode a single UAVTalk frame given in hex")
	c.AddExample("uavcli inspect -defs ./defs 3c200e00e6d5da330000...", "decode an attitude frame")

	cmd.Register(c)
}
