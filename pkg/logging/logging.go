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

package logging

import (
	"bytes"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang/glog"
)

// default is LOG_INFO
var (
	LOG_ERROR   glog.Verbose = true
	LOG_WARN    glog.Verbose = true
	LOG_INFO    glog.Verbose = true
	LOG_DEBUG   glog.Verbose = false
	LOG_VERBOSE glog.Verbose = false

	appName string
)

// Initialize is the initmgr entry point. It expects a log level and an
// application name.
func Initialize(args ...interface{}) (err error) {
	sz := len(args)
	if sz < 2 {
		err = fmt.Errorf("two arguments expected")
		return
	}
	var level string
	var name string
	var ok bool
	if level, ok = args[0].(string); !ok {
		err = fmt.Errorf("a string log level expected")
		return
	}
	if name, ok = args[1].(string); !ok {
		err = fmt.Errorf("a string appname expected")
		return
	}
	InitLogging(level, name)
	return
}

func Finalize() {
	glog.Flush()
}

func InitLogging(level string, name string) {
	setFlag("logtostderr", "true")
	appName = name

	var glevel string

	if strings.EqualFold("error", level) {
		glevel = "1"
	} else if strings.EqualFold("warning", level) {
		glevel = "2"
	} else if strings.EqualFold("debug", level) {
		glevel = "4"
	} else if strings.EqualFold("verbose", level) {
		glevel = "5"
	} else { //default is info
		glevel = "3"
	}

	setFlag("v", glevel)

	LOG_ERROR = glog.V(1)
	LOG_WARN = glog.V(2)
	LOG_INFO = glog.V(3)
	LOG_DEBUG = glog.V(4)
	LOG_VERBOSE = glog.V(5)
}

func SetVModule(pattern string) error {
	return setFlag("vmodule", pattern)
}

func AppName() string {
	return appName
}

func setFlag(name, value string) error {
	f := flag.Lookup(name)
	if f == nil {
		return fmt.Errorf("flag %s not registered", name)
	}
	return f.Value.Set(value)
}

func Debugf(format string, args ...interface{}) {
	if LOG_DEBUG {
		glog.InfoDepth(1, fmt.Sprintf(format, args...))
	}
}

func Verbosef(format string, args ...interface{}) {
	if LOG_VERBOSE {
		glog.InfoDepth(1, fmt.Sprintf(format, args...))
	}
}

type KeyValueBuffer struct {
	bytes.Buffer
	delimiter     byte
	pairDelimiter byte
}

func NewKVBufferForLog() *KeyValueBuffer {
	b := &KeyValueBuffer{
		delimiter:     '=',
		pairDelimiter: ',',
	}
	return b
}

func NewKVBuffer() *KeyValueBuffer {
	b := &KeyValueBuffer{
		pairDelimiter: '&',
		delimiter:     '=',
	}
	return b
}

var (
	logDataKeySession = "sid"
	logDataKeyRecords = "nrec"
	logDataKeyBytes   = "nbytes"
	logDataKeyStatus  = "st"
	logDataKeyErr     = "err"
)

func (b *KeyValueBuffer) Add(key string, value string) *KeyValueBuffer {
	if b.Len() > 0 {
		b.WriteByte(b.pairDelimiter)
	}
	b.WriteString(key)
	b.WriteByte(b.delimiter)
	b.WriteString(value)
	return b
}

func (b *KeyValueBuffer) AddInt(key string, value int) *KeyValueBuffer {
	return b.Add(key, strconv.Itoa(value))
}

func (b *KeyValueBuffer) AddSession(id string) *KeyValueBuffer {
	return b.Add(logDataKeySession, id)
}

func (b *KeyValueBuffer) AddRecords(n int) *KeyValueBuffer {
	return b.AddInt(logDataKeyRecords, n)
}

func (b *KeyValueBuffer) AddBytes(n int) *KeyValueBuffer {
	return b.AddInt(logDataKeyBytes, n)
}

func (b *KeyValueBuffer) AddStatus(st string) *KeyValueBuffer {
	return b.Add(logDataKeyStatus, st)
}

func (b *KeyValueBuffer) AddError(err error) *KeyValueBuffer {
	if err != nil {
		b.Add(logDataKeyErr, err.Error())
	}
	return b
}
