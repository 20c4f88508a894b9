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
	"os"

	"github.com/golang/glog"

	"taulabs/pkg/initmgr"
	"taulabs/pkg/telemetry"
)

// Exit reports err, finalizes whatever initmgr set up and exits with 1.
func Exit(err error) {
	fmt.Fprintln(os.Stderr, err)
	glog.Error(err)
	initmgr.Finalize()
	glog.Flush()
	os.Exit(1)
}

// Stream prints the records the iterator yields that pass the filter. It
// stops after limit printed records when limit is positive.
func Stream(it *telemetry.Iterator, filter *Filter, p *Printer, limit int) (n int, err error) {
	for it.Next() {
		rec := it.Record()
		if !filter.Match(rec) {
			continue
		}
		if err = p.Print(rec); err != nil {
			return
		}
		n++
		if limit > 0 && n >= limit {
			return
		}
	}
	err = it.Err()
	return
}
