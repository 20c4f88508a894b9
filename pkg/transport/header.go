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

package transport

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"

	"github.com/golang/glog"

	"taulabs/pkg/errors"
)

const HeaderSignature = "Tau Labs git hash:"

// Header is the text preamble written by the ground station in front of a
// recorded log.
type Header struct {
	GitHash  string
	UAVOHash string
}

var (
	gitHashPattern = regexp.MustCompile(`:(\w*)\W`)
	errShortHeader = fmt.Errorf("short header: %w", errors.ErrBadHeader)
)

func readHeaderLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", errShortHeader
	}
	return line, nil
}

// ReadHeader consumes the signature, git hash, UAVO hash and divider lines.
func ReadHeader(r *bufio.Reader) (h *Header, err error) {
	var sig string
	if sig, err = readHeaderLine(r); err != nil {
		return
	}
	if sig != HeaderSignature+"\n" {
		glog.Errorf("source file does not have a recognized header signature |%s|", strings.TrimRight(sig, "\n"))
		err = fmt.Errorf("signature %q: %w", sig, errors.ErrBadHeader)
		return
	}

	var line string
	if line, err = readHeaderLine(r); err != nil {
		return
	}
	gitHash := strings.TrimRight(line, "\r\n")
	if strings.Contains(gitHash, ":") {
		m := gitHashPattern.FindStringSubmatch(line)
		if m == nil {
			err = fmt.Errorf("git hash line %q: %w", gitHash, errors.ErrBadHeader)
			return
		}
		gitHash = m[1]
	}

	if line, err = readHeaderLine(r); err != nil {
		return
	}
	h = &Header{
		GitHash:  gitHash,
		UAVOHash: strings.TrimRight(line, "\r\n"),
	}
	// divider
	if _, err = readHeaderLine(r); err != nil {
		h = nil
		return
	}
	glog.Infof("log file is based on git hash: %s", h.GitHash)
	return
}
