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

// Package uavotest provides the object definitions shared by tests.
package uavotest

import (
	"taulabs/pkg/uavo"
)

func statsFields() []uavo.FieldDef {
	return []uavo.FieldDef{
		{Name: "Status", Type: "enum", Options: []string{"Disconnected", "HandshakeReq", "HandshakeAck", "Connected"}},
		{Name: "TxDataRate", Type: "float"},
		{Name: "RxDataRate", Type: "float"},
		{Name: "TxFailures", Type: "uint32"},
		{Name: "RxFailures", Type: "uint32"},
		{Name: "TxRetries", Type: "uint32"},
	}
}

// Definitions returns fresh copies of the test definition set.
func Definitions() []*uavo.Definition {
	return []*uavo.Definition{
		{Name: "FlightTelemetryStats", SingleInstance: true, Fields: statsFields()},
		{Name: "GCSTelemetryStats", SingleInstance: true, Fields: statsFields()},
		{Name: "AttitudeActual", SingleInstance: true, Fields: []uavo.FieldDef{
			{Name: "Roll", Type: "float"},
			{Name: "Pitch", Type: "float"},
			{Name: "Yaw", Type: "float"},
		}},
		{Name: "GPSSatellites", SingleInstance: true, Fields: []uavo.FieldDef{
			{Name: "SatsInView", Type: "int8"},
			{Name: "PRN", Type: "uint8", Elements: 4},
			{Name: "Elevation", Type: "float", Elements: 4},
		}},
	}
}

func Collection() *uavo.Collection {
	c, err := uavo.NewCollection(Definitions()...)
	if err != nil {
		panic(err)
	}
	return c
}
