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

package otel

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/sdk/instrumentation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	otelCfg "taulabs/pkg/logging/otel/config"
)

const MeterName = "taulabs-telemetry-meter"

var (
	meterProvider *metric.MeterProvider
)

// Initialize is the initmgr entry point. It expects a *config.Config and
// installs an OTLP/HTTP meter provider when metrics are enabled. Otherwise
// the global no-op provider stays in place.
func Initialize(args ...interface{}) (err error) {
	if len(args) < 1 {
		err = fmt.Errorf("otel config argument not as expected")
		glog.Error(err)
		return
	}
	var c *otelCfg.Config
	var ok bool
	if c, ok = args[0].(*otelCfg.Config); !ok {
		err = fmt.Errorf("wrong argument type")
		glog.Error(err)
		return
	}
	c.Validate()
	if c.Enabled {
		c.Dump()
		err = InitMetricProvider(c)
	}
	return
}

func Finalize() {
	if meterProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := meterProvider.Shutdown(ctx); err != nil {
		glog.Warningf("meter provider shutdown: %s", err)
	}
	meterProvider = nil
}

func InitMetricProvider(config *otelCfg.Config) (err error) {
	if meterProvider != nil {
		glog.Info("meter provider already initialized")
		return
	}
	var provider *metric.MeterProvider
	if provider, err = NewMeterProvider(context.Background(), *config); err != nil {
		glog.Errorf("fail to create meter provider: %s", err)
		return
	}
	meterProvider = provider
	otel.SetMeterProvider(provider)
	glog.Infof("otel metrics exported to %s every %ds", config.Endpoint(), config.Resolution)
	return
}

// NewMeterProvider builds a provider exporting to the configured collector
// over OTLP/HTTP with delta temporality.
func NewMeterProvider(ctx context.Context, cfg otelCfg.Config, views ...metric.View) (*metric.MeterProvider, error) {
	cfg.SetDefaultIfNotDefined()
	exp, err := NewHTTPExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	latencyView := metric.NewView(
		metric.Instrument{
			Name:  PopulateMetricNamePrefix(kServiceLatency),
			Scope: instrumentation.Scope{Name: MeterName},
		},
		metric.Stream{
			Aggregation: metric.AggregationExplicitBucketHistogram{
				Boundaries: cfg.HistogramBuckets.ServiceLatency,
			},
		})

	reader := metric.NewPeriodicReader(exp, metric.WithInterval(time.Duration(cfg.Resolution)*time.Second))
	return metric.NewMeterProvider(
		metric.WithResource(getResourceInfo(cfg.ServiceName, cfg.Environment)),
		metric.WithReader(reader),
		metric.WithView(append(views, latencyView)...),
	), nil
}

func NewHTTPExporter(ctx context.Context, cfg otelCfg.Config) (metric.Exporter, error) {
	var deltaTemporalitySelector = func(metric.InstrumentKind) metricdata.Temporality { return metricdata.DeltaTemporality }
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint()),
		otlpmetrichttp.WithURLPath(cfg.UrlPath),
		otlpmetrichttp.WithTimeout(7 * time.Second),
		otlpmetrichttp.WithCompression(otlpmetrichttp.NoCompression),
		otlpmetrichttp.WithTemporalitySelector(deltaTemporalitySelector),
		otlpmetrichttp.WithRetry(otlpmetrichttp.RetryConfig{
			Enabled:         true,
			InitialInterval: 1 * time.Second,
			MaxInterval:     10 * time.Second,
			MaxElapsedTime:  60 * time.Second,
		}),
	}
	if !cfg.UseTls {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	return otlpmetrichttp.New(ctx, opts...)
}

func IsEnabled() bool {
	return meterProvider != nil
}

func getResourceInfo(appName string, env string) *resource.Resource {
	hostname, _ := os.Hostname()
	return resource.NewWithAttributes(semconv.SchemaURL,
		semconv.HostNameKey.String(hostname),
		semconv.ServiceNameKey.String(appName),
		attribute.String("environment", env),
		attribute.String("application", appName),
	)
}
