// SPDX-License-Identifier: MIT

package assembly

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for assembly operations.
var (
	tracer = otel.Tracer("sparsegraph.assembly")
	meter  = otel.Meter("sparsegraph.assembly")
)

var (
	buildLatency  metric.Float64Histogram
	buildTotal    metric.Int64Counter
	elementsTotal metric.Int64Counter
	nonZeros      metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics creates the instruments once. Safe to call repeatedly.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		buildLatency, err = meter.Float64Histogram(
			"sparsegraph_build_duration_seconds",
			metric.WithDescription("Duration of sparsity graph builds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		buildTotal, err = meter.Int64Counter(
			"sparsegraph_build_total",
			metric.WithDescription("Number of sparsity graph builds"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		elementsTotal, err = meter.Int64Counter(
			"sparsegraph_elements_total",
			metric.WithDescription("Elements assembled into sparsity graphs"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		nonZeros, err = meter.Int64Histogram(
			"sparsegraph_nonzeros",
			metric.WithDescription("Non-zero entries per finalized graph"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// buildInfo describes one build for spans and metrics.
type buildInfo struct {
	kind     string
	strategy string
	elements int
	workers  int
}

func (b buildInfo) attrs() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("sparsegraph.kind", b.kind),
		attribute.String("sparsegraph.strategy", b.strategy),
		attribute.Int("sparsegraph.workers", b.workers),
	}
}

func startBuildSpan(ctx context.Context, name string, b buildInfo) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithAttributes(append(b.attrs(), attribute.Int("sparsegraph.elements", b.elements))...),
	)
}

// finishBuild sets the span result and records the build metrics.
func finishBuild(ctx context.Context, span trace.Span, b buildInfo, start time.Time, nnz int, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("sparsegraph.nonzeros", nnz))
	}

	if initMetrics() != nil {
		return
	}
	attrs := metric.WithAttributes(append(b.attrs(), attribute.Bool("success", err == nil))...)
	buildLatency.Record(ctx, time.Since(start).Seconds(), attrs)
	buildTotal.Add(ctx, 1, attrs)
	if err == nil {
		elementsTotal.Add(ctx, int64(b.elements), attrs)
		nonZeros.Record(ctx, int64(nnz), attrs)
	}
}
