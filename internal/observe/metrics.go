// Package observe holds the OpenTelemetry metric instruments of the coach
// and the Prometheus bridge that exposes them on /metrics.
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/ashureev/healthcoach"

// Status attribute values.
const (
	StatusOK       = "ok"
	StatusNotFound = "not_found"
	StatusFallback = "fallback"
	StatusError    = "error"
)

// Metrics holds all metric instruments. Safe for concurrent use.
type Metrics struct {
	// ProfileLookups counts lookups by status (ok, not_found, error).
	ProfileLookups metric.Int64Counter

	// Answers counts answers by status (ok, fallback).
	Answers metric.Int64Counter

	// AnswerDuration tracks completion latency.
	AnswerDuration metric.Float64Histogram

	// Renders counts speech renders by status and language.
	Renders metric.Int64Counter

	// RenderDuration tracks speech synthesis latency.
	RenderDuration metric.Float64Histogram

	// TranslationErrors counts translation failures.
	TranslationErrors metric.Int64Counter

	// ExpiredArtifacts counts audio files removed by the TTL worker.
	ExpiredArtifacts metric.Int64Counter

	// DashboardSessions tracks live dashboard connections.
	DashboardSessions metric.Int64UpDownCounter

	// HTTPRequestDuration tracks request latency by method, route and status.
	HTTPRequestDuration metric.Float64Histogram
}

var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// NewMetrics creates the instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.ProfileLookups, err = m.Int64Counter("healthcoach.profile.lookups",
		metric.WithDescription("Profile lookups by status."),
	); err != nil {
		return nil, err
	}
	if met.Answers, err = m.Int64Counter("healthcoach.answers",
		metric.WithDescription("Generated answers by status."),
	); err != nil {
		return nil, err
	}
	if met.AnswerDuration, err = m.Float64Histogram("healthcoach.answer.duration",
		metric.WithDescription("Latency of answer generation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Renders, err = m.Int64Counter("healthcoach.speech.renders",
		metric.WithDescription("Speech renders by status and language."),
	); err != nil {
		return nil, err
	}
	if met.RenderDuration, err = m.Float64Histogram("healthcoach.speech.duration",
		metric.WithDescription("Latency of speech synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TranslationErrors, err = m.Int64Counter("healthcoach.translation.errors",
		metric.WithDescription("Failed answer translations."),
	); err != nil {
		return nil, err
	}
	if met.ExpiredArtifacts, err = m.Int64Counter("healthcoach.speech.expired",
		metric.WithDescription("Audio files removed after their TTL."),
	); err != nil {
		return nil, err
	}
	if met.DashboardSessions, err = m.Int64UpDownCounter("healthcoach.dashboard.sessions",
		metric.WithDescription("Live dashboard sessions."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("healthcoach.http.request.duration",
		metric.WithDescription("HTTP request latency by method, route and status."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// Noop returns instruments that record nothing.
func Noop() *Metrics {
	m, err := NewMetrics(noop.NewMeterProvider())
	if err != nil {
		panic("observe: noop metrics: " + err.Error())
	}
	return m
}

// RecordLookup counts one profile lookup.
func (m *Metrics) RecordLookup(ctx context.Context, status string) {
	m.ProfileLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordAnswer counts one answer and its latency.
func (m *Metrics) RecordAnswer(ctx context.Context, succeeded bool, d time.Duration) {
	status := StatusOK
	if !succeeded {
		status = StatusFallback
	}
	m.Answers.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	m.AnswerDuration.Record(ctx, d.Seconds())
}

// RecordRender counts one speech render and its latency.
func (m *Metrics) RecordRender(ctx context.Context, status, lang string, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("status", status),
		attribute.String("language", lang),
	)
	m.Renders.Add(ctx, 1, attrs)
	m.RenderDuration.Record(ctx, d.Seconds(), attrs)
}
