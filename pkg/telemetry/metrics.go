// SPDX-License-Identifier: Apache-2.0
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CommandMetrics tracks command throughput and recovery behavior.
type CommandMetrics struct {
	// commandCounter tracks processed commands by intent and outcome
	commandCounter metric.Int64Counter

	// toolCallCounter tracks dispatcher tool invocations by tool and outcome
	toolCallCounter metric.Int64Counter

	// fallbackCounter tracks how often the direct-capability fallback ran
	fallbackCounter metric.Int64Counter

	// reconnectCounter tracks bridge reconnect attempts
	reconnectCounter metric.Int64Counter
}

// NewCommandMetrics creates the OTEL instruments for command processing.
func NewCommandMetrics() (*CommandMetrics, error) {
	meter := otel.Meter("aura/orchestrator")

	commandCounter, err := meter.Int64Counter(
		"aura.commands.total",
		metric.WithDescription("Processed commands by intent and outcome"),
	)
	if err != nil {
		return nil, err
	}

	toolCallCounter, err := meter.Int64Counter(
		"aura.toolcalls.total",
		metric.WithDescription("Dispatcher tool invocations by tool and outcome"),
	)
	if err != nil {
		return nil, err
	}

	fallbackCounter, err := meter.Int64Counter(
		"aura.fallback.total",
		metric.WithDescription("Direct-capability fallback executions by intent and outcome"),
	)
	if err != nil {
		return nil, err
	}

	reconnectCounter, err := meter.Int64Counter(
		"aura.bridge.reconnects",
		metric.WithDescription("Bridge reconnect attempts"),
	)
	if err != nil {
		return nil, err
	}

	return &CommandMetrics{
		commandCounter:   commandCounter,
		toolCallCounter:  toolCallCounter,
		fallbackCounter:  fallbackCounter,
		reconnectCounter: reconnectCounter,
	}, nil
}

// RecordCommand records one processed command.
func (m *CommandMetrics) RecordCommand(ctx context.Context, intent string, ok bool) {
	if m == nil {
		return
	}
	m.commandCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("intent", intent),
		attribute.Bool("success", ok),
	))
}

// RecordToolCall records one dispatcher tool invocation.
func (m *CommandMetrics) RecordToolCall(ctx context.Context, tool string, ok bool) {
	if m == nil {
		return
	}
	m.toolCallCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.Bool("success", ok),
	))
}

// RecordFallback records one fallback-path execution.
func (m *CommandMetrics) RecordFallback(ctx context.Context, intent string, ok bool) {
	if m == nil {
		return
	}
	m.fallbackCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("intent", intent),
		attribute.Bool("success", ok),
	))
}

// RecordReconnect records one bridge reconnect attempt.
func (m *CommandMetrics) RecordReconnect(ctx context.Context, ok bool) {
	if m == nil {
		return
	}
	m.reconnectCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("success", ok),
	))
}
