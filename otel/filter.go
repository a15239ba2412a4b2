// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otel

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/z5labs/kafkahello/config"

	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// LevelFilter drops log records below a minimum severity chosen per
// logger name before they reach Processor.
type LevelFilter struct {
	Levels    config.Reader[map[string]log.Severity]
	Processor config.Reader[sdklog.Processor]
}

// LogLevelsFromEnv reads LOG_LEVELS, a comma separated list of
// "<logger name prefix>=<level>" pairs, e.g.
// "github.com/twmb/franz-go=warn,github.com/z5labs/kafkahello=info".
func LogLevelsFromEnv() config.Reader[map[string]log.Severity] {
	return config.Map(config.Env("LOG_LEVELS"), func(ctx context.Context, s string) (map[string]log.Severity, error) {
		return ParseLogLevels(s)
	})
}

// ParseLogLevels parses the format read by [LogLevelsFromEnv].
func ParseLogLevels(s string) (map[string]log.Severity, error) {
	levels := make(map[string]log.Severity)
	for pair := range strings.SplitSeq(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		name, level, found := strings.Cut(pair, "=")
		if !found {
			return nil, config.ParseError{Value: pair, Type: "log level", Cause: errors.New("missing '='")}
		}
		sev, ok := parseLogLevel(level)
		if !ok {
			return nil, config.ParseError{Value: level, Type: "log level", Cause: errors.New("unknown level")}
		}
		levels[strings.TrimSpace(name)] = sev
	}
	return levels, nil
}

func parseLogLevel(level string) (log.Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.SeverityDebug, true
	case "info":
		return log.SeverityInfo, true
	case "warn", "warning":
		return log.SeverityWarn, true
	case "error":
		return log.SeverityError, true
	default:
		return 0, false
	}
}

// Read implements the [config.Reader] interface.
//
// The processor is returned unwrapped when no levels are configured.
func (cfg LevelFilter) Read(ctx context.Context) (config.Value[sdklog.Processor], error) {
	levels, err := config.Read(ctx, config.Default(map[string]log.Severity{}, cfg.Levels))
	if err != nil {
		return config.Value[sdklog.Processor]{}, err
	}

	return config.Map(cfg.Processor, func(ctx context.Context, p sdklog.Processor) (sdklog.Processor, error) {
		if len(levels) == 0 {
			return p, nil
		}
		return newFilteringProcessor(p, levels), nil
	}).Read(ctx)
}

type filteringProcessor struct {
	inner  sdklog.Processor
	levels map[string]log.Severity

	// longest first
	prefixes []string
}

func newFilteringProcessor(inner sdklog.Processor, levels map[string]log.Severity) *filteringProcessor {
	prefixes := make([]string, 0, len(levels))
	for name := range levels {
		prefixes = append(prefixes, name)
	}
	slices.SortFunc(prefixes, func(a, b string) int {
		return len(b) - len(a)
	})

	return &filteringProcessor{
		inner:    inner,
		levels:   levels,
		prefixes: prefixes,
	}
}

// OnEmit implements the [sdklog.Processor] interface.
func (p *filteringProcessor) OnEmit(ctx context.Context, record *sdklog.Record) error {
	minSeverity, found := p.minimumLevel(record.InstrumentationScope().Name)
	if found && record.Severity() < minSeverity {
		return nil
	}
	return p.inner.OnEmit(ctx, record)
}

func (p *filteringProcessor) minimumLevel(name string) (log.Severity, bool) {
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(name, prefix) {
			return p.levels[prefix], true
		}
	}
	return 0, false
}

// Shutdown implements the [sdklog.Processor] interface.
func (p *filteringProcessor) Shutdown(ctx context.Context) error {
	return p.inner.Shutdown(ctx)
}

// ForceFlush implements the [sdklog.Processor] interface.
func (p *filteringProcessor) ForceFlush(ctx context.Context) error {
	return p.inner.ForceFlush(ctx)
}
