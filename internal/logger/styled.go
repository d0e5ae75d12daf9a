// internal/logger/styled.go
package logger

import (
	"fmt"
	"log/slog"

	"github.com/pterm/pterm"

	"github.com/jeremyhahn/neurlang/theme"
)

// StyledLogger wraps slog.Logger with theme-aware formatting for the pieces
// of pipeline output that benefit from a human glance: route decisions,
// cache hit ratios and validator verdicts.
type StyledLogger struct {
	logger *slog.Logger
	theme  *theme.Theme
}

func NewStyledLogger(logger *slog.Logger, appTheme *theme.Theme) *StyledLogger {
	return &StyledLogger{logger: logger, theme: appTheme}
}

func (sl *StyledLogger) Debug(msg string, args ...any) { sl.logger.Debug(msg, args...) }
func (sl *StyledLogger) Info(msg string, args ...any)  { sl.logger.Info(msg, args...) }
func (sl *StyledLogger) Warn(msg string, args ...any)  { sl.logger.Warn(msg, args...) }
func (sl *StyledLogger) Error(msg string, args ...any) { sl.logger.Error(msg, args...) }

// InfoWithCount styles a trailing "(n)" suffix, e.g. "slots filled (12)".
func (sl *StyledLogger) InfoWithCount(msg string, count int, args ...any) {
	styled := fmt.Sprintf("%s %s", msg, sl.theme.Accent.Sprint("(", count, ")"))
	sl.logger.Info(styled, args...)
}

// InfoRouteDecision highlights the chosen route (rule-based vs llm-decompose).
func (sl *StyledLogger) InfoRouteDecision(msg string, route string, args ...any) {
	style := sl.theme.Success
	if route != "rule-based" {
		style = sl.theme.Highlight
	}
	styled := fmt.Sprintf("%s %s", msg, style.Sprint(route))
	sl.logger.Info(styled, args...)
}

// InfoCacheStats renders hit/miss counts with colour.
func (sl *StyledLogger) InfoCacheStats(msg string, hits, misses int, args ...any) {
	allArgs := make([]any, 0, len(args)+4)
	allArgs = append(allArgs, args...)
	allArgs = append(allArgs,
		"hits", sl.theme.Success.Sprint(hits),
		"misses", sl.theme.Muted.Sprint(misses),
	)
	sl.logger.Info(msg, allArgs...)
}

// WarnValidation styles a validator warning/error name.
func (sl *StyledLogger) WarnValidation(msg string, kind string, args ...any) {
	styled := fmt.Sprintf("%s %s", msg, pterm.Style{sl.theme.Warning}.Sprint(kind))
	sl.logger.Warn(styled, args...)
}

func (sl *StyledLogger) GetUnderlying() *slog.Logger { return sl.logger }

func (sl *StyledLogger) With(args ...any) *StyledLogger {
	return &StyledLogger{logger: sl.logger.With(args...), theme: sl.theme}
}

// NewWithTheme creates both a regular logger and a styled logger.
func NewWithTheme(cfg *Config) (*slog.Logger, *StyledLogger, func(), error) {
	log, cleanup, err := New(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	appTheme := theme.GetTheme(cfg.Theme)
	styled := NewStyledLogger(log, appTheme)

	return log, styled, cleanup, nil
}
