// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

type logSpinner struct {
	started time.Time
	msg     string
}

// Start logs the start of the operation.
// A log-based UI cannot animate, so only start and completion are reported.
func (l *logSpinner) Start(format string, args ...any) {
	l.started = time.Now()
	l.msg = fmt.Sprintf(format, args...)
	log.Info(l.msg)
}

// Stop logs how long the operation took.
func (l *logSpinner) Stop(err error) {
	if err != nil {
		log.Warnf("%s failed %s: %v", l.msg, FormatDuration(time.Since(l.started)), err)
		return
	}
	log.Infof("%s done %s", l.msg, FormatDuration(time.Since(l.started)))
}

// Done logs completion of the operation with message.
func (l *logSpinner) Done(format string, args ...any) {
	log.Infof("%s %s %s", l.msg, fmt.Sprintf(format, args...), FormatDuration(time.Since(l.started)))
}

// LogUI is a log-based UI.
type LogUI struct{}

// PrintLines prints msgs to stdout without escape sequences.
func (LogUI) PrintLines(msgs ...string) {
	var sb strings.Builder
	for _, msg := range msgs {
		if msg == "\n" {
			continue
		}
		sb.WriteString(StripANSIEscapeCodes(msg))
		if !strings.HasSuffix(msg, "\n") {
			sb.WriteByte('\n')
		}
	}
	fmt.Print(sb.String())
}

// NewSpinner returns a log-based spinner.
func (LogUI) NewSpinner() Spinner {
	return &logSpinner{}
}

// Infof reports to stderr, stripping ansi escape sequence.
func (LogUI) Infof(format string, args ...any) {
	log.Helper()
	log.Info(StripANSIEscapeCodes(fmt.Sprintf(format, args...)))
}

// Warningf reports to stderr, stripping ansi escape sequence.
func (LogUI) Warningf(format string, args ...any) {
	log.Helper()
	log.Warn(StripANSIEscapeCodes(fmt.Sprintf(format, args...)))
}

// Errorf reports to stderr, stripping ansi escape sequence.
func (LogUI) Errorf(format string, args ...any) {
	log.Helper()
	log.Error(StripANSIEscapeCodes(fmt.Sprintf(format, args...)))
}
