package sentry

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/socialchef/transcriptor/internal/errors"
)

// Init configures the global Sentry client. An empty DSN disables reporting
// and is not an error.
func Init(dsn, env, serviceName, serviceVersion string) error {
	if dsn == "" {
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      env,
		ServerName:       serviceName,
		Release:          serviceVersion,
		AttachStacktrace: true,
		TracesSampleRate: 0.0, // spans go to OpenTelemetry
		BeforeSend:       dropOperational,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Sentry: %w", err)
	}
	return nil
}

// dropOperational filters out expected failures such as a corrupt upload.
func dropOperational(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
	if hint == nil || hint.OriginalException == nil {
		return event
	}
	if appErr, ok := errors.As(hint.OriginalException); ok && appErr.IsOperational {
		return nil
	}
	return event
}

// Flush blocks until queued events are sent or timeout passes.
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}

// Recover reports a panic on the current goroutine. Use with defer.
func Recover() {
	sentry.Recover()
}

// CaptureError reports err on the request's hub, or the current hub when the
// context carries none.
func CaptureError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.CaptureException(err)
}
