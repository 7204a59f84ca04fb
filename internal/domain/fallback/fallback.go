// Package fallback retries a failed call once on a secondary path when the
// failure is classified as transient.
package fallback

import (
	"context"
	"strings"
)

// Policy runs primary and, only when Classify accepts its error, secondary
// exactly once. Any other error is returned unchanged.
type Policy[T any] struct {
	Classify   func(error) bool
	OnFallback func(err error)
}

func (p Policy[T]) Do(ctx context.Context, primary, secondary func(context.Context) (T, error)) (T, error) {
	v, err := primary(ctx)
	if err == nil {
		return v, nil
	}
	classify := p.Classify
	if classify == nil {
		classify = IsUnavailable
	}
	if secondary == nil || !classify(err) {
		return v, err
	}
	if p.OnFallback != nil {
		p.OnFallback(err)
	}
	return secondary(ctx)
}

// IsUnavailable reports whether err looks like a transient "service
// unavailable" response from a model provider.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "503") || strings.Contains(strings.ToUpper(msg), "UNAVAILABLE")
}

// Models wraps a single-model call into a primary/secondary pair.
func Models[T any](p Policy[T], primaryModel, secondaryModel string, call func(ctx context.Context, model string) (T, error)) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		var secondary func(context.Context) (T, error)
		if secondaryModel != "" && secondaryModel != primaryModel {
			secondary = func(ctx context.Context) (T, error) { return call(ctx, secondaryModel) }
		}
		return p.Do(ctx, func(ctx context.Context) (T, error) { return call(ctx, primaryModel) }, secondary)
	}
}
