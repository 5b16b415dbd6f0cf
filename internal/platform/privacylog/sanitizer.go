// Package privacylog wraps a slog handler so key material and credentials can
// never reach a log sink, whatever a call site passes. Public keys and
// addresses are public by definition and pass through untouched.
package privacylog

import (
	"context"
	"log/slog"
	"strings"
)

const redactedValue = "[REDACTED]"

// Substring match against lowercased attribute keys.
var sensitiveKeyParts = []string{
	"mnemonic",
	"seed",
	"passphrase",
	"password",
	"private_key",
	"privatekey",
	"secret",
	"token",
	"auth",
}

type SanitizingHandler struct {
	next slog.Handler
}

func WrapHandler(next slog.Handler) slog.Handler {
	if next == nil {
		return nil
	}
	return &SanitizingHandler{next: next}
}

func (h *SanitizingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *SanitizingHandler) Handle(ctx context.Context, rec slog.Record) error {
	out := slog.NewRecord(rec.Time, rec.Level, rec.Message, rec.PC)
	rec.Attrs(func(attr slog.Attr) bool {
		out.AddAttrs(SanitizeAttr(attr))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *SanitizingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitized := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		sanitized = append(sanitized, SanitizeAttr(attr))
	}
	return &SanitizingHandler{next: h.next.WithAttrs(sanitized)}
}

func (h *SanitizingHandler) WithGroup(name string) slog.Handler {
	return &SanitizingHandler{next: h.next.WithGroup(name)}
}

// SanitizeAttr redacts the attribute value when its key names secret
// material. Group attributes are sanitized recursively.
func SanitizeAttr(attr slog.Attr) slog.Attr {
	key := strings.TrimSpace(attr.Key)
	if isSensitiveKey(strings.ToLower(key)) {
		return slog.String(key, redactedValue)
	}
	if attr.Value.Kind() == slog.KindGroup {
		group := attr.Value.Group()
		out := make([]any, 0, len(group))
		for _, member := range group {
			out = append(out, SanitizeAttr(member))
		}
		return slog.Group(key, out...)
	}
	return attr
}

func isSensitiveKey(key string) bool {
	for _, part := range sensitiveKeyParts {
		if strings.Contains(key, part) {
			return true
		}
	}
	return false
}
