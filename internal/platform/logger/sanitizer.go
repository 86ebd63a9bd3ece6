package logger

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const redactedValue = "[REDACTED]"

var (
	sensitiveKeyParts = []string{"token", "secret", "password", "authorization", "credential"}
	fingerprintKeys   = map[string]struct{}{
		"session_key": {},
		"sessionkey":  {},
	}
)

// SanitizingHandler redacts credentials and fingerprints session keys before
// delegating to the wrapped handler.
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
	clean := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		clean = append(clean, SanitizeAttr(a))
	}
	return &SanitizingHandler{next: h.next.WithAttrs(clean)}
}

func (h *SanitizingHandler) WithGroup(name string) slog.Handler {
	return &SanitizingHandler{next: h.next.WithGroup(name)}
}

// SanitizeAttr returns attr with sensitive values replaced.
func SanitizeAttr(attr slog.Attr) slog.Attr {
	lowerKey := strings.ToLower(strings.TrimSpace(attr.Key))
	if isSensitiveKey(lowerKey) {
		return slog.String(attr.Key, redactedValue)
	}
	if _, ok := fingerprintKeys[lowerKey]; ok {
		return slog.String(attr.Key+"_fp", Fingerprint(attr.Value.String()))
	}
	if attr.Value.Kind() == slog.KindGroup {
		group := attr.Value.Group()
		clean := make([]any, 0, len(group))
		for _, a := range group {
			clean = append(clean, SanitizeAttr(a))
		}
		return slog.Group(attr.Key, clean...)
	}
	return attr
}

// Fingerprint returns a short stable digest of value, suitable for
// correlating log lines without exposing the value itself.
func Fingerprint(value string) string {
	if value == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(value))
	return fmt.Sprintf("b2:%s", hex.EncodeToString(sum[:6]))
}

func isSensitiveKey(key string) bool {
	for _, part := range sensitiveKeyParts {
		if strings.Contains(key, part) {
			return true
		}
	}
	return false
}
