package ipresolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vkyc/golang_services/internal/video_session_service/domain"
)

const (
	DefaultTimeout = 3 * time.Second
	operation      = "resolve_address"
)

var resolveOutcomeCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "vkyc",
		Name:      "address_resolution_total",
		Help:      "Public address lookups by outcome.",
	},
	[]string{"outcome"}, // "success", "timeout", "network", "decode"
)

// LookupFunc discovers the caller's public address. It must return promptly
// once ctx is cancelled.
type LookupFunc func(ctx context.Context) (string, error)

// Resolver bounds a LookupFunc by a timeout.
type Resolver struct {
	lookup LookupFunc
	logger *slog.Logger
}

func New(lookup LookupFunc, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		lookup: lookup,
		logger: logger.With("component", "ip_resolver"),
	}
}

type lookupOutcome struct {
	addr string
	err  error
}

// Resolve races the lookup against timeout (DefaultTimeout when <= 0). It
// returns within the timeout whatever the lookup does; when the timer wins
// the lookup's context is cancelled and its late result is discarded.
func (r *Resolver) Resolve(ctx context.Context, timeout time.Duration) domain.Result[string] {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan lookupOutcome, 1) // buffered so a late lookup never blocks
	go func() {
		addr, err := r.lookup(raceCtx)
		done <- lookupOutcome{addr: addr, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		return r.settle(ctx, out)
	case <-timer.C:
		r.logger.WarnContext(ctx, "Public address lookup timed out", "timeout", timeout)
		resolveOutcomeCounter.WithLabelValues("timeout").Inc()
		return domain.Failed[string](&domain.Failure{
			Kind:      domain.FailureTimeout,
			Operation: operation,
			Err:       fmt.Errorf("lookup exceeded %s", timeout),
		})
	case <-ctx.Done():
		r.logger.WarnContext(ctx, "Public address lookup abandoned", "error", ctx.Err())
		resolveOutcomeCounter.WithLabelValues("network").Inc()
		return domain.Failed[string](&domain.Failure{
			Kind:      domain.FailureNetwork,
			Operation: operation,
			Err:       ctx.Err(),
		})
	}
}

func (r *Resolver) settle(ctx context.Context, out lookupOutcome) domain.Result[string] {
	if out.err != nil {
		r.logger.WarnContext(ctx, "Public address lookup failed", "error", out.err)
		resolveOutcomeCounter.WithLabelValues("network").Inc()
		return domain.Failed[string](&domain.Failure{Kind: domain.FailureNetwork, Operation: operation, Err: out.err})
	}
	addr := strings.TrimSpace(out.addr)
	if _, err := netip.ParseAddr(addr); err != nil {
		r.logger.WarnContext(ctx, "Public address lookup returned an invalid address", "value", out.addr, "error", err)
		resolveOutcomeCounter.WithLabelValues("decode").Inc()
		return domain.Failed[string](&domain.Failure{Kind: domain.FailureDecode, Operation: operation, Err: err})
	}
	resolveOutcomeCounter.WithLabelValues("success").Inc()
	// Validated but returned as the lookup wrote it.
	return domain.Succeeded(addr)
}

type echoResponse struct {
	IP string `json:"ip"`
}

// HTTPLookup asks an address echo service at lookupURL. The body may be the
// bare address or JSON {"ip": "..."}.
func HTTPLookup(httpClient *http.Client, lookupURL string) LookupFunc {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return func(ctx context.Context) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
		if err != nil {
			return "", fmt.Errorf("failed to create lookup request: %w", err)
		}
		req.Header.Set("Accept", "application/json, text/plain")

		resp, err := httpClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("failed to call address echo service: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if err != nil {
			return "", fmt.Errorf("failed to read address echo response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return "", fmt.Errorf("address echo service returned status %d", resp.StatusCode)
		}

		text := strings.TrimSpace(string(body))
		if strings.HasPrefix(text, "{") {
			var out echoResponse
			if err := json.Unmarshal([]byte(text), &out); err != nil {
				return "", fmt.Errorf("failed to decode address echo response: %w", err)
			}
			if out.IP == "" {
				return "", errors.New("address echo response has no ip field")
			}
			return out.IP, nil
		}
		return text, nil
	}
}
