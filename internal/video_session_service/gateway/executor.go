package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vkyc/golang_services/internal/platform/pathtemplate"
	"github.com/vkyc/golang_services/internal/platform/transport"
	"github.com/vkyc/golang_services/internal/video_session_service/domain"
)

// maxLoggedBody caps how much of an error body is copied into logs.
const maxLoggedBody = 200

// Doer is the part of transport.Client the executor needs.
type Doer interface {
	NewRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error)
	Do(req *http.Request) (*http.Response, error)
}

var _ Doer = (*transport.Client)(nil)

// Executor issues gateway calls and converts every failure into a failed
// domain.Result. It is the only place failures are caught.
type Executor struct {
	client Doer
	logger *slog.Logger
}

func NewExecutor(client Doer, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		client: client,
		logger: logger.With("component", "gateway_executor"),
	}
}

// Call describes one gateway request. Endpoint is the path template; Params
// fill its placeholders. Only the template is logged, since parameter values
// may be session keys.
type Call struct {
	Operation string
	Method    string
	Endpoint  string
	Params    []pathtemplate.Param
	Query     url.Values
	Payload   any // nil sends no body
}

// Get issues a GET and decodes the body into T.
func Get[T any](ctx context.Context, e *Executor, operation, endpoint string, query url.Values, params ...pathtemplate.Param) domain.Result[T] {
	return Do[T](ctx, e, Call{Operation: operation, Method: http.MethodGet, Endpoint: endpoint, Params: params, Query: query})
}

// Post issues a POST with payload JSON-encoded (no body when nil) and decodes the body into T.
func Post[T any](ctx context.Context, e *Executor, operation, endpoint string, payload any, params ...pathtemplate.Param) domain.Result[T] {
	return Do[T](ctx, e, Call{Operation: operation, Method: http.MethodPost, Endpoint: endpoint, Params: params, Payload: payload})
}

// redactURL drops the request URL from transport errors, which embed it.
func redactURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}

// Do runs call. It never returns an error; a failed Result carries the reason.
func Do[T any](ctx context.Context, e *Executor, call Call) domain.Result[T] {
	timer := prometheus.NewTimer(gatewayRequestDurationHist.WithLabelValues(call.Operation))
	defer timer.ObserveDuration()

	log := e.logger.With("operation", call.Operation, "method", call.Method, "endpoint", call.Endpoint)
	path := pathtemplate.Expand(call.Endpoint, call.Params...)

	fail := func(f *domain.Failure) domain.Result[T] {
		f.Operation = call.Operation
		gatewayRequestsCounter.WithLabelValues(call.Operation, f.Kind.String()).Inc()
		return domain.Failed[T](f)
	}

	var body io.Reader
	if call.Payload != nil {
		reqBytes, err := json.Marshal(call.Payload)
		if err != nil {
			log.ErrorContext(ctx, "Failed to marshal gateway request", "error", err)
			return fail(&domain.Failure{Kind: domain.FailureRequest, Err: fmt.Errorf("failed to marshal request: %w", err)})
		}
		body = bytes.NewReader(reqBytes)
		log.DebugContext(ctx, "Sending HTTP request to gateway", "body_bytes", len(reqBytes))
	}

	httpReq, err := e.client.NewRequest(ctx, call.Method, path, call.Query, body)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create gateway HTTP request", "error", redactURL(err))
		return fail(&domain.Failure{Kind: domain.FailureRequest, Err: err})
	}

	httpResp, err := e.client.Do(httpReq)
	if err != nil {
		log.ErrorContext(ctx, "Failed to send request to gateway", "error", redactURL(err))
		return fail(&domain.Failure{Kind: domain.FailureNetwork, Err: fmt.Errorf("failed to send request: %w", err)})
	}
	defer httpResp.Body.Close()

	respBodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		log.ErrorContext(ctx, "Failed to read gateway response body", "status_code", httpResp.StatusCode, "error", redactURL(err))
		return fail(&domain.Failure{Kind: domain.FailureNetwork, Err: fmt.Errorf("failed to read response body: %w", err)})
	}
	log.DebugContext(ctx, "Received HTTP response from gateway", "status_code", httpResp.StatusCode, "body_bytes", len(respBodyBytes))

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		errMsg := fmt.Sprintf("gateway returned status %d", httpResp.StatusCode)
		if len(respBodyBytes) > 0 && len(respBodyBytes) < maxLoggedBody {
			errMsg = fmt.Sprintf("gateway returned status %d, raw_body: %s", httpResp.StatusCode, string(respBodyBytes))
		}
		log.WarnContext(ctx, "Gateway call failed", "status_code", httpResp.StatusCode, "final_error_message", errMsg)
		return fail(&domain.Failure{Kind: domain.FailureNetwork, StatusCode: httpResp.StatusCode, Err: errors.New(errMsg)})
	}

	var out T
	if len(bytes.TrimSpace(respBodyBytes)) == 0 {
		gatewayRequestsCounter.WithLabelValues(call.Operation, "success").Inc()
		return domain.Succeeded(out)
	}
	if err := json.Unmarshal(respBodyBytes, &out); err != nil {
		log.WarnContext(ctx, "Failed to decode gateway response body", "status_code", httpResp.StatusCode, "error", err)
		return fail(&domain.Failure{Kind: domain.FailureDecode, Err: fmt.Errorf("failed to decode response: %w", err)})
	}

	gatewayRequestsCounter.WithLabelValues(call.Operation, "success").Inc()
	return domain.Succeeded(out)
}
