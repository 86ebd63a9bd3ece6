package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vkyc/golang_services/internal/video_session_service/domain"
)

// SessionAPI is the subset of app.SessionService the bridge exposes.
type SessionAPI interface {
	GetConfigInfo(ctx context.Context, in domain.GetConfigInfoInput) domain.Result[domain.Envelope[domain.Config]]
	CreateMeeting(ctx context.Context, in domain.CreateMeetingInput) domain.Result[domain.Envelope[domain.Meeting]]
	SaveLog(ctx context.Context, in domain.SaveLogInput) domain.Result[domain.Envelope[domain.Ack]]
	Submit(ctx context.Context, in domain.SubmitInput) domain.Result[domain.Envelope[domain.SubmitResult]]
	Hook(ctx context.Context, in domain.HookInput) domain.Result[domain.Envelope[domain.Ack]]
	CloseVideo(ctx context.Context, in domain.CloseVideoInput) domain.Result[domain.Envelope[domain.Ack]]
	GetContractList(ctx context.Context, in domain.GetContractListInput) domain.Result[domain.Envelope[[]domain.Contract]]
	GetContractURL(ctx context.Context, in domain.GetContractURLInput) domain.Result[domain.Envelope[domain.ContractURL]]
	ConfirmContract(ctx context.Context, in domain.ConfirmContractInput) domain.Result[domain.Envelope[domain.Ack]]
	RateCall(ctx context.Context, in domain.RateCallInput) domain.Result[domain.Envelope[domain.Ack]]
}

// AddressResolver discovers the device's public address within a budget.
type AddressResolver interface {
	Resolve(ctx context.Context, timeout time.Duration) domain.Result[string]
}

const maxRequestBody = 64 << 10

type SessionHandler struct {
	service        SessionAPI
	resolver       AddressResolver
	resolveTimeout time.Duration
	logger         *slog.Logger
	validate       *validator.Validate
}

func NewSessionHandler(service SessionAPI, resolver AddressResolver, resolveTimeout time.Duration, logger *slog.Logger, validate *validator.Validate) *SessionHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &SessionHandler{
		service:        service,
		resolver:       resolver,
		resolveTimeout: resolveTimeout,
		logger:         logger.With("handler", "session"),
		validate:       validate,
	}
}

// writeResult maps a Result onto the response: the envelope as-is on
// success, 504 for a timeout and 502 for any other failure.
func writeResult[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, res domain.Result[T]) {
	if v := res.Value(); v != nil {
		writeJSON(w, http.StatusOK, v)
		return
	}
	f := res.Failure()
	status := http.StatusBadGateway
	if f.Kind == domain.FailureTimeout {
		status = http.StatusGatewayTimeout
	}
	logger.WarnContext(r.Context(), "Gateway operation did not succeed", "operation", f.Operation, "kind", f.Kind.String(), "status_code", f.StatusCode)
	writeJSON(w, status, GenericErrorResponse{Error: f.Kind.String(), Details: f.Operation})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, GenericErrorResponse{Error: msg, Details: details})
}

// decodeBody decodes and validates dst. An empty body is accepted when allowEmpty.
func (h *SessionHandler) decodeBody(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	ctx := r.Context()
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(dst); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			h.logger.WarnContext(ctx, "Failed to decode request body", "path", r.URL.Path, "error", err)
			writeError(w, http.StatusBadRequest, "Invalid request body", "")
			return false
		}
	}
	if err := h.validate.StructCtx(ctx, dst); err != nil {
		h.logger.WarnContext(ctx, "Validation failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadRequest, "Validation error", err.Error())
		return false
	}
	return true
}

func pathParam(r *http.Request, name string) string {
	return strings.TrimSpace(chi.URLParam(r, name))
}

func agentID(raw *string) *domain.AgentID {
	if raw == nil {
		return nil
	}
	a := domain.AgentID(*raw)
	return &a
}

func (h *SessionHandler) GetConfigInfo(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "appointmentId")
	res := h.service.GetConfigInfo(r.Context(), domain.GetConfigInfoInput{AppointmentID: domain.AppointmentID(id)})
	writeResult(w, r, h.logger, res)
}

func (h *SessionHandler) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateMeetingRequest
	if !h.decodeBody(w, r, &req, true) {
		return
	}

	customerIP := req.CustomerIP
	if customerIP == nil && h.resolver != nil {
		// Absence is acceptable: the gateway receives null.
		customerIP = h.resolver.Resolve(ctx, h.resolveTimeout).Value()
	}

	res := h.service.CreateMeeting(ctx, domain.CreateMeetingInput{
		AppointmentID: domain.AppointmentID(pathParam(r, "appointmentId")),
		CustomerIP:    customerIP,
		AgentID:       agentID(req.AgentID),
	})
	writeResult(w, r, h.logger, res)
}

func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if !h.decodeBody(w, r, &req, true) {
		return
	}
	res := h.service.Submit(r.Context(), domain.SubmitInput{
		AppointmentID: domain.AppointmentID(pathParam(r, "appointmentId")),
		AgentID:       agentID(req.AgentID),
	})
	writeResult(w, r, h.logger, res)
}

func (h *SessionHandler) SaveLog(w http.ResponseWriter, r *http.Request) {
	var req SaveLogRequest
	if !h.decodeBody(w, r, &req, false) {
		return
	}
	action, err := domain.ParseContractAction(req.Action)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Unknown contract action", "action", req.Action)
		writeError(w, http.StatusBadRequest, "Validation error", err.Error())
		return
	}

	var detail any
	if len(req.Detail) > 0 {
		detail = req.Detail
	}
	res := h.service.SaveLog(r.Context(), domain.SaveLogInput{
		Action:     action,
		Detail:     detail,
		SessionKey: domain.SessionKey(req.SessionKey),
	})
	writeResult(w, r, h.logger, res)
}

func (h *SessionHandler) Hook(w http.ResponseWriter, r *http.Request) {
	var req HookRequest
	if !h.decodeBody(w, r, &req, false) {
		return
	}
	res := h.service.Hook(r.Context(), domain.HookInput{
		SessionID:  domain.SessionID(req.SessionID),
		SessionKey: domain.SessionKey(req.SessionKey),
		AgentID:    agentID(req.AgentID),
	})
	writeResult(w, r, h.logger, res)
}

func (h *SessionHandler) CloseVideo(w http.ResponseWriter, r *http.Request) {
	res := h.service.CloseVideo(r.Context(), domain.CloseVideoInput{SessionKey: domain.SessionKey(pathParam(r, "sessionKey"))})
	writeResult(w, r, h.logger, res)
}

func (h *SessionHandler) GetContractList(w http.ResponseWriter, r *http.Request) {
	res := h.service.GetContractList(r.Context(), domain.GetContractListInput{SessionKey: domain.SessionKey(pathParam(r, "sessionKey"))})
	writeResult(w, r, h.logger, res)
}

func (h *SessionHandler) GetContractURL(w http.ResponseWriter, r *http.Request) {
	res := h.service.GetContractURL(r.Context(), domain.GetContractURLInput{SessionKey: domain.SessionKey(pathParam(r, "sessionKey"))})
	writeResult(w, r, h.logger, res)
}

func (h *SessionHandler) ConfirmContract(w http.ResponseWriter, r *http.Request) {
	res := h.service.ConfirmContract(r.Context(), domain.ConfirmContractInput{SessionKey: domain.SessionKey(pathParam(r, "sessionKey"))})
	writeResult(w, r, h.logger, res)
}

func (h *SessionHandler) RateCall(w http.ResponseWriter, r *http.Request) {
	var req RateCallRequest
	if !h.decodeBody(w, r, &req, false) {
		return
	}
	res := h.service.RateCall(r.Context(), domain.RateCallInput{
		CallRating:    req.CallRating,
		CallFeedback:  req.CallFeedback,
		AgentRating:   req.AgentRating,
		AgentFeedback: req.AgentFeedback,
	})
	writeResult(w, r, h.logger, res)
}

func (h *SessionHandler) ResolveAddress(w http.ResponseWriter, r *http.Request) {
	if h.resolver == nil {
		writeError(w, http.StatusNotImplemented, "Address discovery not configured", "")
		return
	}
	res := h.resolver.Resolve(r.Context(), h.resolveTimeout)
	if v := res.Value(); v != nil {
		writeJSON(w, http.StatusOK, AddressResponse{IP: *v})
		return
	}
	writeResult(w, r, h.logger, res)
}

// requireParam rejects requests whose named path segment is blank.
func requireParam(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if pathParam(r, name) == "" {
				writeError(w, http.StatusBadRequest, "Validation error", fmt.Sprintf("%s is required", name))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
