package app

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/vkyc/golang_services/internal/platform/pathtemplate"
	"github.com/vkyc/golang_services/internal/platform/transport"
	"github.com/vkyc/golang_services/internal/video_session_service/domain"
	"github.com/vkyc/golang_services/internal/video_session_service/gateway"
)

// Operation names, used as log and metric labels.
const (
	OpGetConfigInfo   = "get_config_info"
	OpCreateMeeting   = "create_meeting"
	OpSaveLog         = "save_log"
	OpSubmit          = "submit"
	OpHook            = "hook"
	OpCloseVideo      = "close_video"
	OpGetContractList = "get_contract_list"
	OpGetContractURL  = "get_contract_url"
	OpConfirmContract = "confirm_contract"
	OpRateCall        = "rate_call"
)

// SessionService exposes one method per video session workflow action.
// It owns a single transport client and keeps no per-session state, so one
// instance may serve concurrent callers. Sequencing is the caller's concern.
//
// Every method returns a Result; a nil Value means the call did not succeed
// and Failure says why. No method returns an error or panics on I/O failure.
type SessionService struct {
	exec      *gateway.Executor
	endpoints Endpoints
	logger    *slog.Logger
}

// NewSessionService builds a service around client. Misconfigured endpoint
// templates are logged, not rejected.
func NewSessionService(client *transport.Client, endpoints Endpoints, logger *slog.Logger) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	for _, problem := range endpoints.Check() {
		logger.Warn("Gateway endpoint misconfigured", "problem", problem)
	}
	return &SessionService{
		exec:      gateway.NewExecutor(client, logger),
		endpoints: endpoints,
		logger:    logger.With("service", "video_session"),
	}
}

// GetConfigInfo fetches the video session configuration for an appointment.
func (s *SessionService) GetConfigInfo(ctx context.Context, in domain.GetConfigInfoInput) domain.Result[domain.Envelope[domain.Config]] {
	query := url.Values{}
	query.Set("appointment_id", string(in.AppointmentID))
	return gateway.Get[domain.Envelope[domain.Config]](ctx, s.exec, OpGetConfigInfo, s.endpoints.ConfigInfo, query)
}

// CreateMeeting allocates a meeting for an appointment. CustomerIP is normally
// the address resolver's value and is sent as null when discovery failed.
func (s *SessionService) CreateMeeting(ctx context.Context, in domain.CreateMeetingInput) domain.Result[domain.Envelope[domain.Meeting]] {
	body := domain.CreateMeetingBody{
		CustomerIP: in.CustomerIP,
		AgentID:    in.AgentID,
	}
	s.logger.InfoContext(ctx, "Creating meeting", "appointment_id", in.AppointmentID, "customer_ip_known", in.CustomerIP != nil)
	return gateway.Post[domain.Envelope[domain.Meeting]](ctx, s.exec, OpCreateMeeting, s.endpoints.CreateMeeting, body,
		pathtemplate.P("id", string(in.AppointmentID)))
}

// SaveLog records a contract action. Detail defaults to null and SessionKey
// to "" when the caller leaves them zero.
func (s *SessionService) SaveLog(ctx context.Context, in domain.SaveLogInput) domain.Result[domain.Envelope[domain.Ack]] {
	body := domain.SaveLogBody{
		ActionHistory: in.Action,
		Detail:        in.Detail,
		SessionKey:    in.SessionKey,
	}
	return gateway.Post[domain.Envelope[domain.Ack]](ctx, s.exec, OpSaveLog, s.endpoints.SaveLog, body)
}

// Submit hands the appointment over for agent review.
func (s *SessionService) Submit(ctx context.Context, in domain.SubmitInput) domain.Result[domain.Envelope[domain.SubmitResult]] {
	body := domain.SubmitBody{
		ID:      in.AppointmentID,
		AgentID: in.AgentID,
	}
	return gateway.Post[domain.Envelope[domain.SubmitResult]](ctx, s.exec, OpSubmit, s.endpoints.Submit, body)
}

// Hook notifies the gateway that the customer side of a session is live.
func (s *SessionService) Hook(ctx context.Context, in domain.HookInput) domain.Result[domain.Envelope[domain.Ack]] {
	body := domain.HookBody{
		SessionID:  in.SessionID,
		SessionKey: in.SessionKey,
		AgentID:    in.AgentID,
	}
	return gateway.Post[domain.Envelope[domain.Ack]](ctx, s.exec, OpHook, s.endpoints.Hook, body)
}

// CloseVideo ends the call from the customer side.
func (s *SessionService) CloseVideo(ctx context.Context, in domain.CloseVideoInput) domain.Result[domain.Envelope[domain.Ack]] {
	body := domain.CloseVideoBody{
		SessionKey: in.SessionKey,
		Type:       domain.CloseVideoTypeUser,
	}
	return gateway.Post[domain.Envelope[domain.Ack]](ctx, s.exec, OpCloseVideo, s.endpoints.CloseVideo, body)
}

// GetContractList lists the contracts attached to a session. The gateway
// names the query parameter meetingId but expects the session key.
func (s *SessionService) GetContractList(ctx context.Context, in domain.GetContractListInput) domain.Result[domain.Envelope[[]domain.Contract]] {
	query := url.Values{}
	query.Set("meetingId", string(in.SessionKey))
	return gateway.Get[domain.Envelope[[]domain.Contract]](ctx, s.exec, OpGetContractList, s.endpoints.ContractList, query)
}

// GetContractURL fetches the rendered contract location for a session.
func (s *SessionService) GetContractURL(ctx context.Context, in domain.GetContractURLInput) domain.Result[domain.Envelope[domain.ContractURL]] {
	return gateway.Get[domain.Envelope[domain.ContractURL]](ctx, s.exec, OpGetContractURL, s.endpoints.ContractURL, nil,
		pathtemplate.P("id", string(in.SessionKey)))
}

// ConfirmContract accepts the session's contracts. No body is sent.
func (s *SessionService) ConfirmContract(ctx context.Context, in domain.ConfirmContractInput) domain.Result[domain.Envelope[domain.Ack]] {
	return gateway.Post[domain.Envelope[domain.Ack]](ctx, s.exec, OpConfirmContract, s.endpoints.ConfirmContract, nil,
		pathtemplate.P("id", string(in.SessionKey)))
}

// RateCall submits the customer's rating of the call and of the agent.
func (s *SessionService) RateCall(ctx context.Context, in domain.RateCallInput) domain.Result[domain.Envelope[domain.Ack]] {
	body := domain.RateCallBody{
		RatingVideoCall:       in.CallRating,
		CustomerFeedback:      in.CallFeedback,
		RatingAgent:           in.AgentRating,
		CustomerFeedbackAgent: in.AgentFeedback,
	}
	return gateway.Post[domain.Envelope[domain.Ack]](ctx, s.exec, OpRateCall, s.endpoints.RateCall, body)
}
