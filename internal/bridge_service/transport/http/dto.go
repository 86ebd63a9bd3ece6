package http

import "encoding/json"

// CreateMeetingRequest is the body of POST /v1/appointments/{appointmentId}/meeting.
// When CustomerIP is omitted the bridge discovers it itself.
type CreateMeetingRequest struct {
	CustomerIP *string `json:"customerIp,omitempty" validate:"omitempty,ip"`
	AgentID    *string `json:"agentId,omitempty" validate:"omitempty,min=1,max=64"`
}

// SubmitRequest is the body of POST /v1/appointments/{appointmentId}/submit.
type SubmitRequest struct {
	AgentID *string `json:"agentId,omitempty" validate:"omitempty,min=1,max=64"`
}

// SaveLogRequest is the body of POST /v1/sessions/logs.
type SaveLogRequest struct {
	Action     string          `json:"action" validate:"required"`
	Detail     json.RawMessage `json:"detail,omitempty"`
	SessionKey string          `json:"sessionKey,omitempty" validate:"max=128"`
}

// HookRequest is the body of POST /v1/sessions/hook.
type HookRequest struct {
	SessionID  string  `json:"sessionId" validate:"required,max=128"`
	SessionKey string  `json:"sessionKey" validate:"required,max=128"`
	AgentID    *string `json:"agentId,omitempty" validate:"omitempty,min=1,max=64"`
}

// RateCallRequest is the body of POST /v1/ratings.
type RateCallRequest struct {
	CallRating    int    `json:"callRating" validate:"min=1,max=5"`
	CallFeedback  string `json:"callFeedback" validate:"max=1000"`
	AgentRating   int    `json:"agentRating" validate:"min=1,max=5"`
	AgentFeedback string `json:"agentFeedback" validate:"max=1000"`
}

// AddressResponse is returned by GET /v1/network/address.
type AddressResponse struct {
	IP string `json:"ip"`
}

// GenericErrorResponse for API errors
type GenericErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
