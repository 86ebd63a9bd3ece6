package domain

// Operation inputs. Optional identifiers are pointers and encode as null
// when absent.

type GetConfigInfoInput struct {
	AppointmentID AppointmentID
}

type CreateMeetingInput struct {
	AppointmentID AppointmentID
	CustomerIP    *string // Usually the Bounded Address Resolver's value; nil when discovery failed
	AgentID       *AgentID
}

type SaveLogInput struct {
	Action     ContractAction
	Detail     any        // nil encodes as null
	SessionKey SessionKey // "" when no session exists yet
}

type SubmitInput struct {
	AppointmentID AppointmentID
	AgentID       *AgentID
}

type HookInput struct {
	SessionID  SessionID
	SessionKey SessionKey
	AgentID    *AgentID
}

type CloseVideoInput struct {
	SessionKey SessionKey
}

type GetContractListInput struct {
	SessionKey SessionKey
}

type GetContractURLInput struct {
	SessionKey SessionKey
}

type ConfirmContractInput struct {
	SessionKey SessionKey
}

type RateCallInput struct {
	CallRating    int
	CallFeedback  string
	AgentRating   int
	AgentFeedback string
}

// Wire bodies, field names as the gateway expects them.

type CreateMeetingBody struct {
	CustomerIP *string  `json:"customerIp"`
	AgentID    *AgentID `json:"agent_id"`
}

type SaveLogBody struct {
	ActionHistory ContractAction `json:"actionHistory"`
	Detail        any            `json:"detail"`
	SessionKey    SessionKey     `json:"sessionKey"`
}

type SubmitBody struct {
	ID      AppointmentID `json:"id"`
	AgentID *AgentID      `json:"agent_id"`
}

type HookBody struct {
	SessionID  SessionID  `json:"sessionId"`
	SessionKey SessionKey `json:"sessionKey"`
	AgentID    *AgentID   `json:"agentId"`
}

// CloseVideoTypeUser is the only closer type this client sends.
const CloseVideoTypeUser = "USER"

type CloseVideoBody struct {
	SessionKey SessionKey `json:"sessionKey"`
	Type       string     `json:"type"`
}

type RateCallBody struct {
	RatingVideoCall       int    `json:"rating_video_call"`
	CustomerFeedback      string `json:"customer_feedback"`
	RatingAgent           int    `json:"rating_agent"`
	CustomerFeedbackAgent string `json:"customer_feedback_agent"`
}
