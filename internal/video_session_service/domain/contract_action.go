package domain

import (
	"encoding/json"
	"fmt"
)

// ContractAction names a workflow event recorded against a video session.
// The set is closed; values outside it cannot be encoded.
type ContractAction uint8

const (
	ActionCustomerJoin ContractAction = iota + 1
	ActionCustomerConnect
	ActionCustomerDisconnect
	ActionCustomerCancel
	ActionAgentConnect
	ActionAgentReject
	ActionAgentApprove
	ActionOTPSent
	ActionOTPConfirmed
	ActionOTPFailed
	ActionContractViewed
	ActionContractConfirmed
	ActionCallTimeout
	ActionCallEnded
)

// AllContractActions lists every action in declaration order.
func AllContractActions() []ContractAction {
	return []ContractAction{
		ActionCustomerJoin,
		ActionCustomerConnect,
		ActionCustomerDisconnect,
		ActionCustomerCancel,
		ActionAgentConnect,
		ActionAgentReject,
		ActionAgentApprove,
		ActionOTPSent,
		ActionOTPConfirmed,
		ActionOTPFailed,
		ActionContractViewed,
		ActionContractConfirmed,
		ActionCallTimeout,
		ActionCallEnded,
	}
}

// String returns the gateway tag, or "" for values outside the set.
func (a ContractAction) String() string {
	switch a {
	case ActionCustomerJoin:
		return "CUSTOMER_JOIN"
	case ActionCustomerConnect:
		return "CUSTOMER_CONNECTED"
	case ActionCustomerDisconnect:
		return "CUSTOMER_DISCONNECTED"
	case ActionCustomerCancel:
		return "CUSTOMER_CANCEL"
	case ActionAgentConnect:
		return "AGENT_CONNECTED"
	case ActionAgentReject:
		return "AGENT_REJECT"
	case ActionAgentApprove:
		return "AGENT_APPROVE"
	case ActionOTPSent:
		return "OTP_SENT"
	case ActionOTPConfirmed:
		return "OTP_CONFIRMED"
	case ActionOTPFailed:
		return "OTP_FAILED"
	case ActionContractViewed:
		return "CONTRACT_VIEWED"
	case ActionContractConfirmed:
		return "CONTRACT_CONFIRMED"
	case ActionCallTimeout:
		return "CALL_TIMEOUT"
	case ActionCallEnded:
		return "CALL_ENDED"
	}
	return ""
}

// Valid reports whether a is one of the declared actions.
func (a ContractAction) Valid() bool {
	return a.String() != ""
}

// ParseContractAction maps a gateway tag back to its action.
func ParseContractAction(tag string) (ContractAction, error) {
	for _, a := range AllContractActions() {
		if a.String() == tag {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown contract action %q", tag)
}

func (a ContractAction) MarshalJSON() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("cannot encode contract action %d", uint8(a))
	}
	return json.Marshal(a.String())
}

func (a *ContractAction) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}
	parsed, err := ParseContractAction(tag)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
