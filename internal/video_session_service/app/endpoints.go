package app

import (
	"fmt"

	"github.com/vkyc/golang_services/internal/platform/config"
	"github.com/vkyc/golang_services/internal/platform/pathtemplate"
)

// Endpoints holds the gateway path for each operation. Paths may contain
// :name placeholders; CreateMeeting, GetContractURL and ConfirmContract
// fill ":id".
type Endpoints struct {
	ConfigInfo      string
	CreateMeeting   string
	SaveLog         string
	Submit          string
	Hook            string
	CloseVideo      string
	ContractList    string
	ContractURL     string
	ConfirmContract string
	RateCall        string
}

// EndpointsFromConfig copies the ENDPOINT_* settings.
func EndpointsFromConfig(cfg *config.Config) Endpoints {
	return Endpoints{
		ConfigInfo:      cfg.EndpointConfigInfo,
		CreateMeeting:   cfg.EndpointCreateMeeting,
		SaveLog:         cfg.EndpointSaveLog,
		Submit:          cfg.EndpointSubmit,
		Hook:            cfg.EndpointHook,
		CloseVideo:      cfg.EndpointCloseVideo,
		ContractList:    cfg.EndpointContractList,
		ContractURL:     cfg.EndpointContractURL,
		ConfirmContract: cfg.EndpointConfirmContract,
		RateCall:        cfg.EndpointRateCall,
	}
}

// Check reports endpoints whose placeholders do not match what the service
// fills: exactly one ":id" for CreateMeeting, ContractURL and ConfirmContract,
// none elsewhere. Leftover placeholders would be sent to the gateway verbatim.
func (e Endpoints) Check() []string {
	templated := map[string]string{
		"CreateMeeting":   e.CreateMeeting,
		"ContractURL":     e.ContractURL,
		"ConfirmContract": e.ConfirmContract,
	}
	static := map[string]string{
		"ConfigInfo":   e.ConfigInfo,
		"SaveLog":      e.SaveLog,
		"Submit":       e.Submit,
		"Hook":         e.Hook,
		"CloseVideo":   e.CloseVideo,
		"ContractList": e.ContractList,
		"RateCall":     e.RateCall,
	}

	var problems []string
	for name, path := range templated {
		names := pathtemplate.Placeholders(path)
		if len(names) != 1 || names[0] != "id" {
			problems = append(problems, fmt.Sprintf("%s endpoint %q must contain exactly one :id placeholder", name, path))
		}
	}
	for name, path := range static {
		if names := pathtemplate.Placeholders(path); len(names) > 0 {
			problems = append(problems, fmt.Sprintf("%s endpoint %q has unfilled placeholders %v", name, path, names))
		}
	}
	return problems
}
