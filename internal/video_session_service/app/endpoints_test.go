package app

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkyc/golang_services/internal/platform/config"
	"github.com/vkyc/golang_services/internal/platform/transport"
)

func TestEndpoints_CheckAcceptsDefaults(t *testing.T) {
	cfg, err := config.Load(t.TempDir(), "missing")
	require.NoError(t, err)

	assert.Empty(t, EndpointsFromConfig(cfg).Check())
	assert.Empty(t, testEndpoints().Check())
}

func TestEndpoints_CheckReportsPlaceholderMismatches(t *testing.T) {
	e := testEndpoints()
	e.CreateMeeting = "/appointments/meeting"
	e.ContractURL = "/contracts/:id/url/:id"
	e.SaveLog = "/logs/:sessionKey"

	problems := e.Check()
	require.Len(t, problems, 3)
	joined := ""
	for _, p := range problems {
		joined += p + "\n"
	}
	assert.Contains(t, joined, "CreateMeeting")
	assert.Contains(t, joined, "ContractURL")
	assert.Contains(t, joined, "SaveLog")
}

func TestNewSessionService_WarnsOnMisconfiguredEndpoint(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	e := testEndpoints()
	e.ConfirmContract = "/contracts/confirm"

	NewSessionService(transport.New(transport.Options{Logger: logger}), e, logger)

	assert.Contains(t, buf.String(), "Gateway endpoint misconfigured")
	assert.Contains(t, buf.String(), "ConfirmContract")
}
