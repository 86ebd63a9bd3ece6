package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkyc/golang_services/internal/platform/transport"
	"github.com/vkyc/golang_services/internal/video_session_service/domain"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   string
	Header http.Header
}

type fakeGateway struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	response string
}

func (g *fakeGateway) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		g.mu.Lock()
		g.requests = append(g.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Body:   string(body),
			Header: r.Header.Clone(),
		})
		status, response := g.status, g.response
		g.mu.Unlock()
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, response)
	}
}

func (g *fakeGateway) only(t *testing.T) recordedRequest {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	require.Len(t, g.requests, 1)
	return g.requests[0]
}

func (g *fakeGateway) snapshot() []recordedRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]recordedRequest(nil), g.requests...)
}

func testEndpoints() Endpoints {
	return Endpoints{
		ConfigInfo:      "/config",
		CreateMeeting:   "/appointments/:id/meeting",
		SaveLog:         "/logs",
		Submit:          "/submit",
		Hook:            "/hook",
		CloseVideo:      "/video/close",
		ContractList:    "/contracts",
		ContractURL:     "/contracts/:id/url",
		ConfirmContract: "/contracts/:id/confirm",
		RateCall:        "/rating",
	}
}

func newTestService(t *testing.T, gw *fakeGateway, credential string) *SessionService {
	t.Helper()
	srv := httptest.NewServer(gw.handler(t))
	t.Cleanup(srv.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := transport.New(transport.Options{BaseURL: srv.URL, Credential: credential, Logger: logger})
	return NewSessionService(client, testEndpoints(), logger)
}

func strPtr(s string) *string { return &s }

func agentPtr(s string) *domain.AgentID {
	a := domain.AgentID(s)
	return &a
}

func TestGetConfigInfo(t *testing.T) {
	gw := &fakeGateway{response: `{"success":true,"data":{"appointmentId":"A1","status":"WAITING"}}`}
	svc := newTestService(t, gw, "")

	res := svc.GetConfigInfo(context.Background(), domain.GetConfigInfoInput{AppointmentID: "A1"})
	require.True(t, res.OK())
	assert.True(t, res.Value().Success)
	assert.Equal(t, domain.AppointmentID("A1"), res.Value().Data.AppointmentID)
	assert.Equal(t, "WAITING", res.Value().Data.Status)

	req := gw.only(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/config", req.Path)
	assert.Equal(t, "A1", req.Query.Get("appointment_id"))
	assert.Empty(t, req.Body)
}

func TestCreateMeeting_NullAgent(t *testing.T) {
	gw := &fakeGateway{response: `{"success":true,"data":{"meetingId":"M1","sessionId":"S1","sessionKey":"K1"}}`}
	svc := newTestService(t, gw, "")

	res := svc.CreateMeeting(context.Background(), domain.CreateMeetingInput{
		AppointmentID: "A1",
		CustomerIP:    strPtr("9.9.9.9"),
	})
	require.True(t, res.OK())
	assert.Equal(t, domain.SessionKey("K1"), res.Value().Data.SessionKey)

	req := gw.only(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/appointments/A1/meeting", req.Path)
	assert.JSONEq(t, `{"customerIp":"9.9.9.9","agent_id":null}`, req.Body)
}

func TestCreateMeeting_UnknownIPAndAgent(t *testing.T) {
	gw := &fakeGateway{response: `{"success":true}`}
	svc := newTestService(t, gw, "")

	svc.CreateMeeting(context.Background(), domain.CreateMeetingInput{AppointmentID: "A2", AgentID: agentPtr("AG7")})

	req := gw.only(t)
	assert.JSONEq(t, `{"customerIp":null,"agent_id":"AG7"}`, req.Body)
}

func TestSaveLog_Defaults(t *testing.T) {
	gw := &fakeGateway{response: `{"success":true}`}
	svc := newTestService(t, gw, "")

	res := svc.SaveLog(context.Background(), domain.SaveLogInput{Action: domain.ActionOTPConfirmed})
	require.True(t, res.OK())

	req := gw.only(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/logs", req.Path)
	assert.JSONEq(t, `{"actionHistory":"OTP_CONFIRMED","detail":null,"sessionKey":""}`, req.Body)
}

func TestSaveLog_WithDetail(t *testing.T) {
	gw := &fakeGateway{response: `{"success":true}`}
	svc := newTestService(t, gw, "")

	svc.SaveLog(context.Background(), domain.SaveLogInput{
		Action:     domain.ActionAgentReject,
		Detail:     map[string]string{"reason": "blurry id"},
		SessionKey: "K1",
	})

	req := gw.only(t)
	assert.JSONEq(t, `{"actionHistory":"AGENT_REJECT","detail":{"reason":"blurry id"},"sessionKey":"K1"}`, req.Body)
}

func TestSaveLog_InvalidActionNeverSent(t *testing.T) {
	gw := &fakeGateway{response: `{"success":true}`}
	svc := newTestService(t, gw, "")

	res := svc.SaveLog(context.Background(), domain.SaveLogInput{})
	assert.Nil(t, res.Value())
	require.NotNil(t, res.Failure())
	assert.Equal(t, domain.FailureRequest, res.Failure().Kind)
	assert.Empty(t, gw.snapshot())
}

func TestSubmit(t *testing.T) {
	gw := &fakeGateway{response: `{"success":true,"data":{"id":"A1","status":"QUEUED","queuePosition":3}}`}
	svc := newTestService(t, gw, "")

	res := svc.Submit(context.Background(), domain.SubmitInput{AppointmentID: "A1", AgentID: agentPtr("AG1")})
	require.True(t, res.OK())
	require.NotNil(t, res.Value().Data.QueuePosition)
	assert.Equal(t, 3, *res.Value().Data.QueuePosition)

	req := gw.only(t)
	assert.Equal(t, "/submit", req.Path)
	assert.JSONEq(t, `{"id":"A1","agent_id":"AG1"}`, req.Body)
}

func TestHook(t *testing.T) {
	gw := &fakeGateway{response: `{"success":true}`}
	svc := newTestService(t, gw, "")

	svc.Hook(context.Background(), domain.HookInput{SessionID: "S1", SessionKey: "K1"})

	req := gw.only(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/hook", req.Path)
	assert.JSONEq(t, `{"sessionId":"S1","sessionKey":"K1","agentId":null}`, req.Body)
}

func TestCloseVideo_FixedUserType(t *testing.T) {
	gw := &fakeGateway{response: `{"success":true}`}
	svc := newTestService(t, gw, "")

	svc.CloseVideo(context.Background(), domain.CloseVideoInput{SessionKey: "K1"})

	req := gw.only(t)
	assert.Equal(t, "/video/close", req.Path)
	assert.JSONEq(t, `{"sessionKey":"K1","type":"USER"}`, req.Body)
}

func TestGetContractList(t *testing.T) {
	gw := &fakeGateway{response: `{"success":true,"data":[{"id":"C1","name":"Account opening"},{"id":"C2","confirmed":true}]}`}
	svc := newTestService(t, gw, "")

	res := svc.GetContractList(context.Background(), domain.GetContractListInput{SessionKey: "K1"})
	require.True(t, res.OK())
	require.Len(t, res.Value().Data, 2)
	assert.True(t, res.Value().Data[1].Confirmed)

	req := gw.only(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/contracts", req.Path)
	assert.Equal(t, "K1", req.Query.Get("meetingId"))
}

func TestGetContractURL(t *testing.T) {
	gw := &fakeGateway{response: `{"success":true,"data":{"url":"https://docs.example/c.pdf"}}`}
	svc := newTestService(t, gw, "")

	res := svc.GetContractURL(context.Background(), domain.GetContractURLInput{SessionKey: "K9"})
	require.True(t, res.OK())
	assert.Equal(t, "https://docs.example/c.pdf", res.Value().Data.URL)

	req := gw.only(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/contracts/K9/url", req.Path)
	assert.Empty(t, req.Query)
}

func TestConfirmContract_NoBody(t *testing.T) {
	gw := &fakeGateway{response: `{"success":true}`}
	svc := newTestService(t, gw, "")

	res := svc.ConfirmContract(context.Background(), domain.ConfirmContractInput{SessionKey: "K9"})
	require.True(t, res.OK())

	req := gw.only(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/contracts/K9/confirm", req.Path)
	assert.Empty(t, req.Body)
}

func TestRateCall(t *testing.T) {
	gw := &fakeGateway{response: `{"success":true}`}
	svc := newTestService(t, gw, "")

	svc.RateCall(context.Background(), domain.RateCallInput{
		CallRating:    5,
		CallFeedback:  "clear audio",
		AgentRating:   4,
		AgentFeedback: "helpful",
	})

	req := gw.only(t)
	assert.Equal(t, "/rating", req.Path)
	assert.JSONEq(t, `{"rating_video_call":5,"customer_feedback":"clear audio","rating_agent":4,"customer_feedback_agent":"helpful"}`, req.Body)
}

func TestEnvelopePassedThroughUnvalidated(t *testing.T) {
	gw := &fakeGateway{response: `{"success":false,"message":"appointment expired","error":{"code":"E42"}}`}
	svc := newTestService(t, gw, "")

	res := svc.GetConfigInfo(context.Background(), domain.GetConfigInfoInput{AppointmentID: "A1"})
	require.True(t, res.OK())
	assert.False(t, res.Value().Success)
	assert.Equal(t, "appointment expired", res.Value().Message)
	assert.JSONEq(t, `{"code":"E42"}`, string(res.Value().Error))
}

func TestCredentialAttachedToEveryOperation(t *testing.T) {
	gw := &fakeGateway{response: `{"success":true}`}
	svc := newTestService(t, gw, "kiosk-token")
	ctx := context.Background()

	svc.GetConfigInfo(ctx, domain.GetConfigInfoInput{AppointmentID: "A1"})
	svc.SaveLog(ctx, domain.SaveLogInput{Action: domain.ActionCallEnded})
	svc.ConfirmContract(ctx, domain.ConfirmContractInput{SessionKey: "K1"})

	requests := gw.snapshot()
	require.Len(t, requests, 3)
	for _, r := range requests {
		assert.Equal(t, "Bearer kiosk-token", r.Header.Get("Authorization"))
	}
}

func TestEveryOperationIsolatesTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewSessionService(transport.New(transport.Options{BaseURL: srv.URL, Logger: logger}), testEndpoints(), logger)
	ctx := context.Background()

	failures := map[string]*domain.Failure{
		OpGetConfigInfo:   svc.GetConfigInfo(ctx, domain.GetConfigInfoInput{AppointmentID: "A1"}).Failure(),
		OpCreateMeeting:   svc.CreateMeeting(ctx, domain.CreateMeetingInput{AppointmentID: "A1"}).Failure(),
		OpSaveLog:         svc.SaveLog(ctx, domain.SaveLogInput{Action: domain.ActionCallTimeout}).Failure(),
		OpSubmit:          svc.Submit(ctx, domain.SubmitInput{AppointmentID: "A1"}).Failure(),
		OpHook:            svc.Hook(ctx, domain.HookInput{SessionID: "S1", SessionKey: "K1"}).Failure(),
		OpCloseVideo:      svc.CloseVideo(ctx, domain.CloseVideoInput{SessionKey: "K1"}).Failure(),
		OpGetContractList: svc.GetContractList(ctx, domain.GetContractListInput{SessionKey: "K1"}).Failure(),
		OpGetContractURL:  svc.GetContractURL(ctx, domain.GetContractURLInput{SessionKey: "K1"}).Failure(),
		OpConfirmContract: svc.ConfirmContract(ctx, domain.ConfirmContractInput{SessionKey: "K1"}).Failure(),
		OpRateCall:        svc.RateCall(ctx, domain.RateCallInput{CallRating: 1}).Failure(),
	}
	for op, f := range failures {
		require.NotNil(t, f, op)
		assert.Equal(t, domain.FailureNetwork, f.Kind, op)
		assert.Equal(t, op, f.Operation)
	}
}

func TestServerErrorYieldsAbsentValue(t *testing.T) {
	gw := &fakeGateway{status: http.StatusInternalServerError, response: `oops`}
	svc := newTestService(t, gw, "")

	res := svc.GetContractList(context.Background(), domain.GetContractListInput{SessionKey: "K1"})
	assert.Nil(t, res.Value())
	require.NotNil(t, res.Failure())
	assert.Equal(t, http.StatusInternalServerError, res.Failure().StatusCode)
}

func TestConcurrentCallsAreIndependent(t *testing.T) {
	gw := &fakeGateway{response: `{"success":true}`}
	svc := newTestService(t, gw, "")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res := svc.SaveLog(context.Background(), domain.SaveLogInput{
				Action:     domain.ActionCustomerConnect,
				SessionKey: domain.SessionKey(fmt.Sprintf("K%d", i)),
			})
			assert.True(t, res.OK())
		}(i)
	}
	wg.Wait()

	requests := gw.snapshot()
	require.Len(t, requests, 20)
	keys := map[string]bool{}
	for _, r := range requests {
		var body domain.SaveLogBody
		require.NoError(t, json.Unmarshal([]byte(r.Body), &body))
		keys[string(body.SessionKey)] = true
	}
	assert.Len(t, keys, 20)
}
