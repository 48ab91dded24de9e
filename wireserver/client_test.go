package wireserver

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ruteri/wireserver-ready-agent/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFetchGoalState_Success(t *testing.T) {
	body := []byte("<GoalState><Incarnation>1</Incarnation></GoalState>")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/machine", r.URL.Path)
		assert.Equal(t, "goalstate", r.URL.Query().Get("comp"))
		assert.Equal(t, ProtocolVersion, r.Header.Get(VersionHeader))
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", NewHTTPClient(5*time.Second))
	got, err := client.FetchGoalState()
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestFetchGoalState_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, NewHTTPClient(5*time.Second))
	_, err := client.FetchGoalState()

	var protoErr *interfaces.ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, http.StatusServiceUnavailable, protoErr.StatusCode)
	assert.Equal(t, interfaces.OpFetchGoalState, protoErr.Op)
	assert.True(t, interfaces.IsRetryable(err))
}

func TestFetchGoalState_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	client := NewClient(addr, NewHTTPClient(time.Second))
	_, err := client.FetchGoalState()

	var transportErr *interfaces.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, interfaces.OpFetchGoalState, transportErr.Op)
	assert.True(t, interfaces.IsRetryable(err))
}

func TestReportReady_Success(t *testing.T) {
	doc := interfaces.ReadinessDocument(`<?xml version="1.0" encoding="utf-8"?><Health></Health>`)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/machine", r.URL.Path)
		assert.Equal(t, "health", r.URL.Query().Get("comp"))
		assert.Equal(t, ProtocolVersion, r.Header.Get(VersionHeader))
		assert.Equal(t, "test-agent", r.Header.Get(AgentNameHeader))
		assert.Equal(t, ContentTypeXML, r.Header.Get("Content-Type"))
		assert.Equal(t, int64(len(doc)), r.ContentLength)

		got, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Equal(t, []byte(doc), got)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, NewHTTPClient(5*time.Second))
	client.AgentName = "test-agent"
	require.NoError(t, client.ReportReady(doc))
}

func TestReportReady_NonOKStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "bad request", status: http.StatusBadRequest},
		{name: "gone", status: http.StatusGone},
		{name: "internal error", status: http.StatusInternalServerError},
		{name: "accepted is not ok", status: http.StatusAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := NewClient(server.URL, NewHTTPClient(5*time.Second))
			err := client.ReportReady(interfaces.ReadinessDocument("<Health/>"))

			var protoErr *interfaces.ProtocolError
			require.ErrorAs(t, err, &protoErr)
			assert.Equal(t, tt.status, protoErr.StatusCode)
			assert.Equal(t, interfaces.OpReportReady, protoErr.Op)
		})
	}
}

// stubTransport records the last exchange and replies with a fixed result.
type stubTransport struct {
	mock.Mock
}

func (s *stubTransport) Send(method, url string, header http.Header, body []byte) (int, []byte, error) {
	args := s.Called(method, url, header, body)
	var respBody []byte
	if args.Get(1) != nil {
		respBody = args.Get(1).([]byte)
	}
	return args.Int(0), respBody, args.Error(2)
}

func TestClient_UsesTransport(t *testing.T) {
	transport := new(stubTransport)
	client := &Client{ServerAddr: "http://wireserver", Transport: transport}

	transport.On("Send", http.MethodGet, "http://wireserver/machine?comp=goalstate", mock.Anything, []byte(nil)).
		Return(http.StatusOK, []byte("<GoalState/>"), nil).Once()
	transport.On("Send", http.MethodPost, "http://wireserver/machine?comp=health", mock.MatchedBy(func(h http.Header) bool {
		return h.Get(AgentNameHeader) == DefaultAgentName && h.Get(VersionHeader) == ProtocolVersion
	}), []byte("<Health/>")).
		Return(0, nil, errors.New("connection reset")).Once()

	body, err := client.FetchGoalState()
	require.NoError(t, err)
	assert.Equal(t, []byte("<GoalState/>"), body)

	err = client.ReportReady(interfaces.ReadinessDocument("<Health/>"))
	var transportErr *interfaces.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.EqualError(t, transportErr.Err, "connection reset")

	transport.AssertExpectations(t)
}
