// Package wireserver talks to the platform's wireserver metadata endpoint: it
// fetches the goal state and posts the readiness report. Retries are not done
// here; callers wrap the calls with the retry package.
package wireserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/ruteri/wireserver-ready-agent/interfaces"
	"github.com/stretchr/testify/mock"
)

const (
	// DefaultServerAddr is the fixed wireserver address reachable from every instance.
	DefaultServerAddr = "http://168.63.129.16"

	VersionHeader   = "x-ms-version"
	ProtocolVersion = "2012-11-30"

	AgentNameHeader  = "x-ms-agent-name"
	DefaultAgentName = "custom-provisioning"

	ContentTypeXML = "text/xml; charset=utf-8"

	GoalStatePath = "/machine?comp=goalstate"
	HealthPath    = "/machine?comp=health"

	DefaultTimeout = 30 * time.Second
)

// WireServer is the pair of calls the provisioning handshake needs.
type WireServer interface {
	// FetchGoalState returns the raw goal-state document.
	FetchGoalState() ([]byte, error)

	// ReportReady posts a readiness document.
	ReportReady(doc interfaces.ReadinessDocument) error
}

// Client implements WireServer over a Transport.
type Client struct {
	// ServerAddr is the base URL of the wireserver, without a trailing slash
	ServerAddr string

	// AgentName is sent in the x-ms-agent-name header of readiness reports
	AgentName string

	Transport Transport
}

// NewClient returns a client for serverAddr using httpClient for transport.
func NewClient(serverAddr string, httpClient *http.Client) *Client {
	return &Client{
		ServerAddr: strings.TrimRight(serverAddr, "/"),
		AgentName:  DefaultAgentName,
		Transport:  &HTTPTransport{Client: httpClient},
	}
}

func (c *Client) FetchGoalState() ([]byte, error) {
	header := http.Header{}
	header.Set(VersionHeader, ProtocolVersion)

	status, body, err := c.Transport.Send(http.MethodGet, c.ServerAddr+GoalStatePath, header, nil)
	if err != nil {
		return nil, &interfaces.TransportError{Op: interfaces.OpFetchGoalState, Err: err}
	}
	if status != http.StatusOK {
		return nil, &interfaces.ProtocolError{Op: interfaces.OpFetchGoalState, StatusCode: status}
	}
	return body, nil
}

func (c *Client) ReportReady(doc interfaces.ReadinessDocument) error {
	agentName := c.AgentName
	if agentName == "" {
		agentName = DefaultAgentName
	}

	header := http.Header{}
	header.Set(VersionHeader, ProtocolVersion)
	header.Set(AgentNameHeader, agentName)
	header.Set("Content-Type", ContentTypeXML)

	if doc == nil {
		doc = interfaces.ReadinessDocument{}
	}
	status, _, err := c.Transport.Send(http.MethodPost, c.ServerAddr+HealthPath, header, doc)
	if err != nil {
		return &interfaces.TransportError{Op: interfaces.OpReportReady, Err: err}
	}
	if status != http.StatusOK {
		return &interfaces.ProtocolError{Op: interfaces.OpReportReady, StatusCode: status}
	}
	return nil
}

// MockClient implements a mock WireServer for testing.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) FetchGoalState() ([]byte, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockClient) ReportReady(doc interfaces.ReadinessDocument) error {
	args := m.Called(doc)
	return args.Error(0)
}
