package wireserver

import (
	"bytes"
	"io"
	"net/http"
	"time"
)

// Transport performs a single HTTP exchange and returns the status code and body.
// It does not interpret the status.
type Transport interface {
	Send(method, url string, header http.Header, body []byte) (int, []byte, error)
}

// HTTPTransport implements Transport on top of net/http.
type HTTPTransport struct {
	Client *http.Client
}

// NewHTTPClient returns a client with the given per-request timeout. The wireserver
// is reached over plain HTTP on a link-local address, so proxies are not consulted.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

func (t *HTTPTransport) Send(method, url string, header http.Header, body []byte) (int, []byte, error) {
	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return 0, nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.ContentLength = int64(len(body))
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, respBody, nil
}
