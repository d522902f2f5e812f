package circuitbreaker

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

var errServerStatus = errors.New("upstream server error")

// HTTPClient is an http.Client whose requests pass through a breaker.
// 5xx responses count as failures but are still returned to the caller.
type HTTPClient struct {
	client  *http.Client
	breaker *Breaker
	log     *zap.Logger
}

func NewHTTPClient(client *http.Client, breaker *Breaker, log *zap.Logger) *HTTPClient {
	if client == nil {
		client = &http.Client{Timeout: 90 * time.Second}
	}
	return &HTTPClient{client: client, breaker: breaker, log: log}
}

func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	resp, err := Execute(c.breaker, func() (*http.Response, error) {
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return resp, fmt.Errorf("%w: %d", errServerStatus, resp.StatusCode)
		}
		return resp, nil
	})

	switch {
	case err == nil:
		return resp, nil
	case errors.Is(err, errServerStatus):
		return resp, nil
	case IsOpen(err):
		c.log.Warn("Circuit breaker open, request blocked",
			zap.String("host", req.URL.Host),
			zap.String("breaker", c.breaker.Name()),
		)
	}
	return nil, err
}
