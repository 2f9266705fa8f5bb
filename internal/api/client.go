package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/gentlesite/gentle-phone-transfer/internal/config"
	"github.com/gentlesite/gentle-phone-transfer/internal/constants"
	"github.com/gentlesite/gentle-phone-transfer/internal/http"
	"github.com/gentlesite/gentle-phone-transfer/internal/logging"
	"github.com/gentlesite/gentle-phone-transfer/internal/version"
)

// retryLogger implements the retryablehttp.LeveledLogger interface
type retryLogger struct {
	logger *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	// Only log errors and warnings, not all info
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}

// ClaimRequest is the body of POST {base}/pairing/claim.
type ClaimRequest struct {
	PairingCode string `json:"pairing_code"`
	DeviceID    string `json:"device_id"`
	DeviceName  string `json:"device_name"`
}

// ClaimResponse carries the credentials issued by the site.
type ClaimResponse struct {
	DeviceID    string
	DeviceToken string
}

// HeartbeatRequest is the body of POST {base}/device/heartbeat.
type HeartbeatRequest struct {
	DeviceID       string `json:"device_id"`
	UtilityVersion string `json:"utility_version"`
	Status         string `json:"status"`
}

// Client talks to the phone-transfer REST API of a paired site.
// It is stateless per call; the site is passed to every operation.
type Client struct {
	httpClient *nethttp.Client
	userAgent  string
	logger     *logging.Logger
}

// NewClient creates an API client using the network settings.
func NewClient(settings *config.Settings, logger *logging.Logger) (*Client, error) {
	httpClient, err := http.NewClient(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}
	return NewClientWithHTTP(httpClient, logger), nil
}

// NewClientWithHTTP creates an API client on top of an existing HTTP client.
func NewClientWithHTTP(httpClient *nethttp.Client, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.Logger = &retryLogger{logger: logger}

	// Pairing codes are single-use and heartbeats are periodic: never replay a request
	retryClient.RetryMax = 0
	retryClient.CheckRetry = func(ctx context.Context, resp *nethttp.Response, err error) (bool, error) {
		return false, nil
	}
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		httpClient: retryClient.StandardClient(),
		userAgent:  fmt.Sprintf("%s/%s", constants.AppName, version.Version),
		logger:     logger,
	}
}

// RestBase returns the REST base for a site: trailing slashes stripped,
// then the phone-transfer API path appended.
func RestBase(site string) string {
	return strings.TrimRight(site, "/") + constants.RESTPath
}

// ClaimPairing exchanges a pairing code for device credentials.
func (c *Client) ClaimPairing(ctx context.Context, site string, claim ClaimRequest) (*ClaimResponse, error) {
	url := RestBase(site) + constants.ClaimPath

	resp, err := c.doRequest(ctx, nethttp.MethodPost, url, "", claim)
	if err != nil {
		return nil, &TransportError{Op: "pairing claim", URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, constants.MaxResponseBodyBytes))
	if err != nil {
		return nil, &TransportError{Op: "pairing claim", URL: url, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if !isSuccess(resp.StatusCode) {
		c.logger.Debug().Int("status", resp.StatusCode).Msg("Pairing claim rejected")
		return nil, newStatusError(resp, body)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}

	result := &ClaimResponse{
		DeviceID:    stringField(payload, "device_id"),
		DeviceToken: stringField(payload, "device_token"),
	}
	if result.DeviceID == "" || result.DeviceToken == "" {
		return nil, ErrUnexpectedResponse
	}

	return result, nil
}

// SendHeartbeat reports liveness with bearer authentication. It returns
// whether the site answered with a success status; only transport failures
// are errors.
func (c *Client) SendHeartbeat(ctx context.Context, site, token string, hb HeartbeatRequest) (bool, error) {
	url := RestBase(site) + constants.HeartbeatPath

	resp, err := c.doRequest(ctx, nethttp.MethodPost, url, token, hb)
	if err != nil {
		return false, &TransportError{Op: "heartbeat", URL: url, Err: err}
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, constants.MaxResponseBodyBytes))

	if !isSuccess(resp.StatusCode) {
		c.logger.Debug().Int("status", resp.StatusCode).Msg("Heartbeat not accepted")
		return false, nil
	}
	return true, nil
}

// doRequest performs a JSON request, with bearer authentication when token is set
func (c *Client) doRequest(ctx context.Context, method, url, token string, body interface{}) (*nethttp.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug().Str("method", method).Str("url", url).Msg("API call")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("method", method).Str("url", url).Msg("API call failed")
		return nil, err
	}
	return resp, nil
}

// newStatusError builds the error for a non-success response, preferring the
// site's own "error" message.
func newStatusError(resp *nethttp.Response, body []byte) *StatusError {
	se := &StatusError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(body),
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg, ok := payload["error"].(string); ok {
			se.Message = msg
			return se
		}
	}

	se.Message = fmt.Sprintf("Pair failed (%s): %s", resp.Status, se.Body)
	return se
}

func stringField(payload map[string]interface{}, key string) string {
	s, _ := payload[key].(string)
	return s
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
