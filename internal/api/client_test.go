package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gentlesite/gentle-phone-transfer/internal/config"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	settings := config.NewSettings()
	settings.Network.ProxyMode = config.ProxyModeNone

	client, err := NewClient(settings, nil)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestRestBase(t *testing.T) {
	tests := []struct {
		site string
		want string
	}{
		{"https://example.com", "https://example.com/wp-json/gsdt/v1/phone-transfer"},
		{"https://example.com/", "https://example.com/wp-json/gsdt/v1/phone-transfer"},
		{"https://example.com//", "https://example.com/wp-json/gsdt/v1/phone-transfer"},
		{"http://example.com/blog/", "http://example.com/blog/wp-json/gsdt/v1/phone-transfer"},
	}

	for _, tt := range tests {
		if got := RestBase(tt.site); got != tt.want {
			t.Errorf("RestBase(%q) = %q, want %q", tt.site, got, tt.want)
		}
	}
}

func TestClaimPairingSuccess(t *testing.T) {
	var gotBody ClaimRequest
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/wp-json/gsdt/v1/phone-transfer/pairing/claim" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "" {
			t.Errorf("claim must not be authenticated, got %q", auth)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if ua := r.Header.Get("User-Agent"); !strings.HasPrefix(ua, "gentle-phone-transfer/") {
			t.Errorf("User-Agent = %q", ua)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"device_token": "tok123", "device_id": "dev456"}`))
	}))
	defer server.Close()

	client := newTestClient(t)
	resp, err := client.ClaimPairing(context.Background(), server.URL+"/", ClaimRequest{
		PairingCode: "ABC123",
		DeviceID:    "local-id",
		DeviceName:  "studio-mac",
	})
	if err != nil {
		t.Fatalf("ClaimPairing() error = %v", err)
	}
	if resp.DeviceID != "dev456" || resp.DeviceToken != "tok123" {
		t.Errorf("ClaimPairing() = %+v", resp)
	}

	want := ClaimRequest{PairingCode: "ABC123", DeviceID: "local-id", DeviceName: "studio-mac"}
	if gotBody != want {
		t.Errorf("request body = %+v, want %+v", gotBody, want)
	}
}

func TestClaimPairingErrorField(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusGone)
		w.Write([]byte(`{"error": "expired"}`))
	}))
	defer server.Close()

	_, err := newTestClient(t).ClaimPairing(context.Background(), server.URL, ClaimRequest{PairingCode: "X"})
	if err == nil {
		t.Fatal("expected error for 410 response")
	}

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error type = %T, want *StatusError", err)
	}
	if se.Error() != "expired" {
		t.Errorf("Error() = %q, want %q", se.Error(), "expired")
	}
	if se.StatusCode != nethttp.StatusGone {
		t.Errorf("StatusCode = %d", se.StatusCode)
	}
}

func TestClaimPairingGenericStatusError(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"html body", "<html>Bad Gateway</html>"},
		{"json without error", `{"code": "rest_forbidden"}`},
		{"non-string error", `{"error": 42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
				w.WriteHeader(nethttp.StatusBadGateway)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(t).ClaimPairing(context.Background(), server.URL, ClaimRequest{PairingCode: "X"})
			if !IsStatusError(err) {
				t.Fatalf("error = %v, want *StatusError", err)
			}
			msg := err.Error()
			if !strings.Contains(msg, "502") {
				t.Errorf("message %q should contain status code", msg)
			}
			if !strings.Contains(msg, tt.body) {
				t.Errorf("message %q should contain raw body", msg)
			}
		})
	}
}

func TestClaimPairingIncompleteResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing token", `{"device_id": "dev456"}`},
		{"missing id", `{"device_token": "tok123"}`},
		{"empty token", `{"device_token": "", "device_id": "dev456"}`},
		{"not json", `OK`},
		{"null", `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(t).ClaimPairing(context.Background(), server.URL, ClaimRequest{PairingCode: "X"})
			if !errors.Is(err, ErrUnexpectedResponse) {
				t.Errorf("error = %v, want ErrUnexpectedResponse", err)
			}
		})
	}
}

func TestClaimPairingTransportError(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(t).ClaimPairing(context.Background(), url, ClaimRequest{PairingCode: "X"})
	if !IsTransportError(err) {
		t.Fatalf("error = %v, want *TransportError", err)
	}
}

func TestClaimPairingNoRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(nethttp.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(t).ClaimPairing(context.Background(), server.URL, ClaimRequest{PairingCode: "X"})
	if !IsStatusError(err) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("server received %d requests, want exactly 1", n)
	}
}

func TestSendHeartbeat(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{"ok", nethttp.StatusOK, true},
		{"no content", nethttp.StatusNoContent, true},
		{"unauthorized", nethttp.StatusUnauthorized, false},
		{"server error", nethttp.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			var gotBody HeartbeatRequest
			server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
				atomic.AddInt32(&calls, 1)
				if r.URL.Path != "/wp-json/gsdt/v1/phone-transfer/device/heartbeat" {
					t.Errorf("path = %s", r.URL.Path)
				}
				if auth := r.Header.Get("Authorization"); auth != "Bearer tok123" {
					t.Errorf("Authorization = %q, want Bearer tok123", auth)
				}
				data, _ := io.ReadAll(r.Body)
				if err := json.Unmarshal(data, &gotBody); err != nil {
					t.Errorf("failed to decode body %q: %v", data, err)
				}
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			ok, err := newTestClient(t).SendHeartbeat(context.Background(), server.URL, "tok123", HeartbeatRequest{
				DeviceID:       "dev456",
				UtilityVersion: "0.1.0",
				Status:         "ready",
			})
			if err != nil {
				t.Fatalf("SendHeartbeat() error = %v", err)
			}
			if ok != tt.want {
				t.Errorf("SendHeartbeat() = %v, want %v", ok, tt.want)
			}
			if n := atomic.LoadInt32(&calls); n != 1 {
				t.Errorf("server received %d requests, want 1", n)
			}
			want := HeartbeatRequest{DeviceID: "dev456", UtilityVersion: "0.1.0", Status: "ready"}
			if gotBody != want {
				t.Errorf("body = %+v, want %+v", gotBody, want)
			}
		})
	}
}

func TestSendHeartbeatTransportError(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {}))
	url := server.URL
	server.Close()

	ok, err := newTestClient(t).SendHeartbeat(context.Background(), url, "tok", HeartbeatRequest{})
	if ok {
		t.Error("SendHeartbeat() should report false on transport failure")
	}
	if !IsTransportError(err) {
		t.Errorf("error = %v, want *TransportError", err)
	}
}

func TestSendHeartbeatCancelledContext(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(t).SendHeartbeat(ctx, server.URL, "tok", HeartbeatRequest{})
	if !IsTransportError(err) {
		t.Fatalf("error = %v, want *TransportError", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want wrapped context.Canceled", err)
	}
}
