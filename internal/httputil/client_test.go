package httputil

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"testing"
)

func TestMockClientReturnsQueuedResponses(t *testing.T) {
	client := NewMockHTTPClient().
		AddResponse(http.StatusOK, "first").
		AddResponse(http.StatusBadGateway, "second")

	req, _ := http.NewRequest(http.MethodGet, "http://example.test/", nil)

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "first" {
		t.Errorf("first response = %d %q", resp.StatusCode, body)
	}

	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("second status = %d, want 502", resp.StatusCode)
	}
}

func TestMockClientErrorResponse(t *testing.T) {
	wantErr := errors.New("connection refused")
	client := NewMockHTTPClient().AddErrorResponse(wantErr)

	req, _ := http.NewRequest(http.MethodPost, "http://example.test/", nil)
	if _, err := client.Do(req); !errors.Is(err, wantErr) {
		t.Errorf("Do err = %v, want %v", err, wantErr)
	}
}

func TestMockClientRecordsRequestBodies(t *testing.T) {
	client := NewMockHTTPClient()

	req, _ := http.NewRequest(http.MethodPost, "http://example.test/update",
		bytes.NewReader([]byte(`{"hardhat":1}`)))
	if _, err := client.Do(req); err != nil {
		t.Fatalf("Do: %v", err)
	}

	if client.RequestCount() != 1 {
		t.Fatalf("RequestCount = %d, want 1", client.RequestCount())
	}
	if got := string(client.RequestBody(0)); got != `{"hardhat":1}` {
		t.Errorf("recorded body = %q", got)
	}
	if client.RequestBody(5) != nil {
		t.Error("out-of-range body should be nil")
	}
}

func TestMockClientDefaultsToOK(t *testing.T) {
	client := NewMockHTTPClient()
	req, _ := http.NewRequest(http.MethodGet, "http://example.test/", nil)

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("default status = %d, want 200", resp.StatusCode)
	}
}
