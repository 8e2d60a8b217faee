package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, http.StatusBadRequest, "Missing URL parameter")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type: %s", ct)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != `{"error":"Missing URL parameter"}` {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestRespondErrorDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondErrorDetails(rec, http.StatusInternalServerError, "Failed to fetch image", "dial tcp: refused")

	body := rec.Body.String()
	if !strings.Contains(body, `"details":"dial tcp: refused"`) || !strings.Contains(body, `"error":"Failed to fetch image"`) {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Message string `json:"message"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"message":"hi"}`))
	if err := DecodeJSON(req, &dst); err != nil || dst.Message != "hi" {
		t.Fatalf("decode failed: %v %+v", err, dst)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if err := DecodeJSON(req, &dst); err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("expected empty body error, got %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	if err := DecodeJSON(req, &dst); err == nil {
		t.Fatal("expected error for malformed body")
	}
}

func TestSendSSEEvent(t *testing.T) {
	rec := httptest.NewRecorder()
	SetupSSEHeaders(rec)

	if err := SendSSEEvent(rec, rec, "status", map[string]string{"status": "queued"}); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if got := rec.Body.String(); got != "event: status\ndata: {\"status\":\"queued\"}\n\n" {
		t.Fatalf("unexpected frame: %q", got)
	}
	if !rec.Flushed {
		t.Fatal("expected flush")
	}
	if rec.Header().Get("Content-Type") != "text/event-stream" {
		t.Fatal("missing sse content type")
	}
}
