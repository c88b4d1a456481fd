package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chitieu/internal/core"
)

func decodeTriggers(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	header := rec.Header().Get("HX-Trigger")
	for i := 0; i < len(header); i++ {
		if header[i] >= 0x80 {
			t.Fatalf("HX-Trigger must be ASCII: %q", header)
		}
	}
	var got map[string]json.RawMessage
	if err := json.Unmarshal([]byte(header), &got); err != nil {
		t.Fatalf("HX-Trigger %q is not JSON: %v", header, err)
	}
	return got
}

func TestResponseWithoutTriggers(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHTMXResponse().BodyHTML("<p>ok</p>").Write(rec)

	if rec.Code != http.StatusOK || rec.Body.String() != "<p>ok</p>" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("HX-Trigger") != "" {
		t.Error("HX-Trigger should be absent without triggers")
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
		t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
	}
}

func TestTransactionCreatedTriggers(t *testing.T) {
	rec := httptest.NewRecorder()
	tx := core.Transaction{Date: core.NewDate(2025, 5, 3), Category: "Ăn uống", Amount: core.Money{Units: 45000}}

	NewHTMXResponse().
		TriggerTransactionCreated(tx).
		TriggerFormReset().
		TriggerSuccessNotification("Đã lưu 🎉").
		Write(rec)

	got := decodeTriggers(t, rec)
	for _, ev := range []string{EventTransactionCreated, EventFormReset, EventNotification} {
		if _, ok := got[ev]; !ok {
			t.Errorf("HX-Trigger missing %q", ev)
		}
	}

	var created map[string]string
	if err := json.Unmarshal(got[EventTransactionCreated], &created); err != nil {
		t.Fatal(err)
	}
	if created["date"] != "2025-05-03" || created["category"] != "Ăn uống" {
		t.Errorf("transaction:created payload = %v", created)
	}

	var n Notification
	if err := json.Unmarshal(got[EventNotification], &n); err != nil {
		t.Fatal(err)
	}
	if n.Level != "success" || n.Message != "Đã lưu 🎉" || n.Duration != 3000 {
		t.Errorf("notification = %+v", n)
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		status  int
		message string
		want    string
	}{
		{http.StatusUnprocessableEntity, "Ghi chú quá dài.", "Ghi chú quá dài."},
		{http.StatusBadGateway, "down", "down"},
		{http.StatusBadRequest, "<script>alert('x')</script>", "&lt;script&gt;alert(&#39;x&#39;)&lt;/script&gt;"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		ErrorResponse(tt.status, tt.message).TriggerErrorNotification(tt.message).Write(rec)

		if rec.Code != tt.status {
			t.Errorf("status = %d, want %d", rec.Code, tt.status)
		}
		if want := `<div class="error" role="alert">` + tt.want + `</div>`; rec.Body.String() != want {
			t.Errorf("body = %q, want %q", rec.Body.String(), want)
		}
		var n Notification
		if err := json.Unmarshal(decodeTriggers(t, rec)[EventNotification], &n); err != nil || n.Level != "error" {
			t.Errorf("notification = %+v, err %v", n, err)
		}
	}
}

func TestMethodNotAllowedError(t *testing.T) {
	rec := httptest.NewRecorder()
	MethodNotAllowedError("POST").Write(rec)

	if rec.Code != http.StatusMethodNotAllowed || rec.Header().Get("Allow") != "POST" {
		t.Errorf("got %d allow=%q", rec.Code, rec.Header().Get("Allow"))
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q", rec.Body.String())
	}
}
