package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFCMSenderPostsLegacyShape(t *testing.T) {
	var got fcmRequest
	var auth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"success":1,"failure":0}`))
	}))
	defer ts.Close()

	s := NewFCMSender(ts.URL, "server-key")
	err := s.Send(context.Background(), TokenBinding{Token: "tok-1"}, Payload{
		Notification: Notification{Title: "Alice", Body: "hello"},
		Data:         Data{Type: DataTypeMessage, SenderID: "alice"},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if auth != "key=server-key" {
		t.Fatalf("auth header = %q", auth)
	}
	if got.To != "tok-1" || got.Notification.Title != "Alice" || got.Data.SenderID != "alice" {
		t.Fatalf("request = %+v", got)
	}
}

func TestFCMSenderReportsUpstreamFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":0,"failure":1,"results":[{"error":"NotRegistered"}]}`))
	}))
	defer ts.Close()

	s := NewFCMSender(ts.URL, "k")
	if err := s.Send(context.Background(), TokenBinding{Token: "t"}, Payload{}); err == nil {
		t.Fatal("failure result should surface as an error")
	}
}

func TestFCMSenderReportsHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	s := NewFCMSender(ts.URL, "bad")
	if err := s.Send(context.Background(), TokenBinding{Token: "t"}, Payload{}); err == nil {
		t.Fatal("non-200 should surface as an error")
	}
}
