package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Bhawani9828/slack-clone-sub001/tools/errs"
)

const DefaultFCMEndpoint = "https://fcm.googleapis.com/fcm/send"

// Sender pushes one payload to one device token.
type Sender interface {
	Send(ctx context.Context, b TokenBinding, p Payload) error
}

// fcmRequest is the legacy HTTP v0 message shape.
type fcmRequest struct {
	To           string       `json:"to"`
	Notification Notification `json:"notification"`
	Data         Data         `json:"data"`
	Priority     string       `json:"priority"`
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		Error string `json:"error"`
	} `json:"results"`
}

// FCMSender delivers payloads over the FCM legacy HTTP endpoint
// authenticated with a server key.
type FCMSender struct {
	Endpoint  string
	ServerKey string
	Client    *http.Client
}

func NewFCMSender(endpoint, serverKey string) *FCMSender {
	if endpoint == "" {
		endpoint = DefaultFCMEndpoint
	}
	return &FCMSender{
		Endpoint:  endpoint,
		ServerKey: serverKey,
		Client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *FCMSender) Send(ctx context.Context, b TokenBinding, p Payload) error {
	body, err := json.Marshal(fcmRequest{
		To:           b.Token,
		Notification: p.Notification,
		Data:         p.Data,
		Priority:     "high",
	})
	if err != nil {
		return errs.Wrap(err, "push: encode fcm request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(body))
	if err != nil {
		return errs.Wrap(err, "push: build fcm request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+s.ServerKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return errs.ErrPushSend.WithDetail(err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errs.ErrPushSend.WithDetail(fmt.Sprintf("fcm status %d", resp.StatusCode))
	}
	var fr fcmResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&fr); err != nil {
		return errs.Wrap(err, "push: decode fcm response")
	}
	if fr.Failure > 0 {
		detail := "delivery failed"
		if len(fr.Results) > 0 && fr.Results[0].Error != "" {
			detail = fr.Results[0].Error
		}
		return errs.ErrPushSend.WithDetail(detail)
	}
	return nil
}
