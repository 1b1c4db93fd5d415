package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WhatsAppSender envia mensagens de texto pela Cloud API do WhatsApp
// (graph.facebook.com). Sem token configurado, vira um no-op logável
// pelo dispatcher, então a API nunca quebra por causa de notificação.
type WhatsAppSender struct {
	token         string
	phoneNumberID string
	http          *http.Client
}

func NewWhatsAppSender(token, phoneNumberID string) *WhatsAppSender {
	return &WhatsAppSender{
		token:         token,
		phoneNumberID: phoneNumberID,
		http:          &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *WhatsAppSender) Send(ctx context.Context, msg Message) error {
	if s.token == "" || s.phoneNumberID == "" {
		return fmt.Errorf("whatsapp: missing access token")
	}

	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                msg.To,
		"type":              "text",
		"text":              map[string]string{"body": msg.Body},
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("https://graph.facebook.com/v17.0/%s/messages", s.phoneNumberID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("whatsapp: API returned %d", resp.StatusCode)
	}

	return nil
}

// Compile-time check
var _ Sender = (*WhatsAppSender)(nil)
