package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	domain "github.com/horacerta/agenda-scheduler/internal/domain/booking"
	"github.com/horacerta/agenda-scheduler/internal/models"
)

const (
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleCalendarAPI = "https://www.googleapis.com/calendar/v3"
)

// GoogleGateway fala com o Google Calendar via REST: troca o refresh
// token por um access token, consulta free/busy e insere eventos.
// Todas as chamadas são limitadas pelo timeout do client; estourou,
// abandona e loga; nenhum token de cancelamento é propagado além
// disso.
type GoogleGateway struct {
	clientID     string
	clientSecret string
	http         *http.Client
}

func NewGoogleGateway(clientID, clientSecret string, timeout time.Duration) *GoogleGateway {
	return &GoogleGateway{
		clientID:     clientID,
		clientSecret: clientSecret,
		http:         &http.Client{Timeout: timeout},
	}
}

// --------------------------------------------------
// OAuth
// --------------------------------------------------

func (g *GoogleGateway) accessToken(ctx context.Context, biz *models.Business) (string, error) {
	if biz.GoogleRefreshToken == "" || g.clientID == "" || g.clientSecret == "" {
		return "", ErrNoCredential
	}

	form := url.Values{}
	form.Set("client_id", g.clientID)
	form.Set("client_secret", g.clientSecret)
	form.Set("refresh_token", biz.GoogleRefreshToken)
	form.Set("grant_type", "refresh_token")

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		googleTokenURL,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		// refresh token revogado/expirado → mesma condição de
		// credencial ausente, o chamador degrada
		return "", ErrNoCredential
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("calendar: token exchange returned %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.AccessToken == "" {
		return "", ErrNoCredential
	}

	return body.AccessToken, nil
}

func (g *GoogleGateway) calendarID(biz *models.Business) string {
	if biz.GoogleCalendarID != "" {
		return biz.GoogleCalendarID
	}
	return "primary"
}

// --------------------------------------------------
// Free/busy
// --------------------------------------------------

func (g *GoogleGateway) GetBusyIntervals(
	ctx context.Context,
	biz *models.Business,
	windowStart time.Time,
	windowEnd time.Time,
) ([]domain.Interval, error) {

	token, err := g.accessToken(ctx, biz)
	if err != nil {
		return nil, err
	}

	calID := g.calendarID(biz)

	payload := map[string]any{
		"timeMin": windowStart.Format(time.RFC3339),
		"timeMax": windowEnd.Format(time.RFC3339),
		"items":   []map[string]string{{"id": calID}},
	}

	var body struct {
		Calendars map[string]struct {
			Busy []struct {
				Start time.Time `json:"start"`
				End   time.Time `json:"end"`
			} `json:"busy"`
		} `json:"calendars"`
	}

	if err := g.postJSON(ctx, token, googleCalendarAPI+"/freeBusy", payload, &body); err != nil {
		return nil, err
	}

	var busy []domain.Interval
	for _, b := range body.Calendars[calID].Busy {
		busy = append(busy, domain.Interval{Start: b.Start, End: b.End})
	}

	return busy, nil
}

// --------------------------------------------------
// Event push
// --------------------------------------------------

func (g *GoogleGateway) PushEvent(
	ctx context.Context,
	biz *models.Business,
	b *models.Booking,
) (string, error) {

	token, err := g.accessToken(ctx, biz)
	if err != nil {
		return "", err
	}

	payload := map[string]any{
		"summary":     fmt.Sprintf("%s — %s", b.Service.Name, b.ClientName),
		"description": b.Notes,
		"start":       map[string]string{"dateTime": b.StartTime.Format(time.RFC3339)},
		"end":         map[string]string{"dateTime": b.EndTime.Format(time.RFC3339)},
	}

	var body struct {
		ID string `json:"id"`
	}

	endpoint := fmt.Sprintf(
		"%s/calendars/%s/events",
		googleCalendarAPI,
		url.PathEscape(g.calendarID(biz)),
	)

	if err := g.postJSON(ctx, token, endpoint, payload, &body); err != nil {
		return "", err
	}
	if body.ID == "" {
		return "", fmt.Errorf("calendar: event insert returned no id")
	}

	return body.ID, nil
}

// --------------------------------------------------
// HTTP helper
// --------------------------------------------------

func (g *GoogleGateway) postJSON(
	ctx context.Context,
	token string,
	endpoint string,
	payload any,
	out any,
) error {

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("calendar: %s returned %d", endpoint, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// Compile-time check
var _ Gateway = (*GoogleGateway)(nil)
