package cli

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"inkpad/internal/common"
)

type changeEvent struct {
	Type       string `json:"type"`
	DocumentID string `json:"document_id"`
}

// StartChangeSubscription keeps a websocket subscription to the server's
// change feed and refreshes the document collection whenever another
// session creates, updates or deletes a document. It reconnects with a
// fixed backoff until ctx is cancelled or the app logs out.
func (a *App) StartChangeSubscription(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		token := a.accessToken()
		if token == "" || !a.isLoggedIn() {
			select {
			case <-time.After(time.Second):
				continue
			case <-ctx.Done():
				return
			}
		}

		a.consumeChanges(ctx, token)

		select {
		case <-time.After(3 * time.Second):
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) consumeChanges(ctx context.Context, token string) {
	wsURL, err := wsEndpoint(a.config.ServerEndpointAddr, token)
	if err != nil {
		a.logger.Error(ctx, "bad server endpoint", "err", err)
		return
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		a.logger.Debug(ctx, "change subscription unavailable", "err", err)
		return
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var ev changeEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			continue
		}
		if err := a.refreshDocuments(ctx); err != nil {
			a.logger.Debug(ctx, "refresh after change failed", "err", err)
		}
	}
}

// wsEndpoint turns the configured http(s) base URL into the ws(s) URL of
// the change feed, carrying the access token as a query parameter.
func wsEndpoint(base, token string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	q := u.Query()
	q.Set(common.AccessTokenQueryParam, token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
