package api

import (
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"

	"zainzo-board/domain"
)

const streamHeartbeat = 30 * time.Second

type streamFrame struct {
	Event domain.Event `json:"event"`
	Board domain.Board `json:"board"`
}

// streamBoard pushes board events over SSE, each frame carrying the event
// that woke it plus a fresh snapshot. Slow consumers drop events at the
// broker, so the snapshot is what keeps them convergent.
func streamBoard(store BoardStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		// EventSource cannot set request headers; accept the token as a
		// query parameter too.
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			if token := c.QueryParam("token"); token != "" {
				header = "Bearer " + token
			}
		}
		if _, err := auth.UserIDFromAuthHeader(header); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
		c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
		c.Response().Header().Set("X-Accel-Buffering", "no")
		c.Response().WriteHeader(http.StatusOK)
		flusher, ok := c.Response().Writer.(http.Flusher)
		if !ok {
			return c.String(http.StatusInternalServerError, "stream unsupported")
		}

		events := store.Broker().Subscribe()
		defer store.Broker().Unsubscribe(events)

		// Initial frame so a reconnecting client never renders stale state.
		if err := writeFrame(c, flusher, streamFrame{
			Event: domain.Event{Type: domain.BoardLoaded},
			Board: store.Snapshot(),
		}); err != nil {
			return nil
		}

		ctx := c.Request().Context()
		ticker := time.NewTicker(streamHeartbeat)
		defer ticker.Stop()
		for {
			select {
			case ev := <-events:
				if err := writeFrame(c, flusher, streamFrame{Event: ev, Board: store.Snapshot()}); err != nil {
					return nil
				}
			case <-ticker.C:
				// Comment heartbeat keeps proxies from dropping the connection.
				if _, err := c.Response().Write([]byte(":keepalive\n\n")); err != nil {
					return nil
				}
				flusher.Flush()
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func writeFrame(c echo.Context, flusher http.Flusher, frame streamFrame) error {
	data, err := sonic.Marshal(frame)
	if err != nil {
		return err
	}
	if _, err := c.Response().Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := c.Response().Write(data); err != nil {
		return err
	}
	if _, err := c.Response().Write([]byte("\n\n")); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
