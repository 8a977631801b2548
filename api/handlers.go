package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"zainzo-board/board"
	"zainzo-board/domain"
	"zainzo-board/drag"
	"zainzo-board/gtasks"
)

const requestBodyMaxSize = 1 << 20

// Register wires up all facade routes on the provided Echo instance.
func Register(e *echo.Echo, store BoardStore, dragger Dragger, auth Authenticator, logger *log.Logger) {
	e.GET("/api/board", getBoard(store, auth))
	e.POST("/api/refresh", postRefresh(store, auth, logger))

	e.POST("/api/columns", postColumn(store, auth))
	e.DELETE("/api/columns/:id", deleteColumn(store, auth))
	e.POST("/api/columns/reorder", postReorderColumns(store, auth))
	e.PUT("/api/columns/:id/color", putColumnColor(store, auth))
	e.POST("/api/columns/:id/cards", postCard(store, auth))
	e.POST("/api/columns/:id/cards/reorder", postReorderCards(store, auth))

	e.PATCH("/api/cards/:id", patchCard(store, auth))
	e.DELETE("/api/cards/:id", deleteCard(store, auth))
	e.POST("/api/cards/:id/move", postMoveCard(store, auth))

	e.POST("/api/drag/start", postDragStart(dragger, auth))
	e.POST("/api/drag/over", postDragOver(dragger, auth))
	e.POST("/api/drag/end", postDragEnd(dragger, auth))

	e.GET("/stream", streamBoard(store, auth))
	e.GET("/healthz", healthz())
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

// authorize validates the request credential. On failure it writes the 401
// response and returns the auth error, which must stop the caller; echo sees
// the response as committed and does not write again.
func authorize(c echo.Context, auth Authenticator) error {
	_, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
	if err == nil {
		return nil
	}
	if werr := c.String(http.StatusUnauthorized, err.Error()); werr != nil {
		return werr
	}
	return err
}

func decodeBody(c echo.Context, out any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	return dec.Decode(out)
}

// storeError maps engine failures onto HTTP statuses. Optimistic mutations
// that failed have already been rolled back by the store; the status tells
// the UI the remote side rejected the action.
func storeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, board.ErrEmptyTitle), errors.Is(err, board.ErrBadIndex):
		return c.String(http.StatusBadRequest, err.Error())
	case errors.Is(err, board.ErrColumnNotFound), errors.Is(err, board.ErrCardNotFound):
		return c.String(http.StatusNotFound, err.Error())
	case errors.Is(err, board.ErrCardCompleted):
		return c.String(http.StatusConflict, err.Error())
	}
	var authErr *gtasks.AuthError
	if errors.As(err, &authErr) {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	var remoteErr *gtasks.RemoteError
	if errors.As(err, &remoteErr) {
		return c.String(http.StatusBadGateway, err.Error())
	}
	c.Logger().Error(err)
	return c.String(http.StatusInternalServerError, err.Error())
}

func getBoard(store BoardStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := authorize(c, auth); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, store.Snapshot())
	}
}

// postRefresh re-hydrates the board from the remote store. The browser
// calls it on mount and whenever the document regains visibility; the
// store serializes overlapping loads internally.
func postRefresh(store BoardStore, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := authorize(c, auth); err != nil {
			return err
		}
		if err := store.Load(c.Request().Context()); err != nil {
			logger.WithError(err).Error("board refresh failed")
			return storeError(c, err)
		}
		return c.JSON(http.StatusOK, store.Snapshot())
	}
}

func postColumn(store BoardStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := authorize(c, auth); err != nil {
			return err
		}
		var body struct {
			Title string `json:"title"`
		}
		if err := decodeBody(c, &body); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		col, err := store.AddColumn(c.Request().Context(), body.Title)
		if err != nil {
			return storeError(c, err)
		}
		return c.JSON(http.StatusCreated, col)
	}
}

func deleteColumn(store BoardStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := authorize(c, auth); err != nil {
			return err
		}
		if err := store.RemoveColumn(c.Request().Context(), c.Param("id")); err != nil {
			return storeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func postReorderColumns(store BoardStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := authorize(c, auth); err != nil {
			return err
		}
		var body struct {
			OldIndex int `json:"oldIndex"`
			NewIndex int `json:"newIndex"`
		}
		if err := decodeBody(c, &body); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if err := store.ReorderColumns(body.OldIndex, body.NewIndex); err != nil {
			return storeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func putColumnColor(store BoardStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := authorize(c, auth); err != nil {
			return err
		}
		var body struct {
			Color string `json:"color"`
		}
		if err := decodeBody(c, &body); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if err := store.SetColumnColor(c.Request().Context(), c.Param("id"), body.Color); err != nil {
			return storeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func postCard(store BoardStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := authorize(c, auth); err != nil {
			return err
		}
		var fields board.CardFields
		if err := decodeBody(c, &fields); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		card, err := store.AddCard(c.Request().Context(), c.Param("id"), fields)
		if err != nil {
			return storeError(c, err)
		}
		return c.JSON(http.StatusCreated, card)
	}
}

func postReorderCards(store BoardStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := authorize(c, auth); err != nil {
			return err
		}
		var body struct {
			OldIndex int `json:"oldIndex"`
			NewIndex int `json:"newIndex"`
		}
		if err := decodeBody(c, &body); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if err := store.ReorderCards(c.Param("id"), body.OldIndex, body.NewIndex); err != nil {
			return storeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func patchCard(store BoardStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := authorize(c, auth); err != nil {
			return err
		}
		var patch domain.CardPatch
		if err := decodeBody(c, &patch); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		// Optimistic: the store applies the patch locally and batches the
		// remote sync. Unknown ids are a silent no-op.
		store.UpdateCard(c.Param("id"), patch)
		return c.NoContent(http.StatusAccepted)
	}
}

func deleteCard(store BoardStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := authorize(c, auth); err != nil {
			return err
		}
		if err := store.RemoveCard(c.Request().Context(), c.Param("id")); err != nil {
			return storeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func postMoveCard(store BoardStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := authorize(c, auth); err != nil {
			return err
		}
		var body struct {
			FromColumnID string `json:"fromColumnId"`
			ToColumnID   string `json:"toColumnId"`
		}
		if err := decodeBody(c, &body); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if err := store.MoveCard(c.Request().Context(), c.Param("id"), body.FromColumnID, body.ToColumnID); err != nil {
			return storeError(c, err)
		}
		return c.JSON(http.StatusOK, store.Snapshot())
	}
}

type dragPayload struct {
	Kind     string `json:"kind"`
	CardID   string `json:"cardId,omitempty"`
	ColumnID string `json:"columnId,omitempty"`
}

func (p dragPayload) item() drag.Item {
	return drag.Item{Kind: drag.ParseKind(p.Kind), CardID: p.CardID, ColumnID: p.ColumnID}
}

func postDragStart(dragger Dragger, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := authorize(c, auth); err != nil {
			return err
		}
		var body dragPayload
		if err := decodeBody(c, &body); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		dragger.Start(body.item())
		return c.NoContent(http.StatusAccepted)
	}
}

func postDragOver(dragger Dragger, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := authorize(c, auth); err != nil {
			return err
		}
		var body dragPayload
		if err := decodeBody(c, &body); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		dragger.Over(body.item())
		return c.NoContent(http.StatusAccepted)
	}
}

func postDragEnd(dragger Dragger, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := authorize(c, auth); err != nil {
			return err
		}
		var body dragPayload
		if err := decodeBody(c, &body); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if err := dragger.End(c.Request().Context(), body.item()); err != nil {
			return storeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
