package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lostpaws/pawserver/internal/errs"
	"github.com/lostpaws/pawserver/internal/service"
)

// JSONStore handles the /jsonstore endpoints. The whole subtree is routed
// through Handle because the path depth is unbounded.
type JSONStore struct {
	svc *service.JSONStore
}

func NewJSONStore(svc *service.JSONStore) *JSONStore {
	return &JSONStore{svc: svc}
}

// Handle dispatches on the HTTP method, using everything after /jsonstore as
// the path into the tree.
func (h *JSONStore) Handle(c echo.Context) error {
	path := pathTokens(c.Param("*"))

	switch c.Request().Method {
	case http.MethodGet:
		// The tree root is not addressable over the wire; reading it
		// answers like any other missing path.
		if len(path) == 0 {
			return c.NoContent(http.StatusNoContent)
		}
		value, found := h.svc.Get(path)
		if !found {
			return c.NoContent(http.StatusNoContent)
		}
		return c.JSON(http.StatusOK, value)
	case http.MethodPost:
		body, err := bindObject(c)
		if err != nil {
			return err
		}
		entry, err := h.svc.Post(path, body)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, entry)
	case http.MethodPut:
		var body any
		if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
			return errs.Request()
		}
		value, err := h.svc.Put(path, body)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, value)
	case http.MethodPatch:
		body, err := bindObject(c)
		if err != nil {
			return err
		}
		value, err := h.svc.Patch(path, body)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, value)
	case http.MethodDelete:
		return c.JSON(http.StatusOK, h.svc.Delete(path))
	default:
		return errs.Request()
	}
}

func bindObject(c echo.Context) (map[string]any, error) {
	var body map[string]any
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return nil, errs.Request()
	}
	return body, nil
}

func pathTokens(raw string) []string {
	var tokens []string
	for _, t := range strings.Split(raw, "/") {
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}
