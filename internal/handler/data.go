package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lostpaws/pawserver/internal/errs"
	"github.com/lostpaws/pawserver/internal/middleware"
	"github.com/lostpaws/pawserver/internal/service"
)

// Data handles the /data/:collection endpoints.
type Data struct {
	svc *service.Data
}

func NewData(svc *service.Data) *Data {
	return &Data{svc: svc}
}

// Collections lists the available collection names.
func (h *Data) Collections(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Collections())
}

// Get serves a whole collection or a single record, shaped by the query
// parameters.
func (h *Data) Get(c echo.Context) error {
	result, err := h.svc.Get(middleware.CallerFrom(c), c.Param("collection"), c.Param("id"), c.QueryParams())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Create stores a new record in the collection.
func (h *Data) Create(c echo.Context) error {
	body, err := bindRecord(c)
	if err != nil {
		return err
	}
	record, err := h.svc.Create(middleware.CallerFrom(c), c.Param("collection"), body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, record)
}

// CreateWithID rejects POSTs that address an existing record.
func (h *Data) CreateWithID(c echo.Context) error {
	return errs.Request("Use PUT to update records")
}

// Replace overwrites a record.
func (h *Data) Replace(c echo.Context) error {
	body, err := bindRecord(c)
	if err != nil {
		return err
	}
	record, err := h.svc.Replace(middleware.CallerFrom(c), c.Param("collection"), c.Param("id"), body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, record)
}

// Patch merges fields into a record.
func (h *Data) Patch(c echo.Context) error {
	body, err := bindRecord(c)
	if err != nil {
		return err
	}
	record, err := h.svc.Patch(middleware.CallerFrom(c), c.Param("collection"), c.Param("id"), body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, record)
}

// Delete removes a record and returns its deletion stamp.
func (h *Data) Delete(c echo.Context) error {
	record, err := h.svc.Delete(middleware.CallerFrom(c), c.Param("collection"), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, record)
}

// MissingID rejects writes that do not address a record.
func (h *Data) MissingID(c echo.Context) error {
	return errs.Request("Missing entry ID")
}

// TooDeep rejects paths with more segments than collection and id.
func (h *Data) TooDeep(c echo.Context) error {
	return errs.Request()
}
