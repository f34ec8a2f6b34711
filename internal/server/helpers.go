package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"qipu/internal/models"
	"qipu/internal/policy"
	"qipu/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const (
	defaultPaginationLimit = 50
	maxPaginationLimit     = 100
)

// parsePagination extracts limit and offset query parameters.
func parsePagination(c *fiber.Ctx) repository.Page {
	limit := c.QueryInt("limit", defaultPaginationLimit)
	if limit <= 0 {
		limit = defaultPaginationLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return repository.Page{Limit: limit, Offset: offset}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid ID"))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parseBody decodes the JSON body into dst, writing a 400 on failure.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// currentUserID returns the authenticated user, or zero.
func currentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

// authorize applies table to action on obj for the current user and writes
// a 403 when it is denied.
func authorize(c *fiber.Ctx, table policy.Table, action policy.Action, obj any) error {
	if table.Allow(currentUserID(c), action, obj) {
		return nil
	}
	return forbid(c)
}

// forbid writes the 403 a denied policy check produces.
func forbid(c *fiber.Ctx) error {
	_ = models.RespondWithError(c, fiber.StatusForbidden,
		models.NewForbiddenError("You do not have permission to perform this action."))
	return errResponseWritten
}

// updateAction distinguishes PUT from PATCH.
func updateAction(c *fiber.Ctx) policy.Action {
	if c.Method() == fiber.MethodPatch {
		return policy.ActionPartialUpdate
	}
	return policy.ActionUpdate
}

// fieldSet records which columns a write touches. With full set, required
// fields that are absent are reported as missing.
type fieldSet struct {
	full    bool
	cols    []string
	missing []string
}

// has registers a required column.
func (f *fieldSet) has(col string, present bool) bool {
	if present {
		f.cols = append(f.cols, col)
		return true
	}
	if f.full {
		f.missing = append(f.missing, col)
	}
	return false
}

// opt registers an optional column.
func (f *fieldSet) opt(col string, present bool) bool {
	if present {
		f.cols = append(f.cols, col)
	}
	return present
}

func (f *fieldSet) err() error {
	if len(f.missing) == 0 {
		return nil
	}
	return models.NewValidationError("Missing required fields: " + strings.Join(f.missing, ", "))
}

// IDList is a list of ids that accepts JSON numbers and numeric strings,
// since form-encoded clients send the latter.
type IDList []uint

func (l *IDList) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*l = IDList{}
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(IDList, 0, len(raw))
	for _, r := range raw {
		id, err := parseFlexibleID(r)
		if err != nil {
			return err
		}
		out = append(out, id)
	}
	*l = out
	return nil
}

func parseFlexibleID(r json.RawMessage) (uint, error) {
	var n uint
	if err := json.Unmarshal(r, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(r, &s); err != nil {
		return 0, fmt.Errorf("invalid id %s", r)
	}
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint(v), nil
}

// NullableID distinguishes an absent field from an explicit null.
type NullableID struct {
	Set bool
	ID  *uint
}

func (n *NullableID) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(b, []byte("null")) {
		n.ID = nil
		return nil
	}
	id, err := parseFlexibleID(b)
	if err != nil {
		return err
	}
	n.ID = &id
	return nil
}

// parseTime accepts RFC 3339 timestamps.
func parseTime(field, raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, models.NewValidationError(field + " must be an RFC 3339 timestamp")
	}
	return t, nil
}

// invalid wraps a validation rule failure as a 400.
func invalid(err error) error {
	if err == nil {
		return nil
	}
	return models.NewValidationError(err.Error())
}
