package handlers

import (
	"strconv"
	"time"

	"shg-finance/internal/core/domain"
	"shg-finance/internal/pkg/timeutil"

	"github.com/gofiber/fiber/v2"
)

// paramID parses a positive numeric path parameter
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, domain.NewValidationError(name, "must be a positive integer")
	}
	return uint(id), nil
}

// queryUint parses an optional numeric query parameter
func queryUint(c *fiber.Ctx, key string) (*uint, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || v == 0 {
		return nil, domain.NewValidationError(key, "must be a positive integer")
	}
	id := uint(v)
	return &id, nil
}

// queryDate parses an optional YYYY-MM-DD query parameter as an IST calendar day
func queryDate(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	d, err := timeutil.ParseDate(raw)
	if err != nil {
		return nil, domain.NewValidationError(key, "must be a date in YYYY-MM-DD format")
	}
	return &d, nil
}
