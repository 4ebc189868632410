package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/settlement/internal/clock"
)

const dateOnlyLayout = "2006-01-02"

func parseStoreID(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, newValidationError("store_id", "required", "store_id is required")
	}
	parsed, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || parsed <= 0 {
		return 0, newValidationError("store_id", "invalid_store", "store_id must be a positive integer")
	}
	return parsed, nil
}

func parseSettlementID(value string) (snowflake.ID, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return 0, newValidationError("id", "invalid_id", "invalid id")
	}
	return parsed, nil
}

func parseNonNegativeInt64(field, value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, newValidationError(field, "required", field+" is required")
	}
	parsed, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || parsed < 0 {
		return 0, newValidationError(field, "invalid_"+field, field+" must be a non-negative integer")
	}
	return parsed, nil
}

func parseOptionalInt(value string, def int) (int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return def, nil
	}
	return strconv.Atoi(trimmed)
}

// parseDate reads a YYYY-MM-DD calendar date in loc.
func parseDate(field, value string, loc *time.Location) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, newValidationError(field, "required", field+" is required")
	}
	parsed, err := time.ParseInLocation(dateOnlyLayout, trimmed, loc)
	if err != nil {
		return time.Time{}, newValidationError(field, "invalid_date", field+" must be YYYY-MM-DD")
	}
	return parsed, nil
}

// parsePastDate is parseDate that also rejects days after today.
func (s *Server) parsePastDate(field, value string) (time.Time, error) {
	parsed, err := parseDate(field, value, s.loc)
	if err != nil {
		return time.Time{}, err
	}
	if parsed.After(clock.StartOfDay(s.clock.Now(), s.loc)) {
		return time.Time{}, newValidationError(field, "future_date", field+" must not be in the future")
	}
	return parsed, nil
}

func parseOptionalDate(field, value string, loc *time.Location) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	parsed, err := parseDate(field, value, loc)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
