package ledger

import (
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/the-budget-must-balance/internal/catalog"
	"github.com/Veraticus/the-budget-must-balance/internal/common"
	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

// ValidateExpense checks a new expense before it is added. The store itself
// never calls this, so callers may skip it.
func ValidateExpense(d Draft) error {
	if strings.TrimSpace(d.Category) == "" {
		return common.NewValidationError("category", "required")
	}
	if !catalog.IsCategory(d.Category) || d.Category == catalog.GrandTotal {
		return common.NewValidationError("category", "unknown statistics category "+strconv.Quote(d.Category))
	}
	if d.Date.IsZero() {
		return common.NewValidationError("date", "required")
	}
	if strings.TrimSpace(d.Title) == "" {
		return common.NewValidationError("title", "required")
	}
	if d.RCMSCode != "" && !catalog.IsRCMSCode(d.RCMSCode) {
		return common.NewValidationError("rcms_code", "unknown RCMS code "+strconv.Quote(d.RCMSCode))
	}
	if d.RCMSCode == "" && d.RCMSName != "" {
		if _, ok := catalog.CodeByName(d.RCMSName); !ok {
			return common.NewValidationError("rcms_name", "unknown RCMS item "+strconv.Quote(d.RCMSName))
		}
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, common.NewValidationError("date", "required")
	}
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, common.NewValidationError("date", "expected YYYY-MM-DD, got "+strconv.Quote(s))
	}
	return t, nil
}

// ParseAmount parses a won amount such as "1,000,000원" or "-300".
// Thousands separators, spaces and the 원 suffix are ignored and a decimal
// value is truncated toward zero.
func ParseAmount(s string) (int64, error) {
	cleaned := strings.NewReplacer(",", "", " ", "", "원", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, common.NewValidationError("amount", "required")
	}
	if n, err := strconv.ParseInt(cleaned, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, common.NewValidationError("amount", "not a number: "+strconv.Quote(s))
	}
	return int64(f), nil
}
