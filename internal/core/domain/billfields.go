package domain

import (
	"encoding/json"
	"fmt"
)

// BillFieldKeys are the exact keys the extraction service must return,
// each mapped to a string or null.
var BillFieldKeys = []string{
	"billed_name",
	"provider_name",
	"account_number",
	"invoice_number",
	"address",
	"total_owed",
	"due_date",
	"billing_period",
	"usage_kwh",
	"charges_total",
	"nmi",
}

// ParseBillFields validates a raw extraction response against the field
// contract: a single JSON object with exactly the expected keys and no
// others, every value a string or null. Anything else is rejected
// outright; no partial result is salvaged.
func ParseBillFields(raw string) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, WrapError(ErrInvalidInput, "parse bill fields", fmt.Errorf("response is not a JSON object: %w", err))
	}

	if len(fields) != len(BillFieldKeys) {
		return nil, WrapError(ErrInvalidInput, "parse bill fields",
			fmt.Errorf("expected %d keys, got %d", len(BillFieldKeys), len(fields)))
	}
	for _, key := range BillFieldKeys {
		value, ok := fields[key]
		if !ok {
			return nil, WrapError(ErrInvalidInput, "parse bill fields", fmt.Errorf("missing key %q", key))
		}
		if value == nil {
			continue
		}
		if _, ok := value.(string); !ok {
			return nil, WrapError(ErrInvalidInput, "parse bill fields",
				fmt.Errorf("key %q must be string or null, got %T", key, value))
		}
	}
	return fields, nil
}
