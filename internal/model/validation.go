package model

import "strings"

// ValidationStatus is the deliverability outcome for an address.
type ValidationStatus string

const (
	StatusValid    ValidationStatus = "valid"
	StatusCatchAll ValidationStatus = "catch-all"
	StatusUnknown  ValidationStatus = "unknown"
	StatusInvalid  ValidationStatus = "invalid"
)

// Sub-statuses set locally when the validator could not ask the provider.
const (
	SubStatusNotChecked  = "not_checked"
	SubStatusBatchFailed = "batch_failed"
	SubStatusNotReturned = "not_returned"
)

// ParseValidationStatus maps provider status strings onto the four known
// statuses. Anything unrecognized is unknown.
func ParseValidationStatus(s string) ValidationStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "valid":
		return StatusValid
	case "catch-all", "catch_all", "catchall", "accept_all", "accept-all":
		return StatusCatchAll
	case "invalid", "spamtrap", "abuse", "do_not_mail":
		return StatusInvalid
	default:
		return StatusUnknown
	}
}

// ValidationResult is produced once per unique address per run.
type ValidationResult struct {
	Address   string           `json:"address"`
	Status    ValidationStatus `json:"status"`
	SubStatus string           `json:"sub_status,omitempty"`
}

// Unknown builds an unknown result with the given sub-status.
func Unknown(addr, subStatus string) ValidationResult {
	return ValidationResult{Address: addr, Status: StatusUnknown, SubStatus: subStatus}
}
