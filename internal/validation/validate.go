// Package validation holds the format checks applied to every inbound payload
// before it reaches persistence. All functions are pure: they take a payload,
// return a list of human-readable violations (empty means valid), and never
// touch I/O.
package validation

import (
	"regexp"
	"strings"
)

var (
	nameRegex               = regexp.MustCompile(`^[A-Za-z ,.'-]{2,60}$`)
	idNumberRegex           = regexp.MustCompile(`^\d{13}$`)
	accountRegex            = regexp.MustCompile(`^\d{10,20}$`)
	amountRegex             = regexp.MustCompile(`^(?:0|[1-9]\d{0,12})(?:\.\d{1,2})?$`)
	currencyRegex           = regexp.MustCompile(`^[A-Z]{3}$`)
	beneficiaryAccountRegex = regexp.MustCompile(`^[A-Z0-9]{8,34}$`)
	swiftRegex              = regexp.MustCompile(`^[A-Z]{4}[A-Z]{2}[A-Z0-9]{2}([A-Z0-9]{3})?$`)
	employeeIDRegex         = regexp.MustCompile(`^[A-Za-z0-9]{4,20}$`)

	passwordLower  = regexp.MustCompile(`[a-z]`)
	passwordUpper  = regexp.MustCompile(`[A-Z]`)
	passwordDigit  = regexp.MustCompile(`\d`)
	passwordSymbol = regexp.MustCompile(`[^a-zA-Z0-9_\s]`)
)

// RegistrationPayload is a customer registration request.
type RegistrationPayload struct {
	FullName      string
	IDNumber      string
	AccountNumber string
	Password      string
}

// LoginPayload is a customer login request; the username is the national id
// number used at registration.
type LoginPayload struct {
	Username      string
	AccountNumber string
	Password      string
}

// EmployeeLoginPayload is a staff login request.
type EmployeeLoginPayload struct {
	EmployeeID string
	Password   string
}

// PaymentPayload is a payment creation request.
type PaymentPayload struct {
	Amount             string
	Currency           string
	Provider           string
	BeneficiaryAccount string
	SwiftCode          string
}

// ValidRegistration checks a registration payload against the canonical rules.
func ValidRegistration(p RegistrationPayload) []string {
	var errs []string
	if !nameRegex.MatchString(p.FullName) {
		errs = append(errs, "Full name may only contain letters, spaces, commas, apostrophes, and hyphens (2-60 characters).")
	}
	if !idNumberRegex.MatchString(p.IDNumber) {
		errs = append(errs, "ID number must be a 13 digit South African ID.")
	}
	if !accountRegex.MatchString(p.AccountNumber) {
		errs = append(errs, "Account number must be 10-20 digits.")
	}
	if !strongPassword(p.Password) {
		errs = append(errs, "Password must be at least 12 characters and include upper, lower, digit and special character.")
	}
	return errs
}

// ValidLogin checks a customer login payload.
func ValidLogin(p LoginPayload) []string {
	var errs []string
	if !idNumberRegex.MatchString(p.Username) {
		errs = append(errs, "Username must be the 13 digit ID number used at registration.")
	}
	if !accountRegex.MatchString(p.AccountNumber) {
		errs = append(errs, "Account number must be 10-20 digits.")
	}
	if !strongPassword(p.Password) {
		errs = append(errs, "Password format is invalid.")
	}
	return errs
}

// ValidEmployeeLogin checks a staff login payload.
func ValidEmployeeLogin(p EmployeeLoginPayload) []string {
	var errs []string
	if !employeeIDRegex.MatchString(p.EmployeeID) {
		errs = append(errs, "Employee ID must be 4-20 alphanumeric characters.")
	}
	if !strongPassword(p.Password) {
		errs = append(errs, "Password format is invalid.")
	}
	return errs
}

// ValidPayment checks a payment creation payload. The currency, beneficiary
// account, and SWIFT code are compared in their uppercased forms, matching
// the normalization applied before persistence.
func ValidPayment(p PaymentPayload, providers []string) []string {
	var errs []string
	if !amountRegex.MatchString(p.Amount) {
		errs = append(errs, "Amount must be a valid number with up to two decimal places.")
	}
	if !currencyRegex.MatchString(strings.ToUpper(p.Currency)) {
		errs = append(errs, "Currency must be a 3 letter ISO code.")
	}
	if !providerAllowed(p.Provider, providers) {
		errs = append(errs, "Provider is not supported.")
	}
	if !beneficiaryAccountRegex.MatchString(strings.ToUpper(p.BeneficiaryAccount)) {
		errs = append(errs, "Beneficiary account must be 8-34 alphanumeric characters.")
	}
	if !swiftRegex.MatchString(strings.ToUpper(p.SwiftCode)) {
		errs = append(errs, "SWIFT code must follow ISO 9362.")
	}
	return errs
}

// ValidPaymentReview checks a staff status-update payload.
func ValidPaymentReview(status string, allowed []string) []string {
	normalized := strings.ToLower(strings.TrimSpace(status))
	for _, s := range allowed {
		if normalized == s {
			return nil
		}
	}
	return []string{"Status must be one of: " + strings.Join(allowed, ", ") + "."}
}

func providerAllowed(provider string, providers []string) bool {
	upper := strings.ToUpper(strings.TrimSpace(provider))
	for _, p := range providers {
		if upper == p {
			return true
		}
	}
	return false
}

// strongPassword requires >= 12 chars with at least one lowercase, one
// uppercase, one digit, and one symbol.
func strongPassword(password string) bool {
	if len(password) < 12 {
		return false
	}
	return passwordLower.MatchString(password) &&
		passwordUpper.MatchString(password) &&
		passwordDigit.MatchString(password) &&
		passwordSymbol.MatchString(password)
}
