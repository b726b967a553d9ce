package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var providers = []string{"SWIFT", "SEPA", "FEDWIRE"}

func TestValidRegistration(t *testing.T) {
	valid := RegistrationPayload{
		FullName:      "Nomsa Dlamini",
		IDNumber:      "9202204720082",
		AccountNumber: "62831447001",
		Password:      "Str0ng!Passw0rd",
	}
	assert.Empty(t, ValidRegistration(valid))

	tests := []struct {
		name   string
		mutate func(*RegistrationPayload)
	}{
		{"empty name", func(p *RegistrationPayload) { p.FullName = "" }},
		{"name with digits", func(p *RegistrationPayload) { p.FullName = "N0msa Dlamini" }},
		{"single char name", func(p *RegistrationPayload) { p.FullName = "N" }},
		{"short id number", func(p *RegistrationPayload) { p.IDNumber = "920220472008" }},
		{"id number with letters", func(p *RegistrationPayload) { p.IDNumber = "92O2204720082" }},
		{"short account", func(p *RegistrationPayload) { p.AccountNumber = "123456789" }},
		{"account with letters", func(p *RegistrationPayload) { p.AccountNumber = "62831447OO1" }},
		{"short password", func(p *RegistrationPayload) { p.Password = "Str0ng!Pass" }},
		{"password without symbol", func(p *RegistrationPayload) { p.Password = "Str0ngPassw0rd" }},
		{"password without digit", func(p *RegistrationPayload) { p.Password = "Strong!Password" }},
		{"password without upper", func(p *RegistrationPayload) { p.Password = "str0ng!passw0rd" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := valid
			tc.mutate(&p)
			assert.NotEmpty(t, ValidRegistration(p))
		})
	}
}

// Underscore does not satisfy the symbol requirement on its own.
func TestStrongPasswordUnderscore(t *testing.T) {
	assert.False(t, strongPassword("Str0ng_Passw0rd"))
	assert.True(t, strongPassword("Str0ng_Passw0rd!"))
}

func TestValidRegistrationAccumulatesViolations(t *testing.T) {
	errs := ValidRegistration(RegistrationPayload{})
	assert.Len(t, errs, 4)
}

func TestValidLogin(t *testing.T) {
	valid := LoginPayload{
		Username:      "9202204720082",
		AccountNumber: "62831447001",
		Password:      "Str0ng!Passw0rd",
	}
	assert.Empty(t, ValidLogin(valid))

	bad := valid
	bad.Username = "nomsa"
	errs := ValidLogin(bad)
	assert.Contains(t, errs, "Username must be the 13 digit ID number used at registration.")
}

func TestValidEmployeeLogin(t *testing.T) {
	assert.Empty(t, ValidEmployeeLogin(EmployeeLoginPayload{
		EmployeeID: "EMP1001",
		Password:   "Str0ng!Passw0rd",
	}))
	assert.NotEmpty(t, ValidEmployeeLogin(EmployeeLoginPayload{
		EmployeeID: "EMP 1001",
		Password:   "Str0ng!Passw0rd",
	}))
	assert.NotEmpty(t, ValidEmployeeLogin(EmployeeLoginPayload{
		EmployeeID: "EMP",
		Password:   "Str0ng!Passw0rd",
	}))
}

func TestValidPayment(t *testing.T) {
	valid := PaymentPayload{
		Amount:             "1500.50",
		Currency:           "USD",
		Provider:           "SWIFT",
		BeneficiaryAccount: "GB29NWBK60161331926819",
		SwiftCode:          "NWBKGB2L",
	}
	assert.Empty(t, ValidPayment(valid, providers))

	tests := []struct {
		name   string
		mutate func(*PaymentPayload)
	}{
		{"zero-padded amount", func(p *PaymentPayload) { p.Amount = "01500.50" }},
		{"negative amount", func(p *PaymentPayload) { p.Amount = "-1500.50" }},
		{"three decimal places", func(p *PaymentPayload) { p.Amount = "1500.505" }},
		{"scientific notation", func(p *PaymentPayload) { p.Amount = "1.5e3" }},
		{"amount too long", func(p *PaymentPayload) { p.Amount = "12345678901234" }},
		{"two letter currency", func(p *PaymentPayload) { p.Currency = "US" }},
		{"unknown provider", func(p *PaymentPayload) { p.Provider = "HAWALA" }},
		{"short beneficiary", func(p *PaymentPayload) { p.BeneficiaryAccount = "GB29NWB" }},
		{"seven char swift", func(p *PaymentPayload) { p.SwiftCode = "NWBKGB2" }},
		{"ten char swift", func(p *PaymentPayload) { p.SwiftCode = "NWBKGB2L12" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := valid
			tc.mutate(&p)
			assert.NotEmpty(t, ValidPayment(p, providers))
		})
	}
}

func TestValidPaymentNormalizesCase(t *testing.T) {
	p := PaymentPayload{
		Amount:             "0.99",
		Currency:           "usd",
		Provider:           "swift",
		BeneficiaryAccount: "gb29nwbk60161331926819",
		SwiftCode:          "nwbkgb2lxxx",
	}
	assert.Empty(t, ValidPayment(p, providers))
}

func TestValidPaymentAmountBoundaries(t *testing.T) {
	ok := []string{"0", "0.5", "0.05", "1", "9999999999999", "9999999999999.99"}
	for _, amount := range ok {
		p := PaymentPayload{Amount: amount, Currency: "ZAR", Provider: "SEPA", BeneficiaryAccount: "ZA12345678", SwiftCode: "SBZAZAJJ"}
		assert.Empty(t, ValidPayment(p, providers), "amount %q should be valid", amount)
	}
	bad := []string{"", ".", ".5", "1.", "00", "1,000", " 1"}
	for _, amount := range bad {
		p := PaymentPayload{Amount: amount, Currency: "ZAR", Provider: "SEPA", BeneficiaryAccount: "ZA12345678", SwiftCode: "SBZAZAJJ"}
		assert.NotEmpty(t, ValidPayment(p, providers), "amount %q should be rejected", amount)
	}
}

func TestValidPaymentReview(t *testing.T) {
	allowed := []string{"verified", "rejected", "submitted"}

	assert.Empty(t, ValidPaymentReview("verified", allowed))
	assert.Empty(t, ValidPaymentReview("  Rejected ", allowed))
	assert.NotEmpty(t, ValidPaymentReview("pending", allowed))
	assert.NotEmpty(t, ValidPaymentReview("", allowed))
	assert.Equal(t,
		[]string{"Status must be one of: verified, rejected, submitted."},
		ValidPaymentReview("approved", allowed),
	)
}
