package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is a typed payment record. Field names in the `spd` tags are the
// names the payment-string builder looks up.
type Invoice struct {
	// Core identifiers
	ID             string `json:"id,omitempty" spd:"id"`
	VariableSymbol string `json:"invoice_vs" spd:"invoice_vs"`           // Variabilní symbol, required
	ConstantSymbol string `json:"invoice_ks,omitempty" spd:"invoice_ks"` // Konstantní symbol
	SpecificSymbol string `json:"invoice_ss,omitempty" spd:"invoice_ss"` // Specifický symbol

	// Amount is nil until the invoice has been priced
	Amount   *decimal.Decimal `json:"payment_amount,omitempty" spd:"payment_amount"`
	Currency string           `json:"payment_currency" spd:"payment_currency"` // ISO 4217, e.g. CZK

	// Recipient bank details; empty when they live on the supplier
	AccountNumber string `json:"account_number,omitempty" spd:"account_number"`
	BankCode      string `json:"bank_code,omitempty" spd:"bank_code"`
	IBAN          string `json:"iban,omitempty" spd:"iban"`
	Name          string `json:"name,omitempty" spd:"name"`

	// Dates
	IssueDate *time.Time `json:"issue_date,omitempty" spd:"issue_date"`
	DueIn     *int       `json:"due_in,omitempty" spd:"due_in"` // days after IssueDate, 0 = same day

	Supplier *Supplier `json:"supplier,omitempty" spd:"supplier"`
}

// Supplier carries the bank details of the party being paid.
type Supplier struct {
	Name          string `json:"name,omitempty" spd:"name"`
	AccountNumber string `json:"account_number,omitempty" spd:"account_number"`
	BankCode      string `json:"bank_code,omitempty" spd:"bank_code"`
	IBAN          string `json:"iban,omitempty" spd:"iban"`
}
