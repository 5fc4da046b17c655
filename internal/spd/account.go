package spd

import (
	"strings"
	"unicode"

	"spdqr/internal/record"
)

// LocalIBANPrefix is put in front of locally synthesized identifiers.
//
// The "00" is not a computed IBAN check digit: SynthesizeIBAN output is never
// checksum-valid and cannot catch typos in account numbers. Scanning apps
// already in use accept it, so it stays.
const LocalIBANPrefix = "CZ00"

// AccountIdentifier picks the identifier for the ACC segment:
//
//  1. the record's iban
//  2. the record's account_number + bank_code
//  3. the supplier's iban
//  4. the supplier's account_number + bank_code
//
// Whitespace is removed from the result.
func AccountIdentifier(view record.View) (string, bool) {
	if id, ok := accountOf(view); ok {
		return id, true
	}
	if supplier, ok := record.Supplier(view); ok {
		return accountOf(supplier)
	}
	return "", false
}

func accountOf(view record.View) (string, bool) {
	if iban, ok := record.Direct(view, "iban"); ok {
		if id := stripSpace(iban); id != "" {
			return id, true
		}
	}
	account, hasAccount := record.Direct(view, "account_number")
	bank, hasBank := record.Direct(view, "bank_code")
	if hasAccount && hasBank {
		return SynthesizeIBAN(account, bank), true
	}
	return "", false
}

// SynthesizeIBAN builds CZ00 + account (16 digits) + bank code (4 digits),
// left-padding both with zeros. An account in the "prefix-number" form is
// laid out as a 6 digit prefix and a 10 digit number.
func SynthesizeIBAN(accountNumber, bankCode string) string {
	accountNumber = stripSpace(accountNumber)
	bankCode = stripSpace(bankCode)

	if prefix, number, ok := strings.Cut(accountNumber, "-"); ok {
		accountNumber = padLeft(prefix, 6) + padLeft(number, 10)
	}
	return LocalIBANPrefix + padLeft(accountNumber, 16) + padLeft(bankCode, 4)
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
