package record

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spdqr/pkg/models"
)

func TestOf(t *testing.T) {
	t.Run("map", func(t *testing.T) {
		v, err := Of(map[string]any{"iban": "A"})
		require.NoError(t, err)
		got, ok := v.Get("iban")
		require.True(t, ok)
		assert.Equal(t, "A", got)
	})

	t.Run("string map", func(t *testing.T) {
		v, err := Of(map[string]string{"iban": "A"})
		require.NoError(t, err)
		got, _ := v.Get("iban")
		assert.Equal(t, "A", got)
	})

	t.Run("typed map", func(t *testing.T) {
		v, err := Of(map[string]int{"due_in": 3})
		require.NoError(t, err)
		got, _ := v.Get("due_in")
		assert.Equal(t, 3, got)
	})

	t.Run("view passes through", func(t *testing.T) {
		m := MapView{"iban": "A"}
		v, err := Of(m)
		require.NoError(t, err)
		assert.Equal(t, m, v)
	})

	for name, bad := range map[string]any{
		"nil":            nil,
		"string":         "iban",
		"int":            42,
		"slice":          []string{"iban"},
		"nil struct ptr": (*models.Invoice)(nil),
		"int keyed map":  map[int]string{1: "a"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Of(bad)
			assert.ErrorIs(t, err, ErrMalformedRecord)
		})
	}
}

func TestStructViewInvoice(t *testing.T) {
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	dueIn := 0
	amount := decimal.RequireFromString("1500")

	inv := &models.Invoice{
		VariableSymbol: "20240001",
		Amount:         &amount,
		Currency:       "CZK",
		IssueDate:      &issued,
		DueIn:          &dueIn,
		Supplier:       &models.Supplier{IBAN: "CZ6508000000192000145399", Name: "Acme s.r.o."},
	}

	v, err := Of(inv)
	require.NoError(t, err)

	vs, ok := v.Get("invoice_vs")
	require.True(t, ok)
	assert.Equal(t, "20240001", vs)

	got, ok := v.Get("payment_amount")
	require.True(t, ok)
	assert.True(t, amount.Equal(got.(decimal.Decimal)))

	got, ok = v.Get("issue_date")
	require.True(t, ok)
	assert.Equal(t, issued, got)

	// nil pointers read as absent
	_, ok = v.Get("invoice_ks")
	require.True(t, ok, "empty strings are present at the view level")
	inv.Supplier = nil
	_, ok = v.Get("supplier")
	assert.False(t, ok)

	due, ok := Resolve(v, "due_in")
	require.True(t, ok)
	assert.Equal(t, 0, due)
}

func TestStructViewSupplier(t *testing.T) {
	inv := models.Invoice{
		Supplier: &models.Supplier{IBAN: "CZ6508000000192000145399"},
	}

	v, err := Of(inv)
	require.NoError(t, err)

	got, ok := Resolve(v, "iban")
	require.True(t, ok)
	assert.Equal(t, "CZ6508000000192000145399", got)
}

func TestStructViewFieldNames(t *testing.T) {
	type row struct {
		InvoiceVS     string
		BankCode      string `json:"bank"`
		IBAN          string `json:"iban_json" spd:"iban"`
		Ignored       string `json:"-"`
		unexported    string
		SupplierIBAN  string
		AccountNumber *string
	}
	account := "2000145399"

	v, err := Of(row{
		InvoiceVS:     "1",
		BankCode:      "0800",
		IBAN:          "CZ65",
		Ignored:       "x",
		unexported:    "y",
		SupplierIBAN:  "CZ99",
		AccountNumber: &account,
	})
	require.NoError(t, err)

	for field, want := range map[string]any{
		"invoice_vs":     "1",
		"bank":           "0800",
		"bank_code":      "0800",
		"iban":           "CZ65",
		"iban_json":      "CZ65",
		"supplier_iban":  "CZ99",
		"account_number": "2000145399",
		"ignored":        "x",
	} {
		got, ok := v.Get(field)
		if assert.True(t, ok, field) {
			assert.Equal(t, want, got, field)
		}
	}

	_, ok := v.Get("unexported")
	assert.False(t, ok)
	_, ok = v.Get("-")
	assert.False(t, ok)
}

func TestToSnake(t *testing.T) {
	for in, want := range map[string]string{
		"IBAN":          "iban",
		"InvoiceVS":     "invoice_vs",
		"BankCode":      "bank_code",
		"DueIn":         "due_in",
		"ID":            "id",
		"HTTPServer":    "http_server",
		"Address2Line":  "address2_line",
		"PaymentAmount": "payment_amount",
	} {
		assert.Equal(t, want, toSnake(in), in)
	}
}

func TestDecode(t *testing.T) {
	rec, err := Decode(strings.NewReader(`{
		"invoice_vs": "20240001",
		"payment_amount": 1500.10,
		"due_in": 0,
		"supplier": {"iban": "CZ6508000000192000145399"}
	}`))
	require.NoError(t, err)

	amount, ok := Resolve(rec, "payment_amount")
	require.True(t, ok)
	assert.Equal(t, "1500.10", String(amount))

	due, ok := Resolve(rec, "due_in")
	require.True(t, ok)
	assert.True(t, IsNumeric(due))
	assert.Equal(t, "0", String(due))

	iban, ok := ResolveString(rec, "iban")
	require.True(t, ok)
	assert.Equal(t, "CZ6508000000192000145399", iban)
}

func TestDecodeRejectsNonObjects(t *testing.T) {
	for _, in := range []string{``, `[]`, `"x"`, `42`, `null`} {
		_, err := Decode(strings.NewReader(in))
		assert.ErrorIs(t, err, ErrMalformedRecord, in)
	}

	_, err := Decode(strings.NewReader(`{"invoice_vs": `))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedRecord)
}
