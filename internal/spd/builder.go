// Package spd builds Czech "Short Payment Descriptor" (QR Platba) strings
// from invoice records and renders them as QR codes.
//
// Wire form:
//
//	SPD*1.0*ACC:<id>*AM:<amount>*CC:<code>*X-VS:<vs>[*X-KS:<ks>][*X-SS:<ss>]*MSG:FAKTURA<vs>[*RN:<name>][*DT:<yyyymmdd>]
//
// A Builder holds no mutable state and may be shared between goroutines.
package spd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"spdqr/internal/logger"
	"spdqr/internal/qr"
	"spdqr/internal/record"
)

// Record field names read by the builder.
const (
	FieldVariableSymbol = "invoice_vs"
	FieldConstantSymbol = "invoice_ks"
	FieldSpecificSymbol = "invoice_ss"
	FieldAmount         = "payment_amount"
	FieldCurrency       = "payment_currency"
	FieldName           = "name"
	FieldIssueDate      = "issue_date"
	FieldDueIn          = "due_in"
)

// Builder turns invoice records into payment strings and QR images.
type Builder struct {
	rasterizer qr.Rasterizer
	opts       qr.Options
	log        zerolog.Logger
}

// NewBuilder creates a Builder using the go-qrcode encoder with default
// options.
func NewBuilder() *Builder {
	return NewBuilderWithDeps(qr.NewEncoder(), qr.DefaultOptions())
}

// NewBuilderWithDeps creates a Builder with an explicit rasterizer and options.
func NewBuilderWithDeps(rasterizer qr.Rasterizer, opts qr.Options) *Builder {
	return &Builder{
		rasterizer: rasterizer,
		opts:       opts,
		log:        logger.WithComponent("spd-builder"),
	}
}

// Payload assembles the payment string for rec, which may be a map, a struct
// or a record.View.
//
// It fails with ErrMissingMandatoryField when no account identifier, amount,
// currency or variable symbol can be resolved, with ErrInvalidAmount when the
// amount is not a number, and with record.ErrMalformedRecord when rec is not
// a record at all. No partial payload is ever returned.
func (b *Builder) Payload(rec any) (*Payload, error) {
	const op = "Payload"

	view, err := record.Of(rec)
	if err != nil {
		return nil, NewPaymentError(op, "", err)
	}

	account, ok := AccountIdentifier(view)
	if !ok {
		return nil, b.missing(op, "account", view)
	}

	rawAmount, ok := record.Resolve(view, FieldAmount)
	if !ok {
		return nil, b.missing(op, FieldAmount, view)
	}
	amount, err := ParseAmount(rawAmount)
	if err != nil {
		b.log.Debug().
			Err(err).
			Interface("amount", rawAmount).
			Msg("Payment amount is not a number, no payment string")
		return nil, NewPaymentError(op, FieldAmount, err)
	}

	currency, ok := record.ResolveString(view, FieldCurrency)
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if !ok || currency == "" {
		return nil, b.missing(op, FieldCurrency, view)
	}

	vs, ok := record.ResolveString(view, FieldVariableSymbol)
	if !ok {
		return nil, b.missing(op, FieldVariableSymbol, view)
	}

	p := &Payload{}
	p.add(KeyAccount, account)
	p.add(KeyAmount, FormatAmount(amount))
	p.add(KeyCurrency, currency)
	p.add(KeyVariableSymbol, vs)
	if ks, ok := record.ResolveString(view, FieldConstantSymbol); ok {
		p.add(KeyConstantSymbol, ks)
	}
	if ss, ok := record.ResolveString(view, FieldSpecificSymbol); ok {
		p.add(KeySpecificSymbol, ss)
	}
	p.add(KeyMessage, MessagePrefix+vs)
	if name, ok := record.ResolveString(view, FieldName); ok {
		p.add(KeyRecipientName, truncateEscaped(name, MaxRecipientNameLength))
	}
	if due, ok := b.dueDate(view); ok {
		p.add(KeyDueDate, due)
	}

	return p, nil
}

// Generate builds the payment string for rec and renders it as a PNG data
// URI ("data:image/png;base64,...").
func (b *Builder) Generate(rec any) (string, error) {
	png, _, err := b.Render(rec)
	if err != nil {
		return "", err
	}
	return qr.DataURI(png), nil
}

// Render builds the payment string for rec and rasterizes it, returning the
// raw image bytes along with the payload they encode.
//
// Besides the Payload errors it fails with ErrRasterizationFailed when the
// QR encoder returns an error or panics; that failure is logged with the
// variable symbol and amount.
func (b *Builder) Render(rec any) ([]byte, *Payload, error) {
	const op = "Render"

	payload, err := b.Payload(rec)
	if err != nil {
		return nil, nil, err
	}

	png, err := b.rasterize(payload.String())
	if err != nil {
		vs, _ := payload.Value(KeyVariableSymbol)
		amount, _ := payload.Value(KeyAmount)
		b.log.Error().
			Err(err).
			Str("variable_symbol", vs).
			Str("amount", amount).
			Msg("Failed to render payment QR code")
		return nil, nil, NewPaymentError(op, "", fmt.Errorf("%w: %w", ErrRasterizationFailed, err))
	}

	return png, payload, nil
}

// Options returns the rasterization options in use.
func (b *Builder) Options() qr.Options {
	return b.opts
}

func (b *Builder) rasterize(payload string) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("rasterizer panic: %v", r)
		}
	}()

	data, err = b.rasterizer.Rasterize(payload, b.opts)
	if err == nil && len(data) == 0 {
		err = errors.New("rasterizer returned no data")
	}
	return data, err
}

func (b *Builder) dueDate(view record.View) (string, bool) {
	issued, ok := record.Resolve(view, FieldIssueDate)
	if !ok {
		return "", false
	}
	dueIn, ok := record.Resolve(view, FieldDueIn)
	if !ok {
		return "", false
	}
	due, ok := DueDate(issued, dueIn)
	if !ok {
		b.log.Debug().
			Interface("issue_date", issued).
			Interface("due_in", dueIn).
			Msg("Unusable issue date or due offset, omitting DT")
	}
	return due, ok
}

func (b *Builder) missing(op, field string, view record.View) error {
	vs, _ := record.ResolveString(view, FieldVariableSymbol)
	b.log.Debug().
		Str("field", field).
		Str("variable_symbol", vs).
		Msg("Insufficient payment data, no payment string")
	return NewPaymentError(op, field, ErrMissingMandatoryField)
}
