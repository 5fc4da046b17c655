package record

import (
	"encoding/json"
	"math"
	"math/big"
	"reflect"
	"strconv"

	"github.com/shopspring/decimal"
)

// FlattenedSupplierPrefix prefixes supplier attributes copied onto the record
// itself, e.g. "supplier_iban".
const FlattenedSupplierPrefix = "supplier_"

// Resolve looks field up on view and returns the first usable value.
//
// Lookup order:
//  1. the record's own field
//  2. the same field on the nested supplier
//  3. the record's flattened "supplier_<field>" field
//  4. a numeric value at field on the record, then on the supplier
//
// Steps 1-3 skip nil, "" and numeric zero. Step 4 accepts numeric zero, so
// a due_in of 0 still resolves.
func Resolve(view View, field string) (any, bool) {
	supplier, hasSupplier := Supplier(view)

	if v, ok := present(view, field); ok {
		return v, true
	}
	if hasSupplier {
		if v, ok := present(supplier, field); ok {
			return v, true
		}
	}
	if v, ok := present(view, FlattenedSupplierPrefix+field); ok {
		return v, true
	}

	if v, ok := numeric(view, field); ok {
		return v, true
	}
	if hasSupplier {
		if v, ok := numeric(supplier, field); ok {
			return v, true
		}
	}
	return nil, false
}

// ResolveString resolves field and renders it as text.
func ResolveString(view View, field string) (string, bool) {
	v, ok := Resolve(view, field)
	if !ok {
		return "", false
	}
	return String(v), true
}

// Direct returns the record's own non-empty value at field as text, without
// consulting the supplier.
func Direct(view View, field string) (string, bool) {
	v, ok := present(view, field)
	if !ok {
		return "", false
	}
	return String(v), true
}

// String renders a field value as text. Numbers never use exponent notation.
func String(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case decimal.Decimal:
		return t.String()
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []byte:
		return string(t)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	case reflect.String:
		return rv.String()
	}
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return reflect.ValueOf(v).String()
}

// IsNumeric reports whether v is a number, including json.Number and
// decimal.Decimal.
func IsNumeric(v any) bool {
	_, ok := Decimal(v)
	return ok
}

// present is the string-presence check of steps 1-3.
func present(view View, field string) (any, bool) {
	v, ok := view.Get(field)
	if !ok {
		return nil, false
	}
	if s, isString := v.(string); isString {
		return v, s != ""
	}
	if d, isNumber := Decimal(v); isNumber && d.IsZero() {
		return nil, false
	}
	return v, true
}

// numeric is the numeric-presence check of step 4.
func numeric(view View, field string) (any, bool) {
	v, ok := view.Get(field)
	if !ok || !IsNumeric(v) {
		return nil, false
	}
	return v, true
}

// Decimal converts a numeric value to a decimal. Strings are not numeric.
func Decimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t, true
	case *decimal.Decimal:
		if t == nil {
			return decimal.Decimal{}, false
		}
		return *t, true
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		return d, err == nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return decimal.NewFromInt(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(rv.Uint()), 0), true
	case reflect.Float32:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat32(float32(f)), true
	case reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(f), true
	}
	return decimal.Decimal{}, false
}
