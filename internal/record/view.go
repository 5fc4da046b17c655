// Package record reads payment attributes out of loosely structured invoice
// records.
//
// A record reaches this package either as a string-keyed map (typically a
// decoded JSON document) or as a Go struct such as models.Invoice. Both are
// wrapped in a View so that lookups never branch on the concrete shape.
package record

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"
)

// ErrMalformedRecord is returned when a value is neither a map nor a struct.
var ErrMalformedRecord = errors.New("record is neither a map nor a struct")

// SupplierField is the name of the nested supplier relation.
const SupplierField = "supplier"

// View exposes the named fields of a record.
type View interface {
	// Get returns the raw value stored under field. The boolean is false when
	// the record has no such field or the field holds nil.
	Get(field string) (any, bool)
}

// MapView is a View backed by a string-keyed map.
type MapView map[string]any

// Get implements View.
func (m MapView) Get(field string) (any, bool) {
	v, ok := m[field]
	if !ok || isNil(v) {
		return nil, false
	}
	return v, true
}

// StructView is a View backed by a struct value.
//
// Fields are matched by the `spd` tag first, then by the name in the `json`
// tag, then by the snake_case form of the Go field name.
type StructView struct {
	value reflect.Value
	index map[string][]int
}

// NewStructView wraps a struct or a non-nil pointer to a struct.
func NewStructView(v any) (*StructView, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("%w: nil %s", ErrMalformedRecord, rv.Type())
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %T", ErrMalformedRecord, v)
	}
	return &StructView{value: rv, index: fieldIndex(rv.Type())}, nil
}

// Get implements View.
func (s *StructView) Get(field string) (any, bool) {
	idx, ok := s.index[field]
	if !ok {
		return nil, false
	}
	fv, err := s.value.FieldByIndexErr(idx)
	if err != nil {
		// nil embedded pointer on the path
		return nil, false
	}
	for fv.Kind() == reflect.Pointer || fv.Kind() == reflect.Interface {
		if fv.IsNil() {
			return nil, false
		}
		fv = fv.Elem()
	}
	if (fv.Kind() == reflect.Map || fv.Kind() == reflect.Slice) && fv.IsNil() {
		return nil, false
	}
	return fv.Interface(), true
}

// Of wraps v in the View matching its shape. Views are returned unchanged.
func Of(v any) (View, error) {
	switch r := v.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil", ErrMalformedRecord)
	case View:
		return r, nil
	case map[string]any:
		return MapView(r), nil
	case map[string]string:
		m := make(MapView, len(r))
		for k, val := range r {
			m[k] = val
		}
		return m, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		m := make(MapView, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return m, nil
	}
	return NewStructView(v)
}

// Supplier returns the nested supplier record of view, if it has one that
// can itself be read as a record.
func Supplier(view View) (View, bool) {
	raw, ok := view.Get(SupplierField)
	if !ok {
		return nil, false
	}
	sv, err := Of(raw)
	if err != nil {
		return nil, false
	}
	return sv, true
}

var indexCache sync.Map // reflect.Type -> map[string][]int

func fieldIndex(t reflect.Type) map[string][]int {
	if cached, ok := indexCache.Load(t); ok {
		return cached.(map[string][]int)
	}

	index := make(map[string][]int)
	// weaker names never overwrite stronger ones
	strength := make(map[string]int)
	put := func(name string, rank int, idx []int) {
		if name == "" || name == "-" {
			return
		}
		if prev, ok := strength[name]; ok && prev >= rank {
			return
		}
		strength[name] = rank
		index[name] = idx
	}

	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		put(toSnake(f.Name), 1, f.Index)
		if tag, ok := f.Tag.Lookup("json"); ok {
			name, _, _ := strings.Cut(tag, ",")
			put(name, 2, f.Index)
		}
		if tag, ok := f.Tag.Lookup("spd"); ok {
			put(tag, 3, f.Index)
		}
	}

	indexCache.Store(t, index)
	return index
}

// toSnake converts a Go identifier to snake_case, keeping acronyms together:
// "IBAN" -> "iban", "InvoiceVS" -> "invoice_vs", "BankCode" -> "bank_code".
func toSnake(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}
