package spd

import "strings"

// Header opens every Short Payment Descriptor.
const Header = "SPD*1.0"

// Segment keys, in emission order.
const (
	KeyAccount        = "ACC"
	KeyAmount         = "AM"
	KeyCurrency       = "CC"
	KeyVariableSymbol = "X-VS"
	KeyConstantSymbol = "X-KS"
	KeySpecificSymbol = "X-SS"
	KeyMessage        = "MSG"
	KeyRecipientName  = "RN"
	KeyDueDate        = "DT"
)

// MessagePrefix precedes the variable symbol in the MSG segment.
const MessagePrefix = "FAKTURA"

// MaxRecipientNameLength is the RN limit in characters.
const MaxRecipientNameLength = 35

// Segment is one KEY:value pair of a payload.
type Segment struct {
	Key   string
	Value string
}

// Payload is an ordered Short Payment Descriptor.
type Payload struct {
	Segments []Segment
}

// escapedDelimiter replaces '*' inside segment values.
const escapedDelimiter = "%2A"

// add appends a segment; '*' in the value is percent-encoded since it is the
// segment delimiter.
func (p *Payload) add(key, value string) {
	p.Segments = append(p.Segments, Segment{Key: key, Value: strings.ReplaceAll(value, "*", escapedDelimiter)})
}

// Value returns the value of the first segment with key.
func (p *Payload) Value(key string) (string, bool) {
	for _, s := range p.Segments {
		if s.Key == key {
			return s.Value, true
		}
	}
	return "", false
}

// String renders the wire form: SPD*1.0*ACC:...*AM:...
func (p *Payload) String() string {
	var b strings.Builder
	b.WriteString(Header)
	for _, s := range p.Segments {
		b.WriteByte('*')
		b.WriteString(s.Key)
		b.WriteByte(':')
		b.WriteString(s.Value)
	}
	return b.String()
}
