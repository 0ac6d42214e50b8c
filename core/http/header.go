package http

import "strings"

// Common header names
const (
	HeaderContentType      = "Content-Type"
	HeaderContentLength    = "Content-Length"
	HeaderTransferEncoding = "Transfer-Encoding"
	HeaderConnection       = "Connection"
	HeaderLocation         = "Location"
	HeaderAllow            = "Allow"
	HeaderAccept           = "Accept"
	HeaderHost             = "Host"
	HeaderDate             = "Date"
	HeaderServer           = "Server"
	HeaderUserAgent        = "User-Agent"
	HeaderRequestID        = "X-Request-ID"
)

// Field is one header line.
type Field struct {
	Name  string
	Value string
}

// Header is an ordered list of header fields. Name lookups are
// case-insensitive and Get returns the last value written for a name.
type Header struct {
	fields []Field
}

// Add appends a field, keeping any earlier fields with the same name.
func (h *Header) Add(name, value string) {
	h.fields = append(h.fields, Field{Name: name, Value: value})
}

// Set replaces every field named name with a single field.
func (h *Header) Set(name, value string) {
	for i := range h.fields {
		if strings.EqualFold(h.fields[i].Name, name) {
			h.fields[i].Value = value
			h.removeAfter(i+1, name)
			return
		}
	}
	h.Add(name, value)
}

// removeAfter drops every field named name from index from onwards.
func (h *Header) removeAfter(from int, name string) {
	kept := h.fields[:from]
	for _, f := range h.fields[from:] {
		if !strings.EqualFold(f.Name, name) {
			kept = append(kept, f)
		}
	}
	h.fields = kept
}

// Get returns the last value for name, or "".
func (h *Header) Get(name string) string {
	for i := len(h.fields) - 1; i >= 0; i-- {
		if strings.EqualFold(h.fields[i].Name, name) {
			return h.fields[i].Value
		}
	}
	return ""
}

// Has reports whether at least one field is named name.
func (h *Header) Has(name string) bool {
	for _, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			return true
		}
	}
	return false
}

// Values returns all values for name in arrival order.
func (h *Header) Values(name string) []string {
	var vs []string
	for _, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			vs = append(vs, f.Value)
		}
	}
	return vs
}

// Del removes every field named name.
func (h *Header) Del(name string) {
	h.removeAfter(0, name)
}

// Len returns the number of fields.
func (h *Header) Len() int {
	return len(h.fields)
}

// Fields returns the fields in order. The slice must not be modified.
func (h *Header) Fields() []Field {
	return h.fields
}

// Reset clears the header, keeping capacity.
func (h *Header) Reset() {
	h.fields = h.fields[:0]
}
