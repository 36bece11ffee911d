package domain

import (
	"fmt"
	"strings"
)

// Field identifies one of the eight channel fields of a phase feed.
type Field int

const (
	FieldVoltage Field = iota
	FieldCurrent
	FieldRealPower
	FieldApparentPower
	FieldReactivePower
	FieldPowerFactor
	FieldFrequency
	FieldEnergy
)

// FieldCount is the fixed number of fields every channel carries.
const FieldCount = 8

// FieldDescriptor describes how a field is labelled, measured and thresholded.
type FieldDescriptor struct {
	ID        Field  `json:"-"`
	Key       string `json:"key"`
	Label     string `json:"label"`
	Unit      string `json:"unit"`
	Parameter string `json:"parameter"`
}

var registry = [FieldCount]FieldDescriptor{
	{ID: FieldVoltage, Key: "field1", Label: "Voltage", Unit: "V", Parameter: "voltage"},
	{ID: FieldCurrent, Key: "field2", Label: "Current", Unit: "A", Parameter: "current"},
	{ID: FieldRealPower, Key: "field3", Label: "Real Power", Unit: "W", Parameter: "realPower"},
	{ID: FieldApparentPower, Key: "field4", Label: "Apparent Power", Unit: "VA", Parameter: "appPower"},
	{ID: FieldReactivePower, Key: "field5", Label: "Reactive Power", Unit: "VAR", Parameter: "reactPower"},
	{ID: FieldPowerFactor, Key: "field6", Label: "Power Factor", Unit: "", Parameter: "powerFactor"},
	{ID: FieldFrequency, Key: "field7", Label: "Frequency", Unit: "Hz", Parameter: "frequency"},
	{ID: FieldEnergy, Key: "field8", Label: "Energy", Unit: "kWh", Parameter: "energy"},
}

// Fields returns every field in channel order.
func Fields() []Field {
	out := make([]Field, FieldCount)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}

// Descriptors returns a copy of the field table.
func Descriptors() []FieldDescriptor {
	out := make([]FieldDescriptor, FieldCount)
	copy(out, registry[:])
	return out
}

// Valid reports whether f is one of the eight known fields.
func (f Field) Valid() bool { return f >= 0 && f < FieldCount }

// Descriptor returns the static descriptor for f.
func (f Field) Descriptor() FieldDescriptor {
	if !f.Valid() {
		return FieldDescriptor{ID: f}
	}
	return registry[f]
}

func (f Field) Key() string       { return f.Descriptor().Key }
func (f Field) Label() string     { return f.Descriptor().Label }
func (f Field) Unit() string      { return f.Descriptor().Unit }
func (f Field) Parameter() string { return f.Descriptor().Parameter }

func (f Field) String() string {
	if !f.Valid() {
		return fmt.Sprintf("field(%d)", int(f))
	}
	return registry[f].Key
}

// ParseField accepts a channel key ("field8") or a threshold parameter name ("energy").
func ParseField(s string) (Field, error) {
	s = strings.TrimSpace(s)
	for _, d := range registry {
		if strings.EqualFold(d.Key, s) || strings.EqualFold(d.Parameter, s) {
			return d.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// FieldForParameter maps a threshold parameter name back to its field.
func FieldForParameter(parameter string) (Field, bool) {
	for _, d := range registry {
		if d.Parameter == parameter {
			return d.ID, true
		}
	}
	return 0, false
}

// Parameters lists the threshold parameter names in field order.
func Parameters() []string {
	out := make([]string, FieldCount)
	for i, d := range registry {
		out[i] = d.Parameter
	}
	return out
}
