package schema

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/jonboulle/clockwork"
)

// Canned values used when a string schema carries no example or enum.
const (
	SampleEmail       = "user@example.com"
	SampleUUID        = "123e4567-e89b-12d3-a456-426614174000"
	SamplePhone       = "+919876543210"
	SampleString      = "sample"
	SampleInteger     = 42
	SampleNumber      = 42.5
	sampleNumberLimit = 100

	isoMillis = "2006-01-02T15:04:05.000Z07:00"
)

// Field is one member of a generated object.
type Field struct {
	Key   string
	Value any
}

// Object is a generated object that keeps schema declaration order.
type Object []Field

// Get returns the value stored under key.
func (o Object) Get(key string) (any, bool) {
	for _, field := range o {
		if field.Key == key {
			return field.Value, true
		}
	}

	return nil, false
}

// MarshalJSON writes members in declaration order.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, field := range o {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(field.Key)
		if err != nil {
			return nil, err
		}

		value, err := json.Marshal(field.Value)
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// Generator synthesizes representative payloads from schemas.
type Generator struct {
	clock clockwork.Clock
}

// NewGenerator creates a generator reading date-time samples from clock.
func NewGenerator(clock clockwork.Clock) *Generator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Generator{clock: clock}
}

var defaultGenerator = NewGenerator(nil)

// GenerateSample synthesizes a payload for text using the wall clock.
func GenerateSample(text string) any {
	return defaultGenerator.Generate(text)
}

// Generate returns a sample for text, or nil when text does not parse.
func (g *Generator) Generate(text string) any {
	parsed, err := Parse(text)
	if err != nil {
		return nil
	}

	return g.Sample(parsed)
}

// Sample synthesizes a value consistent with s.
func (g *Generator) Sample(s Schema) any {
	switch typed := s.(type) {
	case ObjectSchema:
		object := make(Object, 0, len(typed.Properties))
		for _, prop := range typed.Properties {
			object = append(object, Field{Key: prop.Name, Value: g.Sample(prop.Schema)})
		}

		return object
	case ArraySchema:
		if typed.Items == nil {
			return []any{nil}
		}

		return []any{g.Sample(typed.Items)}
	case StringSchema:
		return g.sampleString(typed)
	case NumberSchema:
		return sampleNumber(typed)
	case BooleanSchema:
		return true
	default:
		return nil
	}
}

func (g *Generator) sampleString(s StringSchema) any {
	if s.Example != nil {
		return s.Example
	}

	if len(s.Enum) > 0 {
		return s.Enum[0]
	}

	switch s.Format {
	case "email":
		return SampleEmail
	case "date-time":
		return g.clock.Now().UTC().Format(isoMillis)
	case "uuid":
		return SampleUUID
	}

	if s.Pattern != "" && (strings.Contains(s.Pattern, "+") || strings.Contains(s.Pattern, "91")) {
		return SamplePhone
	}

	return SampleString
}

// sampleNumber picks minimum, then min(100, maximum), then the default. Integer
// samples round inward so they never fall outside the declared bounds.
func sampleNumber(s NumberSchema) any {
	var value float64

	switch {
	case s.Minimum != nil:
		value = *s.Minimum
		if s.Integer {
			value = math.Ceil(value)
		}
	case s.Maximum != nil:
		value = math.Min(sampleNumberLimit, *s.Maximum)
		if s.Integer {
			value = math.Floor(value)
		}
	case s.Integer:
		value = SampleInteger
	default:
		value = SampleNumber
	}

	if s.Integer {
		return int64(value)
	}

	return value
}
