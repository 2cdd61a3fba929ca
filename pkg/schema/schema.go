// Package schema interprets the JSON Schema subset used to describe flow input
// payloads: well-formedness checks, sample synthesis and shape detection.
package schema

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"
)

// Type is the declared JSON type of a schema node.
type Type string

const (
	TypeObject  Type = "object"
	TypeArray   Type = "array"
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
)

// RecipientsProperty is the top-level property that makes a flow fan out.
const RecipientsProperty = "recipients"

// Schema is one of ObjectSchema, ArraySchema, StringSchema, NumberSchema,
// BooleanSchema or UntypedSchema.
type Schema interface {
	Type() Type
}

// Property is a named member of an object schema.
type Property struct {
	Name   string
	Schema Schema
}

type ObjectSchema struct {
	Properties []Property
	Required   []string
}

func (ObjectSchema) Type() Type { return TypeObject }

// Property returns the member schema with the given name.
func (o ObjectSchema) Property(name string) (Schema, bool) {
	for _, prop := range o.Properties {
		if prop.Name == name {
			return prop.Schema, true
		}
	}

	return nil, false
}

type ArraySchema struct {
	Items Schema // nil when items is not declared
}

func (ArraySchema) Type() Type { return TypeArray }

type StringSchema struct {
	Enum    []any
	Format  string
	Pattern string
	Example any
}

func (StringSchema) Type() Type { return TypeString }

// NumberSchema covers both number and integer.
type NumberSchema struct {
	Integer bool
	Minimum *float64
	Maximum *float64
}

func (n NumberSchema) Type() Type {
	if n.Integer {
		return TypeInteger
	}

	return TypeNumber
}

type BooleanSchema struct{}

func (BooleanSchema) Type() Type { return TypeBoolean }

// UntypedSchema is a node whose type is missing or not part of the subset.
type UntypedSchema struct {
	Declared string
}

func (UntypedSchema) Type() Type { return "" }

// ErrInvalidJSON matches every parse failure of schema text.
var ErrInvalidJSON = errors.New("invalid JSON")

// ParseError carries the underlying decoder failure.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "Invalid JSON: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Is(target error) bool {
	return target == ErrInvalidJSON
}

// document is the leniently decoded form of a schema node. Keywords whose
// value has the wrong JSON type are treated as absent.
type document struct {
	declared   string
	hasType    bool
	properties *properties
	items      *document
	required   []string
	enum       []any
	format     string
	pattern    string
	minimum    *float64
	maximum    *float64
	example    any
}

// declaredType returns the type keyword. Non-string values are returned raw.
func (d *document) declaredType() (string, bool) {
	return d.declared, d.hasType
}

// properties keeps object members in declaration order.
type properties struct {
	keys   []string
	values map[string]*document
}

func (p *properties) get(name string) (*document, bool) {
	if p == nil {
		return nil, false
	}

	doc, ok := p.values[name]

	return doc, ok
}

func newProperties(value gjson.Result) *properties {
	props := &properties{values: make(map[string]*document)}

	value.ForEach(func(key, member gjson.Result) bool {
		name := key.String()
		if _, seen := props.values[name]; !seen {
			props.keys = append(props.keys, name)
		}

		props.values[name] = newDocument(member)

		return true
	})

	return props
}

func newDocument(node gjson.Result) *document {
	doc := &document{}
	if !node.IsObject() {
		return doc
	}

	node.ForEach(func(key, value gjson.Result) bool {
		switch key.String() {
		case "type":
			doc.hasType = true

			switch value.Type {
			case gjson.String:
				doc.declared = value.Str
			case gjson.Null:
				doc.declared = ""
			default:
				doc.declared = value.Raw
			}
		case "properties":
			if value.IsObject() {
				doc.properties = newProperties(value)
			}
		case "items":
			if value.IsObject() {
				doc.items = newDocument(value)
			}
		case "required":
			if value.IsArray() {
				doc.required = nil
				for _, entry := range value.Array() {
					if entry.Type == gjson.String {
						doc.required = append(doc.required, entry.Str)
					}
				}
			}
		case "enum":
			if value.IsArray() {
				doc.enum = nil
				for _, entry := range value.Array() {
					doc.enum = append(doc.enum, entry.Value())
				}
			}
		case "format":
			if value.Type == gjson.String {
				doc.format = value.Str
			}
		case "pattern":
			if value.Type == gjson.String {
				doc.pattern = value.Str
			}
		case "minimum":
			doc.minimum = number(value)
		case "maximum":
			doc.maximum = number(value)
		case "example":
			doc.example = value.Value()
		}

		return true
	})

	return doc
}

func number(value gjson.Result) *float64 {
	if value.Type != gjson.Number {
		return nil
	}

	n := value.Float()

	return &n
}

// parseDocument decodes schema text. Only syntax errors fail; well-formed JSON
// that is not an object yields an empty document.
func parseDocument(text string) (*document, error) {
	if !gjson.Valid(text) {
		var probe any

		err := json.Unmarshal([]byte(text), &probe)
		if err == nil {
			err = errors.New("malformed document")
		}

		return nil, &ParseError{Err: err}
	}

	return newDocument(gjson.Parse(text)), nil
}

// Parse decodes schema text into its typed representation.
func Parse(text string) (Schema, error) {
	doc, err := parseDocument(text)
	if err != nil {
		return nil, err
	}

	return convert(doc), nil
}

func convert(doc *document) Schema {
	if doc == nil {
		return UntypedSchema{}
	}

	declared, _ := doc.declaredType()

	switch Type(declared) {
	case TypeObject:
		object := ObjectSchema{Required: doc.required}

		if doc.properties != nil {
			for _, key := range doc.properties.keys {
				object.Properties = append(object.Properties, Property{
					Name:   key,
					Schema: convert(doc.properties.values[key]),
				})
			}
		}

		return object
	case TypeArray:
		array := ArraySchema{}
		if doc.items != nil {
			array.Items = convert(doc.items)
		}

		return array
	case TypeString:
		return StringSchema{
			Enum:    doc.enum,
			Format:  doc.format,
			Pattern: doc.pattern,
			Example: doc.example,
		}
	case TypeNumber, TypeInteger:
		return NumberSchema{
			Integer: Type(declared) == TypeInteger,
			Minimum: doc.minimum,
			Maximum: doc.maximum,
		}
	case TypeBoolean:
		return BooleanSchema{}
	default:
		return UntypedSchema{Declared: declared}
	}
}
