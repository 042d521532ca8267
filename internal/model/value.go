package model

// PropertyValue is the value of a log event property. The set of
// implementations is closed: Scalar, Structure, Dictionary and Sequence.
type PropertyValue interface {
	propertyValue()
}

// Scalar is a leaf value rendered directly to text.
type Scalar struct {
	Value any
}

// Field is a named member of a Structure.
type Field struct {
	Name  string
	Value PropertyValue
}

// Structure is a record with named fields in declared order. TypeTag is
// an optional type name shown when the structure is rendered as text.
type Structure struct {
	TypeTag string
	Fields  []Field
}

// Entry is a key/value pair of a Dictionary.
type Entry struct {
	Key   PropertyValue
	Value PropertyValue
}

// Dictionary is an ordered key/value collection. Keys are usually
// scalars but may be any PropertyValue.
type Dictionary struct {
	Entries []Entry
}

// Sequence is an ordered list of values.
type Sequence struct {
	Elements []PropertyValue
}

func (Scalar) propertyValue()     {}
func (Structure) propertyValue()  {}
func (Dictionary) propertyValue() {}
func (Sequence) propertyValue()   {}

// Property is a named top-level event property.
type Property struct {
	Name  string
	Value PropertyValue
}

// Properties holds event properties in insertion order.
type Properties []Property

// Get returns the value of the first property with the given name.
func (p Properties) Get(name string) (PropertyValue, bool) {
	for _, prop := range p {
		if prop.Name == name {
			return prop.Value, true
		}
	}
	return nil, false
}

// With returns a copy of p with the named property set. An existing
// property keeps its position; a new one is appended.
func (p Properties) With(name string, v PropertyValue) Properties {
	out := make(Properties, len(p), len(p)+1)
	copy(out, p)
	for i := range out {
		if out[i].Name == name {
			out[i].Value = v
			return out
		}
	}
	return append(out, Property{Name: name, Value: v})
}
