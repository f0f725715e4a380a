package models

// Object is a string-keyed mapping that remembers insertion order.
// Setting an existing key replaces its value in place.
type Object struct {
	keys   []string
	values map[string]Value
}

// NewObject creates an empty Object.
func NewObject() *Object {
	return &Object{values: make(map[string]Value)}
}

// Set stores v under key.
func (o *Object) Set(key string, v Value) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	v, ok := o.values[key]
	return v, ok
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Keys returns keys in insertion order. The slice must not be modified.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return o.keys
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Field is one key/value pair of an Object.
type Field struct {
	Key   string
	Value Value
}

// Fields returns the pairs in insertion order.
func (o *Object) Fields() []Field {
	fields := make([]Field, 0, o.Len())
	for _, k := range o.Keys() {
		fields = append(fields, Field{Key: k, Value: o.values[k]})
	}
	return fields
}

// ObjectOf builds an object value from pairs, in order.
func ObjectOf(fields ...Field) Value {
	o := NewObject()
	for _, f := range fields {
		o.Set(f.Key, f.Value)
	}
	return FromObject(o)
}

// F is shorthand for a Field literal.
func F(key string, v Value) Field {
	return Field{Key: key, Value: v}
}
