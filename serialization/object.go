package serialization

// OrderedMap is an insertion-ordered string-keyed map, used for both the
// adapted and extended property sets of a [PSObject]. Iteration order
// (via Keys) always matches insertion order, which CLIXML round-tripping
// depends on.
type OrderedMap struct {
	keys   []string
	values map[string]any
}

// NewOrderedMap returns an empty OrderedMap ready to use.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: map[string]any{}}
}

// Set inserts or updates the value for key, preserving first-insertion
// order for existing keys.
func (m *OrderedMap) Set(key string, value any) {
	if m.values == nil {
		m.values = map[string]any{}
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value for key and whether it was present.
func (m *OrderedMap) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order. The returned slice must not be
// mutated by the caller.
func (m *OrderedMap) Keys() []string {
	if m == nil {
		return nil
	}
	return m.keys
}

// Len returns the number of entries.
func (m *OrderedMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// CollectionKind distinguishes the container shapes CLIXML represents with
// a typed wrapper (<LST>, <STK>, <QUE>, <IE>, <DCT>).
type CollectionKind int

const (
	CollectionNone CollectionKind = iota
	CollectionList
	CollectionStack
	CollectionQueue
	CollectionEnumerable
	CollectionDictionary
)

// DictEntry is one <En> entry of a <DCT> dictionary.
type DictEntry struct {
	Key   any
	Value any
}

// Collection holds the elements of a container-typed PSObject. Kind
// determines which of Items/Entries is populated.
type Collection struct {
	Kind    CollectionKind
	Items   []any
	Entries []DictEntry
}

// PSObject is the single dynamic representation for every PSRP value.
//
// A primitive leaf (string, integer, date, ...) sets Value to one of the
// typed wrappers in primitive.go and leaves TypeNames/Adapted/Collection
// empty, though it may still carry Extended note properties — CLIXML
// allows attaching extended properties to any value, primitive or not.
//
// A compound .NET object sets TypeNames (most-derived type first) and
// populates Adapted with the type's intrinsic properties; Collection is
// set instead of Adapted for container types.
type PSObject struct {
	// Value is the primitive leaf value, or nil for compound/container
	// objects.
	Value any

	// TypeNames is the type-name stack, most-derived type first. Empty
	// for untyped primitive leaves.
	TypeNames []string

	// Adapted holds the type's intrinsic ("adapted") properties, in
	// <Props> order.
	Adapted *OrderedMap

	// Extended holds note properties added at runtime, in <MS> order.
	Extended *OrderedMap

	// Collection is non-nil for list/stack/queue/enumerable/dictionary
	// values.
	Collection *Collection

	// ToStringValue and HasToString carry the optional <ToString> form.
	ToStringValue string
	HasToString   bool

	// RefID is the CLIXML RefId this object was encoded with or decoded
	// from. It is bookkeeping for the codec, not semantic data.
	RefID int

	// Rehydrated holds the typed value a Deserializer's Registry produced
	// for this object's type-name stack, if any Registry was installed
	// and a rehydrator matched. Nil when decoding ran without a Registry,
	// or when the type-name stack had no registered match (the object
	// still decodes fully; only TypeNames gets the "Deserialized." prefix
	// spec.md section 4.4 describes).
	Rehydrated any
}

// NewPrimitive wraps a leaf value (one of the PS* primitive types) with no
// type-name stack, matching an unregistered primitive's wire shape.
func NewPrimitive(value any) *PSObject {
	return &PSObject{Value: value}
}

// NewObject starts a compound object with the given type-name stack
// (most-derived first) and empty property sets.
func NewObject(typeNames ...string) *PSObject {
	return &PSObject{
		TypeNames: typeNames,
		Adapted:   NewOrderedMap(),
		Extended:  NewOrderedMap(),
	}
}

// IsPrimitive reports whether o carries a leaf primitive value rather than
// a compound type-name stack.
func (o *PSObject) IsPrimitive() bool {
	return o != nil && len(o.TypeNames) == 0 && o.Collection == nil
}

// ExtendedGet returns an extended (note) property; it reports false when
// the object has no Extended map.
func (o *PSObject) ExtendedGet(name string) (any, bool) {
	return o.Extended.Get(name)
}

// ExtendedSet sets an extended (note) property, creating the Extended map
// if necessary.
func (o *PSObject) ExtendedSet(name string, value any) {
	if o.Extended == nil {
		o.Extended = NewOrderedMap()
	}
	o.Extended.Set(name, value)
}

// AdaptedGet returns an adapted property.
func (o *PSObject) AdaptedGet(name string) (any, bool) {
	return o.Adapted.Get(name)
}

// AdaptedSet sets an adapted property, creating the Adapted map if
// necessary.
func (o *PSObject) AdaptedSet(name string, value any) {
	if o.Adapted == nil {
		o.Adapted = NewOrderedMap()
	}
	o.Adapted.Set(name, value)
}
