package serialization

// Rehydrator constructs the fully typed Go value for a decoded compound
// PSObject whose most-derived type name matched a registered entry. It
// corresponds to a .NET type's "FromPSObjectForRemoting" constructor.
type Rehydrator func(o *PSObject) (any, error)

// Registry maps a most-derived .NET type name to the [Rehydrator] that
// turns a decoded [PSObject] into the concrete typed value for that name.
//
// Registries are owned by whichever package defines the corresponding wire
// types (messages, runspace, ...); serialization itself registers nothing
// so it has no dependency on those packages.
type Registry struct {
	byTypeName map[string]Rehydrator
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byTypeName: map[string]Rehydrator{}}
}

// Register associates typeName (the most-derived name in a <TN> stack)
// with fn. A later call for the same name replaces the previous entry.
func (r *Registry) Register(typeName string, fn Rehydrator) {
	r.byTypeName[typeName] = fn
}

// Lookup returns the rehydrator registered for the most-derived entry of
// typeNames, if any.
func (r *Registry) Lookup(typeNames []string) (Rehydrator, bool) {
	if len(typeNames) == 0 {
		return nil, false
	}
	fn, ok := r.byTypeName[typeNames[0]]
	return fn, ok
}

// Rehydrate applies the registered rehydrator for o's type-name stack, if
// any is registered. When nothing matches, every entry in o.TypeNames is
// prefixed "Deserialized." (per spec.md 4.4) and o itself is returned
// unchanged otherwise.
func (r *Registry) Rehydrate(o *PSObject) (any, error) {
	if fn, ok := r.Lookup(o.TypeNames); ok {
		return fn(o)
	}
	for i, n := range o.TypeNames {
		o.TypeNames[i] = "Deserialized." + n
	}
	return o, nil
}
