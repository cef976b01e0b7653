package crypto

// Named is anything negotiated by its SSH algorithm name.
type Named interface {
	Name() string
}

// Registry is an ordered set of algorithms keyed by name. The order is the
// local preference order advertised in KEXINIT. A Registry is not modified
// after construction and is safe to share between connections.
type Registry[T Named] struct {
	names  []string
	byName map[string]T
}

// NewRegistry builds a registry. Later entries with a duplicate name are ignored.
func NewRegistry[T Named](algs ...T) *Registry[T] {
	r := &Registry[T]{byName: make(map[string]T, len(algs))}
	for _, a := range algs {
		if _, dup := r.byName[a.Name()]; dup {
			continue
		}
		r.byName[a.Name()] = a
		r.names = append(r.names, a.Name())
	}
	return r
}

func (r *Registry[T]) Lookup(name string) (T, bool) {
	a, ok := r.byName[name]
	return a, ok
}

// Names returns the algorithm names in preference order.
func (r *Registry[T]) Names() []string {
	return append([]string(nil), r.names...)
}

func (r *Registry[T]) Len() int { return len(r.names) }
