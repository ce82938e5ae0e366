// Package res defines the shim's resource façade: a pure interface the
// shim's widgets call to resolve resources by id, with the concrete
// implementation injected by the loader after construction. This keeps the
// shim free of any dependency on the ARSC/AXML decoders, so it stays usable
// in isolation for unit tests.
package res

// ErrResourceMissing is returned by Facade when no resolver is bound; a
// bound resolver reports a resource with no surviving variant through its
// own error.
type ErrResourceMissing struct{ ID uint32 }

func (e ErrResourceMissing) Error() string { return "res: no value for resource id" }

// Resolver resolves resource identifiers to the concrete data the shim's
// widgets need at draw/bind time. The loader's concrete implementation
// wraps internal/arsc.Table and internal/resconfig.Best; the shim never
// imports either.
type Resolver interface {
	String(id uint32) (string, error)
	Int(id uint32) (int32, error)
	Bool(id uint32) (bool, error)
	Color(id uint32) (uint32, error)
	Dimension(id uint32) (float32, error)
}

// Facade is the handle the shim's widgets hold; Bind installs the concrete
// Resolver once the loader has built it.
type Facade struct {
	resolver Resolver
}

// Bind installs r as this façade's resolver.
func (f *Facade) Bind(r Resolver) { f.resolver = r }

// String resolves id via the bound resolver, returning whatever the
// resolver returns, or ErrResourceMissing if no resolver is bound.
func (f *Facade) String(id uint32) (string, error) {
	if f.resolver == nil {
		return "", ErrResourceMissing{ID: id}
	}
	return f.resolver.String(id)
}

// Int resolves id via the bound resolver.
func (f *Facade) Int(id uint32) (int32, error) {
	if f.resolver == nil {
		return 0, ErrResourceMissing{ID: id}
	}
	return f.resolver.Int(id)
}

// Bool resolves id via the bound resolver.
func (f *Facade) Bool(id uint32) (bool, error) {
	if f.resolver == nil {
		return false, ErrResourceMissing{ID: id}
	}
	return f.resolver.Bool(id)
}

// Color resolves id via the bound resolver.
func (f *Facade) Color(id uint32) (uint32, error) {
	if f.resolver == nil {
		return 0, ErrResourceMissing{ID: id}
	}
	return f.resolver.Color(id)
}

// Dimension resolves id via the bound resolver.
func (f *Facade) Dimension(id uint32) (float32, error) {
	if f.resolver == nil {
		return 0, ErrResourceMissing{ID: id}
	}
	return f.resolver.Dimension(id)
}
