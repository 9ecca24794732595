package repokit

// Binder binds a domain repo to a specific Queryer
// services hold one and rebind inside transactions
type Binder[T any] interface {
	Bind(Queryer) T
}

// BindFunc adapts a plain function to the Binder interface
type BindFunc[T any] func(Queryer) T

// Bind calls the underlying function
func (f BindFunc[T]) Bind(q Queryer) T { return f(q) }
