package envutil

// Option post-processes a Reader. Readers apply options in the order given.
type Option[T any] func(Reader[T]) Reader[T]

// Default supplies the value of an unset variable.
func Default[T any](dfl T) Option[T] {
	return func(rdr Reader[T]) Reader[T] {
		return rdr.WithDefault(dfl)
	}
}

// IfMissing makes an unset variable fail with err.
func IfMissing[T any](err error) Option[T] {
	return func(rdr Reader[T]) Reader[T] {
		return rdr.WithErrorIfMissing(err)
	}
}

// Validate rejects values for which f returns an error. It runs after any
// earlier Default, so defaults are validated too.
func Validate[T any](f func(T) error) Option[T] {
	return func(rdr Reader[T]) Reader[T] {
		return Map(rdr, func(val T) (T, error) {
			return val, f(val)
		})
	}
}
