package goserde

// Optional holds a value that may be absent. The zero value is absent.
type Optional[T any] struct {
	value   T
	present bool
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] { return Optional[T]{value: v, present: true} }

// None returns an absent Optional.
func None[T any]() Optional[T] { return Optional[T]{} }

// Get returns the held value and whether it is present.
func (o Optional[T]) Get() (T, bool) { return o.value, o.present }

func (o Optional[T]) IsPresent() bool { return o.present }

// OrElse returns the held value, or def when absent.
func (o Optional[T]) OrElse(def T) T {
	if o.present {
		return o.value
	}
	return def
}

// Set stores v and marks the Optional present.
func (o *Optional[T]) Set(v T) {
	o.value = v
	o.present = true
}

// Clear marks the Optional absent and drops the held value.
func (o *Optional[T]) Clear() {
	var zero T
	o.value = zero
	o.present = false
}
