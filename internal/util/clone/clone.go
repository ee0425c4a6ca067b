package clone

// TrivialPtr copies a pointer to a value without interior pointers.
func TrivialPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	res := *p
	return &res
}

type Clonable[T any] interface {
	Clone() T
}

func Slice[T Clonable[T]](s []T) []T {
	if s == nil {
		return nil
	}
	res := make([]T, len(s))
	for i := range s {
		res[i] = s[i].Clone()
	}
	return res
}
