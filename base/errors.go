package base

var _ error = ErrRegistered{}

// ErrRegistered is thrown when trying to register a backend with a name that is already registered.
type ErrRegistered struct {
	Name string
}

func (e ErrRegistered) Error() string {
	return "already registered: " + e.Name
}

var _ error = ErrNotRegistered{}

// ErrNotRegistered is returned when resolving a backend name that was never registered.
type ErrNotRegistered struct {
	Name string
}

func (e ErrNotRegistered) Error() string {
	return "not registered: " + e.Name
}
