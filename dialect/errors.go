package dialect

var _ error = NoSuchDriverError{}

// NoSuchDriverError is returned when a URL names a driver that is not
// available for its backend.
type NoSuchDriverError struct {
	Backend string
	Driver  string
}

func (e NoSuchDriverError) Error() string {
	return "no driver " + e.Driver + " for backend " + e.Backend
}
