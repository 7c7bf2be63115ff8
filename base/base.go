package base

// Registration is a common information about a database backend.
type Registration struct {
	Name  string // unique backend tag, as it appears in connection URLs
	Title string // human-readable name
}
