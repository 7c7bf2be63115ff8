// Package dialect keeps the global registry of database backends and the
// client drivers available under each of them.
package dialect

import (
	"sort"

	"github.com/dbkit-go/dbprovision/base"
	"github.com/dbkit-go/dbprovision/dburl"
)

// DSNFunc is a function for building a database/sql Data Source Name from a
// connection URL.
type DSNFunc func(u *dburl.URL) (string, error)

// Driver describes one client driver available under a backend.
type Driver struct {
	Name      string // driver tag, as used in "backend+driver" URL schemes
	SQLDriver string // name the driver is registered under in database/sql
	DSN       DSNFunc
}

// Registration is an information about a database backend.
type Registration struct {
	base.Registration
	Default string // name of the default driver
	Drivers []Driver
	// Provision installs the backend's provisioning hooks into the default
	// hook registry. It is invoked lazily, at most once per process, when
	// the backend is first used by a session or the reaper.
	Provision func()
}

// Driver returns the backend's driver by name, or nil if the backend has no
// such driver. An empty name selects the default driver.
func (r *Registration) Driver(name string) *Driver {
	if name == "" {
		name = r.Default
	}
	for i, d := range r.Drivers {
		if d.Name == name {
			return &r.Drivers[i]
		}
	}
	return nil
}

var registry = make(map[string]Registration)

// Register globally registers a database backend.
func Register(reg Registration) {
	if reg.Name == "" {
		panic("name cannot be empty")
	} else if _, ok := registry[reg.Name]; ok {
		panic(base.ErrRegistered{Name: reg.Name})
	} else if len(reg.Drivers) == 0 {
		panic("at least one driver should be specified")
	}
	if reg.Default == "" {
		reg.Default = reg.Drivers[0].Name
	}
	if reg.Driver(reg.Default) == nil {
		panic("default driver is not in the driver list: " + reg.Default)
	}
	registry[reg.Name] = reg
}

// List enumerates all globally registered database backends.
func List() []Registration {
	out := make([]Registration, 0, len(registry))
	for _, r := range registry {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// ByName returns a registered database backend by its name.
func ByName(name string) *Registration {
	r, ok := registry[name]
	if !ok {
		return nil
	}
	return &r
}

// Resolve finds the backend registration and the concrete driver for a URL.
// It fails if the backend is unknown or the URL names a driver the backend
// does not have. Resolution validates driver availability and nothing else:
// no connection is made.
func Resolve(u *dburl.URL) (*Registration, *Driver, error) {
	r := ByName(u.Backend)
	if r == nil {
		return nil, nil, base.ErrNotRegistered{Name: u.Backend}
	}
	d := r.Driver(u.Driver)
	if d == nil {
		return nil, nil, NoSuchDriverError{Backend: u.Backend, Driver: u.Driver}
	}
	return r, d, nil
}
