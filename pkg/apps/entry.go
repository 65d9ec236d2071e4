package apps

import "fmt"

// Entry identifies one component to install. It is a namespace path, a
// config value, or an already built Descriptor.
type Entry struct {
	name       string
	config     Config
	descriptor *Descriptor
}

// Module identifies a component by dotted namespace path, or by a dotted
// reference to a config symbol ("shop.billing.config.BillingConfig")
func Module(name string) Entry {
	return Entry{name: name}
}

// Modules is Module for each name, in order
func Modules(names ...string) []Entry {
	entries := make([]Entry, len(names))
	for i, name := range names {
		entries[i] = Module(name)
	}
	return entries
}

// FromConfig identifies a component by its config value; the namespace is
// imported from the config's Name
func FromConfig(cfg Config) Entry {
	return Entry{config: cfg}
}

// Prebuilt installs d as is, skipping resolution
func Prebuilt(d *Descriptor) Entry {
	return Entry{descriptor: d}
}

// String returns the identifier the entry was created from
func (e Entry) String() string {
	switch {
	case e.descriptor != nil:
		return e.descriptor.Name()
	case e.config != nil:
		if name := e.config.Name(); name != "" {
			return name
		}
		return fmt.Sprintf("%T", e.config)
	default:
		return e.name
	}
}
