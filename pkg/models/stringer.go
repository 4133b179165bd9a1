package models

// String methods for the custom string types.
// These are required for toon serialization, which uses fmt.Stringer.

// Severity
func (s Severity) String() string { return string(s) }

// Category
func (c Category) String() string { return string(c) }

// Grade
func (g Grade) String() string { return string(g) }

// Status
func (s Status) String() string { return string(s) }

// Priority
func (p Priority) String() string { return string(p) }
