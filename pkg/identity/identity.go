// Package identity carries the caller identity through the import pipeline.
//
// The pipeline never interprets the identity beyond stamping provenance
// fields (AddedBy/UpdatedBy) on records it writes.
package identity

// Identity describes who triggered an import run.
type Identity struct {
	DisplayName string
	Roles       []string
}

// System is the identity used by scheduled runs with no human operator.
var System = Identity{DisplayName: "system"}

// Name returns the display name, falling back to the system identity so
// provenance fields are never empty.
func (i Identity) Name() string {
	if i.DisplayName == "" {
		return System.DisplayName
	}
	return i.DisplayName
}
