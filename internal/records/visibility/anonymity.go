// Package visibility decides whether personally-identifying sub-fields of
// a record may carry public-read visibility.
//
// The rules are pure functions of the record and an evaluation time, so
// strategies can apply them identically on create and on update.
package visibility

import (
	"time"

	"regsync/internal/records/models"
	platstrings "regsync/pkg/platform/strings"
)

// AdultAge is the minimum age at evaluation time for an individual's
// name to be publishable.
const AdultAge = 19

// publishingAgencies lists issuing agencies authorized to publish the
// names of individuals.
var publishingAgencies = map[string]struct{}{
	"Conservation Officer Service":      {},
	"Environmental Protection Division": {},
	"Natural Resource Officers":         {},
}

// forcedPublicSources lists whole-source provenance values whose records
// are never anonymized. Bulk court-system CSV imports arrive already
// vetted for publication.
var forcedPublicSources = map[string]struct{}{
	"court-csv": {},
}

// IsRecordConsideredAnonymous reports whether the record's issuedTo
// sub-entity must stay hidden from the public audience.
//
// A subject is publishable (not anonymous) only when all of:
//   - the entity type names a natural person,
//   - the issuing agency is authorized to publish names, and
//   - the subject is at least AdultAge years old at evaluation time.
//
// Records from forcedPublicSources are never anonymous regardless of the
// computed result.
//
// When both issuedTo and issuingAgency are absent the function returns
// false rather than suppressing the record forever. Callers on ingest
// paths treat "insufficient information" contextually; this asymmetry is
// deliberate and mirrors the upstream system's behaviour; do not unify
// the branches without a product decision.
func IsRecordConsideredAnonymous(rec *models.Record, now time.Time) bool {
	if rec == nil {
		return false
	}
	if _, forced := forcedPublicSources[rec.SourceSystemRef]; forced {
		return false
	}

	issuedTo := rec.IssuedTo
	if issuedTo.IsEmpty() && rec.IssuingAgency == "" {
		// Insufficient information; see doc comment.
		return false
	}
	if issuedTo.IsEmpty() {
		return true
	}
	if !issuedTo.Type.Individual() {
		return true
	}
	if _, authorized := publishingAgencies[rec.IssuingAgency]; !authorized {
		return true
	}
	if issuedTo.DateOfBirth == nil {
		return true
	}
	return AgeAt(*issuedTo.DateOfBirth, now) < AdultAge
}

// ApplyPublicVisibility grants or revokes the public role on the
// issuedTo sub-entity and every linked document, driven by the anonymity
// decision. The record's own Read set is left to the flavour projection.
func ApplyPublicVisibility(rec *models.Record, now time.Time) {
	if rec == nil {
		return
	}
	anonymous := IsRecordConsideredAnonymous(rec, now)

	if rec.IssuedTo != nil {
		if anonymous {
			rec.IssuedTo.Read = remove(rec.IssuedTo.Read, models.RolePublic)
		} else {
			rec.IssuedTo.Read = add(rec.IssuedTo.Read, models.RolePublic)
		}
	}
	for i := range rec.Documents {
		if anonymous {
			rec.Documents[i].Read = remove(rec.Documents[i].Read, models.RolePublic)
		} else {
			rec.Documents[i].Read = add(rec.Documents[i].Read, models.RolePublic)
		}
	}
}

// AgeAt returns whole years between birth and now, calendar-accurate
// around birthday boundaries.
func AgeAt(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	anniversary := birth.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years
}

func add(roles []string, role string) []string {
	if platstrings.Contains(roles, role) {
		return roles
	}
	return append(roles, role)
}

func remove(roles []string, role string) []string {
	return platstrings.Remove(roles, role)
}
