// Package models defines the normalized compliance record and its
// master/flavour document shape.
//
// Every imported source item is transformed into a Record. The canonical,
// administrator-visible copy is the master; access-scoped projections for
// downstream audiences are flavours of that master. Masters and flavours
// share one collection, distinguished by (Schema, Audience).
package models

import (
	"time"

	platstrings "regsync/pkg/platform/strings"
)

// Schema names the concrete kind of compliance event a record describes.
type Schema string

const (
	SchemaOrder       Schema = "Order"
	SchemaInspection  Schema = "Inspection"
	SchemaCertificate Schema = "Certificate"
)

// Audience scopes a record to its readers. The master carries the full
// field set; flavours project a subset for one downstream audience.
type Audience string

const (
	// AudienceMaster marks the canonical record.
	AudienceMaster Audience = "master"
	// AudiencePublic marks the public-facing flavour.
	AudiencePublic Audience = "public"
)

// Roles used in Read/Write sets.
const (
	RoleSysadmin = "sysadmin"
	RolePublic   = "public"
)

// EntityType classifies the subject a record was issued to.
type EntityType string

const (
	EntityIndividual         EntityType = "Individual"
	EntityIndividualCombined EntityType = "IndividualCombined"
	EntityCompany            EntityType = "Company"
)

// Individual reports whether the entity type names a natural person.
func (t EntityType) Individual() bool {
	return t == EntityIndividual || t == EntityIndividualCombined
}

// Entity is the issuedTo sub-entity of a record. It carries its own Read
// set because the subject's identity may be visible to fewer audiences
// than the record itself.
type Entity struct {
	Type        EntityType `bson:"type" json:"type"`
	FirstName   string     `bson:"firstName,omitempty" json:"firstName,omitempty"`
	MiddleName  string     `bson:"middleName,omitempty" json:"middleName,omitempty"`
	LastName    string     `bson:"lastName,omitempty" json:"lastName,omitempty"`
	CompanyName string     `bson:"companyName,omitempty" json:"companyName,omitempty"`
	DateOfBirth *time.Time `bson:"dateOfBirth,omitempty" json:"dateOfBirth,omitempty"`
	Read        []string   `bson:"read" json:"read"`
}

// IsEmpty reports whether the entity carries no identifying information.
func (e *Entity) IsEmpty() bool {
	if e == nil {
		return true
	}
	return e.Type == "" && e.FirstName == "" && e.MiddleName == "" &&
		e.LastName == "" && e.CompanyName == "" && e.DateOfBirth == nil
}

// Document is an attachment reference. Documents are shared entities;
// they live in the same collection and carry their own visibility.
type Document struct {
	ID       string   `bson:"_id" json:"id"`
	FileName string   `bson:"fileName" json:"fileName"`
	URL      string   `bson:"url" json:"url"`
	Key      string   `bson:"key,omitempty" json:"key,omitempty"`
	Read     []string `bson:"read" json:"read"`
	Write    []string `bson:"write" json:"write"`
}

// Record is the normalized, source-agnostic representation of one
// compliance event, persisted as either a master or a flavour.
type Record struct {
	ID       string   `bson:"_id" json:"id"`
	Schema   Schema   `bson:"schema" json:"schema"`
	Audience Audience `bson:"audience" json:"audience"`

	// SourceRefID is the stable external reference, the idempotency key
	// for upsert. Unique per (Schema, Audience).
	SourceRefID string `bson:"sourceRefId" json:"sourceRefId"`

	Read  []string `bson:"read" json:"read"`
	Write []string `bson:"write" json:"write"`

	SourceSystemRef   string     `bson:"sourceSystemRef" json:"sourceSystemRef"`
	SourceDateAdded   *time.Time `bson:"sourceDateAdded,omitempty" json:"sourceDateAdded,omitempty"`
	SourceDateUpdated *time.Time `bson:"sourceDateUpdated,omitempty" json:"sourceDateUpdated,omitempty"`

	RecordName    string     `bson:"recordName" json:"recordName"`
	DateIssued    *time.Time `bson:"dateIssued,omitempty" json:"dateIssued,omitempty"`
	IssuingAgency string     `bson:"issuingAgency" json:"issuingAgency"`
	Location      string     `bson:"location,omitempty" json:"location,omitempty"`
	Legislation   string     `bson:"legislation,omitempty" json:"legislation,omitempty"`

	IssuedTo  *Entity    `bson:"issuedTo,omitempty" json:"issuedTo,omitempty"`
	Documents []Document `bson:"documents,omitempty" json:"documents,omitempty"`

	// FlavourRecords lists the IDs of this master's flavours. Masters only.
	FlavourRecords []string `bson:"flavourRecords,omitempty" json:"flavourRecords,omitempty"`
	// Master back-references the canonical record. Flavours only.
	Master string `bson:"master,omitempty" json:"master,omitempty"`

	AddedBy     string    `bson:"addedBy" json:"addedBy"`
	UpdatedBy   string    `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	DateAdded   time.Time `bson:"dateAdded" json:"dateAdded"`
	DateUpdated time.Time `bson:"dateUpdated" json:"dateUpdated"`
}

// IsMaster reports whether the record is the canonical copy.
func (r *Record) IsMaster() bool { return r.Audience == AudienceMaster }

// HasFlavour reports whether the master already references the flavour id.
func (r *Record) HasFlavour(id string) bool {
	return platstrings.Contains(r.FlavourRecords, id)
}
