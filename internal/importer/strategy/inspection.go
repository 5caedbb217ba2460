package strategy

import (
	"regsync/internal/importer/source"
	"regsync/internal/records/models"
	"regsync/internal/records/store"
	"regsync/pkg/identity"
)

// sourceSystemRef is the provenance value stamped on every record this
// data source imports.
const sourceSystemRef = "inspection-enforcement-api"

// Inspection reconciles inspection records with a public flavour.
type Inspection struct {
	reconciler
}

// NewInspection creates the Inspection strategy for one run's caller.
func NewInspection(st store.Store, caller identity.Identity) *Inspection {
	return &Inspection{reconciler{
		store:     st,
		caller:    caller,
		schema:    models.SchemaInspection,
		audiences: []models.Audience{models.AudiencePublic},
	}}
}

func (i *Inspection) Transform(item *source.Item, project *source.Project) (*models.Record, error) {
	return transformCommon(item, project, models.SchemaInspection, sourceSystemRef)
}
