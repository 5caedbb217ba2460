package strategy

import (
	"strings"

	"regsync/internal/importer/source"
	"regsync/internal/records/models"
	"regsync/internal/records/store"
	"regsync/pkg/identity"
)

// Order reconciles enforcement orders. Orders fan out to a public
// flavour and are the only family with the fee-order exclusion.
type Order struct {
	reconciler
}

// NewOrder creates the Order strategy for one run's caller.
func NewOrder(st store.Store, caller identity.Identity) *Order {
	return &Order{reconciler{
		store:     st,
		caller:    caller,
		schema:    models.SchemaOrder,
		audiences: []models.Audience{models.AudiencePublic},
	}}
}

func (o *Order) Transform(item *source.Item, project *source.Project) (*models.Record, error) {
	return transformCommon(item, project, models.SchemaOrder, sourceSystemRef)
}

// IsFeeOrder classifies administrative fee-orders by record name so they
// can be excluded before batch processing.
func (o *Order) IsFeeOrder(rec *models.Record) bool {
	if rec == nil {
		return false
	}
	return strings.Contains(strings.ToLower(rec.RecordName), "fee")
}
