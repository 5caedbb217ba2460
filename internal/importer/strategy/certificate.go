package strategy

import (
	"regsync/internal/importer/source"
	"regsync/internal/records/models"
	"regsync/internal/records/store"
	"regsync/pkg/identity"
)

// Certificate reconciles certificates. Certificates are
// administrator-only: the master has no flavours.
type Certificate struct {
	reconciler
}

// NewCertificate creates the Certificate strategy for one run's caller.
func NewCertificate(st store.Store, caller identity.Identity) *Certificate {
	return &Certificate{reconciler{
		store:  st,
		caller: caller,
		schema: models.SchemaCertificate,
	}}
}

func (c *Certificate) Transform(item *source.Item, project *source.Project) (*models.Record, error) {
	return transformCommon(item, project, models.SchemaCertificate, sourceSystemRef)
}
