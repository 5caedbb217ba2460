package strategy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"regsync/internal/records/models"
	"regsync/internal/records/store"
	"regsync/internal/records/visibility"
	"regsync/pkg/identity"
	"regsync/pkg/platform/sentinel"
	"regsync/pkg/requestcontext"
)

// reconciler is the shared master/flavour write logic every family embeds.
// Families differ only in schema, flavour audiences, and the flavour
// projection.
type reconciler struct {
	store     store.Store
	caller    identity.Identity
	schema    models.Schema
	audiences []models.Audience
}

func (r *reconciler) FindExisting(ctx context.Context, rec *models.Record) (*models.Record, error) {
	existing, err := r.store.FindOne(ctx, store.Filter{
		"schema":      r.schema,
		"audience":    models.AudienceMaster,
		"sourceRefId": rec.SourceRefID,
	})
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find existing %s: %w", r.schema, err)
	}
	return existing, nil
}

func (r *reconciler) Create(ctx context.Context, rec *models.Record) (*Result, error) {
	now := requestcontext.Now(ctx)
	visibility.ApplyPublicVisibility(rec, now)

	master := *rec
	master.ID = uuid.NewString()
	master.Schema = r.schema
	master.Audience = models.AudienceMaster
	master.Read = []string{models.RoleSysadmin}
	master.Write = []string{models.RoleSysadmin}
	master.AddedBy = r.caller.Name()
	master.UpdatedBy = r.caller.Name()
	master.DateAdded = now
	master.DateUpdated = now

	flavours := make([]*models.Record, 0, len(r.audiences))
	for _, audience := range r.audiences {
		flavour := projectFlavour(&master, audience, now)
		master.FlavourRecords = append(master.FlavourRecords, flavour.ID)
		flavours = append(flavours, flavour)
	}

	if err := r.store.Insert(ctx, &master); err != nil {
		return nil, fmt.Errorf("insert %s master: %w", r.schema, err)
	}

	for i, flavour := range flavours {
		if err := r.store.Insert(ctx, flavour); err != nil {
			return nil, r.rollbackCreate(ctx, &master, flavours[:i], err)
		}
	}

	return &Result{Action: ActionCreated, Master: &master, Flavours: flavours}, nil
}

// rollbackCreate removes the master and any flavours that landed before
// the failed insert. A flavour must never outlive its master, so a
// failed rollback is surfaced as ErrPartialCreate for operator replay.
func (r *reconciler) rollbackCreate(ctx context.Context, master *models.Record, landed []*models.Record, cause error) error {
	for _, flavour := range landed {
		if err := r.store.Delete(ctx, flavour.ID); err != nil {
			return fmt.Errorf("%w: flavour %s insert failed (%v) and rollback failed: %v",
				ErrPartialCreate, flavour.Audience, cause, err)
		}
	}
	if err := r.store.Delete(ctx, master.ID); err != nil {
		return fmt.Errorf("%w: flavour insert failed (%v) and master rollback failed: %v",
			ErrPartialCreate, cause, err)
	}
	return fmt.Errorf("create %s flavours: %w", r.schema, cause)
}

func (r *reconciler) Update(ctx context.Context, rec *models.Record, existing *models.Record) (*Result, error) {
	if existing == nil {
		return nil, fmt.Errorf("update %s: existing master is required", r.schema)
	}
	now := requestcontext.Now(ctx)
	visibility.ApplyPublicVisibility(rec, now)

	master := *existing
	applyRecordFields(&master, rec)
	master.UpdatedBy = r.caller.Name()
	master.DateUpdated = now

	flavourIDs := make([]string, 0, len(r.audiences))
	for _, audience := range r.audiences {
		flavour, err := r.findFlavour(ctx, master.ID, audience)
		if err != nil {
			return nil, err
		}
		if flavour == nil {
			// Source data implies this flavour; create it.
			flavour = projectFlavour(&master, audience, now)
			if err := r.store.Insert(ctx, flavour); err != nil {
				return nil, fmt.Errorf("insert %s %s flavour: %w", r.schema, audience, err)
			}
			flavourIDs = append(flavourIDs, flavour.ID)
			continue
		}

		patched := projectFlavour(&master, audience, now)
		patched.ID = flavour.ID
		patched.AddedBy = flavour.AddedBy
		patched.DateAdded = flavour.DateAdded
		if err := r.store.Update(ctx, patched); err != nil {
			return nil, fmt.Errorf("update %s %s flavour: %w", r.schema, audience, err)
		}
		flavourIDs = append(flavourIDs, flavour.ID)
	}

	// The flavour list must match the live flavour set exactly. Rebuilding
	// it here drops any id whose flavour record was removed out-of-band.
	master.FlavourRecords = flavourIDs

	if err := r.store.Update(ctx, &master); err != nil {
		return nil, fmt.Errorf("update %s master: %w", r.schema, err)
	}

	return &Result{Action: ActionUpdated, Master: &master}, nil
}

func (r *reconciler) findFlavour(ctx context.Context, masterID string, audience models.Audience) (*models.Record, error) {
	flavour, err := r.store.FindOne(ctx, store.Filter{
		"audience": audience,
		"master":   masterID,
	})
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find %s %s flavour: %w", r.schema, audience, err)
	}
	return flavour, nil
}

// IsFeeOrder is false for every family except Order, which overrides it.
func (r *reconciler) IsFeeOrder(*models.Record) bool { return false }

// applyRecordFields copies the transformed descriptive fields onto the
// stored master, leaving identity, provenance-of-creation and flavour
// bookkeeping untouched.
func applyRecordFields(dst *models.Record, src *models.Record) {
	dst.RecordName = src.RecordName
	dst.DateIssued = src.DateIssued
	dst.IssuingAgency = src.IssuingAgency
	dst.Location = src.Location
	dst.Legislation = src.Legislation
	dst.IssuedTo = src.IssuedTo
	dst.Documents = src.Documents
	dst.SourceSystemRef = src.SourceSystemRef
	dst.SourceDateAdded = src.SourceDateAdded
	dst.SourceDateUpdated = src.SourceDateUpdated
}

// projectFlavour builds the audience-scoped projection of a master.
// Flavours carry the public role on their own Read set; the issuedTo and
// document visibility inside the projected fields was already decided by
// the anonymity rules.
func projectFlavour(master *models.Record, audience models.Audience, now time.Time) *models.Record {
	flavour := &models.Record{
		ID:                uuid.NewString(),
		Schema:            master.Schema,
		Audience:          audience,
		SourceRefID:       master.SourceRefID,
		Read:              []string{models.RoleSysadmin, models.RolePublic},
		Write:             []string{models.RoleSysadmin},
		SourceSystemRef:   master.SourceSystemRef,
		SourceDateAdded:   master.SourceDateAdded,
		SourceDateUpdated: master.SourceDateUpdated,
		RecordName:        master.RecordName,
		DateIssued:        master.DateIssued,
		IssuingAgency:     master.IssuingAgency,
		Location:          master.Location,
		Legislation:       master.Legislation,
		IssuedTo:          master.IssuedTo,
		Documents:         master.Documents,
		Master:            master.ID,
		AddedBy:           master.AddedBy,
		UpdatedBy:         master.UpdatedBy,
		DateAdded:         now,
		DateUpdated:       now,
	}
	return flavour
}
