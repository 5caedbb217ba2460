package strategy

import (
	"github.com/google/uuid"

	"regsync/internal/importer/source"
	"regsync/internal/records/models"
)

// transformCommon maps the source item fields shared by every family.
// Absent optional fields become zero values; only a nil item errors.
func transformCommon(item *source.Item, project *source.Project, schema models.Schema, sourceSystemRef string) (*models.Record, error) {
	if item == nil {
		return nil, ErrMissingInput
	}

	rec := &models.Record{
		Schema:            schema,
		SourceRefID:       item.ID,
		SourceSystemRef:   sourceSystemRef,
		RecordName:        item.Name,
		DateIssued:        item.DateIssued,
		IssuingAgency:     item.Agency,
		Location:          item.Location,
		Legislation:       item.Legislation,
		SourceDateAdded:   item.DateAdded,
		SourceDateUpdated: item.DateUpdated,
	}

	if project != nil && rec.Location == "" {
		rec.Location = project.Location
	}

	if item.IssuedTo != nil {
		rec.IssuedTo = &models.Entity{
			Type:        entityType(item.IssuedTo.Type),
			FirstName:   item.IssuedTo.FirstName,
			MiddleName:  item.IssuedTo.MiddleName,
			LastName:    item.IssuedTo.LastName,
			CompanyName: item.IssuedTo.CompanyName,
			DateOfBirth: item.IssuedTo.DateOfBirth,
			Read:        []string{models.RoleSysadmin},
		}
	}

	for _, attachment := range item.Attachments {
		if attachment.URL == "" && attachment.FileName == "" {
			continue
		}
		rec.Documents = append(rec.Documents, models.Document{
			// Deterministic id keyed on the source URL so re-imports
			// reference the same document instead of minting a new one.
			ID:       uuid.NewSHA1(uuid.NameSpaceURL, []byte(attachment.URL+"|"+attachment.FileName)).String(),
			FileName: attachment.FileName,
			URL:      attachment.URL,
			Read:     []string{models.RoleSysadmin},
			Write:    []string{models.RoleSysadmin},
		})
	}

	return rec, nil
}

func entityType(raw string) models.EntityType {
	switch raw {
	case string(models.EntityIndividual):
		return models.EntityIndividual
	case string(models.EntityIndividualCombined):
		return models.EntityIndividualCombined
	case string(models.EntityCompany):
		return models.EntityCompany
	default:
		// Unknown subject kinds default to Company so names are never
		// published on the strength of a malformed type value.
		return models.EntityCompany
	}
}
