package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"regsync/internal/importer/source"
	"regsync/internal/records/models"
	"regsync/internal/records/store"
	"regsync/pkg/identity"
)

type TransformSuite struct {
	suite.Suite
	order *Order
}

func TestTransformSuite(t *testing.T) {
	suite.Run(t, new(TransformSuite))
}

func (s *TransformSuite) SetupTest() {
	s.order = NewOrder(store.NewInMemory(), identity.System)
}

func (s *TransformSuite) sourceItem() *source.Item {
	issued := time.Date(2025, time.May, 2, 0, 0, 0, 0, time.UTC)
	added := time.Date(2025, time.May, 3, 0, 0, 0, 0, time.UTC)
	return &source.Item{
		ID:          "EXT-100",
		Type:        "OrderNRCED",
		Name:        "Stop Work Order 100",
		DateIssued:  &issued,
		Agency:      "Conservation Officer Service",
		Legislation: "Environmental Management Act s.81",
		Location:    "Fort Hills",
		DateAdded:   &added,
		IssuedTo: &source.Entity{
			Type:      "Individual",
			FirstName: "Alex",
			LastName:  "Rivera",
		},
		Attachments: []source.Attachment{
			{FileName: "order.pdf", URL: "https://files.example/order-100.pdf"},
		},
	}
}

func (s *TransformSuite) TestTransform() {
	s.Run("nil item returns ErrMissingInput", func() {
		_, err := s.order.Transform(nil, nil)
		s.Require().ErrorIs(err, ErrMissingInput)
	})

	s.Run("maps source fields to the normalized record", func() {
		rec, err := s.order.Transform(s.sourceItem(), nil)
		s.Require().NoError(err)

		s.Equal(models.SchemaOrder, rec.Schema)
		s.Equal("EXT-100", rec.SourceRefID)
		s.Equal("inspection-enforcement-api", rec.SourceSystemRef)
		s.Equal("Stop Work Order 100", rec.RecordName)
		s.Equal("Conservation Officer Service", rec.IssuingAgency)
		s.Equal("Fort Hills", rec.Location)
		s.Require().NotNil(rec.IssuedTo)
		s.Equal(models.EntityIndividual, rec.IssuedTo.Type)
		s.Equal([]string{models.RoleSysadmin}, rec.IssuedTo.Read)
	})

	s.Run("absent optional fields map to zero values", func() {
		rec, err := s.order.Transform(&source.Item{ID: "EXT-sparse", Name: "Order Sparse"}, nil)
		s.Require().NoError(err)

		s.Nil(rec.IssuedTo)
		s.Empty(rec.Documents)
		s.Nil(rec.DateIssued)
		s.Empty(rec.Location)
	})

	s.Run("project location fills a missing item location", func() {
		item := s.sourceItem()
		item.Location = ""
		project := &source.Project{ID: "proj-1", Location: "Northern District"}

		rec, err := s.order.Transform(item, project)
		s.Require().NoError(err)
		s.Equal("Northern District", rec.Location)
	})

	s.Run("item location wins over project location", func() {
		rec, err := s.order.Transform(s.sourceItem(), &source.Project{ID: "proj-1", Location: "Elsewhere"})
		s.Require().NoError(err)
		s.Equal("Fort Hills", rec.Location)
	})

	s.Run("unknown entity type maps to company", func() {
		item := s.sourceItem()
		item.IssuedTo.Type = "Martian"

		rec, err := s.order.Transform(item, nil)
		s.Require().NoError(err)
		s.Equal(models.EntityCompany, rec.IssuedTo.Type)
	})

	s.Run("document ids are deterministic across transforms", func() {
		first, err := s.order.Transform(s.sourceItem(), nil)
		s.Require().NoError(err)
		second, err := s.order.Transform(s.sourceItem(), nil)
		s.Require().NoError(err)

		s.Require().Len(first.Documents, 1)
		s.Equal(first.Documents[0].ID, second.Documents[0].ID)
	})

	s.Run("empty attachments are skipped", func() {
		item := s.sourceItem()
		item.Attachments = append(item.Attachments, source.Attachment{})

		rec, err := s.order.Transform(item, nil)
		s.Require().NoError(err)
		s.Len(rec.Documents, 1)
	})
}

func (s *TransformSuite) TestIsFeeOrder() {
	s.Run("fee orders match case-insensitively", func() {
		s.True(s.order.IsFeeOrder(&models.Record{RecordName: "Administrative Fee Order 7"}))
		s.True(s.order.IsFeeOrder(&models.Record{RecordName: "FEE ORDER"}))
	})

	s.Run("other orders do not match", func() {
		s.False(s.order.IsFeeOrder(&models.Record{RecordName: "Stop Work Order"}))
		s.False(s.order.IsFeeOrder(nil))
	})

	s.Run("other families never classify fee orders", func() {
		inspection := NewInspection(store.NewInMemory(), identity.System)
		s.False(inspection.IsFeeOrder(&models.Record{RecordName: "Fee Inspection"}))
	})
}
