package source

import "time"

// Entity is the raw issuedTo shape on a source item.
type Entity struct {
	Type        string     `json:"type"`
	FirstName   string     `json:"firstName"`
	MiddleName  string     `json:"middleName"`
	LastName    string     `json:"lastName"`
	CompanyName string     `json:"companyName"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
}

// Attachment is a raw document reference on a source item.
type Attachment struct {
	FileName string `json:"fileName"`
	URL      string `json:"url"`
}

// Item is one element of a source search result page.
type Item struct {
	ID          string       `json:"_id"`
	Type        string       `json:"recordType"`
	Name        string       `json:"recordName"`
	DateIssued  *time.Time   `json:"dateIssued"`
	Agency      string       `json:"issuingAgency"`
	Legislation string       `json:"legislation"`
	Location    string       `json:"location"`
	SiteID      string       `json:"siteId"`
	ProjectID   string       `json:"projectId"`
	DateAdded   *time.Time   `json:"dateAdded"`
	DateUpdated *time.Time   `json:"dateUpdated"`
	IssuedTo    *Entity      `json:"issuedTo"`
	Attachments []Attachment `json:"attachments"`
}

// Project is the metadata a project reference resolves to during
// item-level enrichment.
type Project struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}
