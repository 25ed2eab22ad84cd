package commonsvotes

import "opengov/internal/services/divisions/domain"

// divisionWire is the subset of the Commons Votes division document we read.
// The API is PascalCase; listing entries and detail share these fields
type divisionWire struct {
	DivisionID         int    `json:"DivisionId" validate:"gt=0"`
	Title              string `json:"Title" validate:"required"`
	PublicationUpdated string `json:"PublicationUpdated" validate:"required"`
	Date               string `json:"Date"`
	Number             int    `json:"Number"`
}

func (w divisionWire) record() domain.DivisionRecord {
	return domain.DivisionRecord{
		DivisionID:         w.DivisionID,
		Title:              w.Title,
		PublicationUpdated: w.PublicationUpdated,
		Date:               w.Date,
		Number:             w.Number,
	}
}
