// Package domain holds the documents read from the Yelp indices and the request and
// response shapes of the query service.
package domain

import "encoding/json"

// Review is a review document.
type Review struct {
	ReviewID   string `json:"review_id"`
	UserID     string `json:"user_id"`
	BusinessID string `json:"business_id"`
	Stars      Number `json:"stars"`
	Useful     Number `json:"useful"`
	Funny      Number `json:"funny"`
	Cool       Number `json:"cool"`
	Text       string `json:"text"`
	Date       string `json:"date"`
}

// UnmarshalJSON accepts any field types the index accepted on write, so a stored
// review always decodes.
func (r *Review) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*r = Review{
		ReviewID:   scalarText(fields["review_id"]),
		UserID:     scalarText(fields["user_id"]),
		BusinessID: scalarText(fields["business_id"]),
		Stars:      numberField(fields, "stars"),
		Useful:     numberField(fields, "useful"),
		Funny:      numberField(fields, "funny"),
		Cool:       numberField(fields, "cool"),
		Text:       scalarText(fields["text"]),
		Date:       scalarText(fields["date"]),
	}
	return nil
}

// Business is a business document.
type Business struct {
	BusinessID  string `json:"business_id"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postal_code"`
	Latitude    Number `json:"latitude"`
	Longitude   Number `json:"longitude"`
	Stars       Number `json:"stars"`
	ReviewCount Number `json:"review_count"`
	IsOpen      Number `json:"is_open"`
	Categories  string `json:"categories"`
}

// BusinessSummary holds the business fields attached to review results. Nil fields
// were absent from the stored document.
type BusinessSummary struct {
	BusinessID string  `json:"business_id"`
	Name       *string `json:"name"`
	City       *string `json:"city"`
	State      *string `json:"state"`
}

// BusinessSummaryFields lists the source fields a BusinessSummary needs.
var BusinessSummaryFields = []string{"business_id", "name", "city", "state"}

// ReviewResult is a review enriched with its business. The business fields are null
// when no business matched.
type ReviewResult struct {
	Text          string  `json:"text"`
	Stars         Number  `json:"stars"`
	Date          string  `json:"date"`
	BusinessName  *string `json:"business_name"`
	BusinessCity  *string `json:"business_city"`
	BusinessState *string `json:"business_state"`
}

// Document is a stored document with every field preserved as raw JSON.
type Document map[string]json.RawMessage
