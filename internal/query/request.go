package query

import "encoding/json"

// Order is a sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Sort orders hits by a field.
type Sort struct {
	Field string
	Order Order
}

// MarshalJSON renders {field:{"order":…}}.
func (s Sort) MarshalJSON() ([]byte, error) {
	order := s.Order
	if order == "" {
		order = Desc
	}
	return json.Marshal(map[string]map[string]Order{
		s.Field: {"order": order},
	})
}

// Request is a complete search body.
// From is nil for requests without a pagination offset. Source limits the returned
// document fields; nil returns the whole document.
type Request struct {
	Query  Query
	From   *int
	Size   int
	Sort   []Sort
	Source []string
}

// Offset returns the zero-based offset of a 1-indexed page.
// A page below 1 yields a negative offset; callers validate pages before building.
func Offset(size, page int) int {
	return size * (page - 1)
}

// MarshalJSON renders the request in the _search body format.
func (r Request) MarshalJSON() ([]byte, error) {
	type wire struct {
		Query  Query    `json:"query"`
		From   *int     `json:"from,omitempty"`
		Size   int      `json:"size"`
		Sort   []Sort   `json:"sort,omitempty"`
		Source []string `json:"_source,omitempty"`
	}
	return json.Marshal(wire{Query: r.Query, From: r.From, Size: r.Size, Sort: r.Sort, Source: r.Source})
}

// Fields used by the prebuilt queries.
const (
	DefaultKeywordField = "text"
	FieldStars          = "stars"
	FieldPostalCode     = "postal_code"
	FieldState          = "state"
	FieldCity           = "city"
	FieldReviewCount    = "review_count"
)

// LocationFields are matched by location search.
var LocationFields = []string{FieldState, FieldPostalCode, FieldCity}

// KeywordQuery matches term against field requiring every token, paginated.
// An empty field searches DefaultKeywordField.
func KeywordQuery(field, term string, size, page int) Request {
	if field == "" {
		field = DefaultKeywordField
	}
	from := Offset(size, page)
	return Request{
		Query: Match{Field: field, Query: term, Operator: OperatorAnd},
		From:  &from,
		Size:  size,
	}
}

// TermQuery filters on an exact field value with a fixed result cap and no offset.
func TermQuery(field string, value any, size int, sort ...Sort) Request {
	return Request{
		Query: Term{Field: field, Value: value},
		Size:  size,
		Sort:  sort,
	}
}

// MultiFieldQuery matches term against any of fields, paginated and sorted by
// sortField. An empty order sorts descending.
func MultiFieldQuery(fields []string, term string, size, page int, sortField string, order Order) Request {
	if order == "" {
		order = Desc
	}
	from := Offset(size, page)
	req := Request{
		Query: MultiMatch{Query: term, Fields: fields},
		From:  &from,
		Size:  size,
	}
	if sortField != "" {
		req.Sort = []Sort{{Field: sortField, Order: order}}
	}
	return req
}

// TermsLookup fetches the documents whose field equals one of values.
// Size equals len(values) so the backend's default page size cannot truncate the lookup.
// Optional source fields restrict the returned document.
func TermsLookup(field string, values []string, source ...string) Request {
	return Request{
		Query:  Terms{Field: field, Values: values},
		Size:   len(values),
		Source: source,
	}
}

// TermsLookupAny is TermsLookup matching values against any of fields. Each document
// counts once however many fields match, so Size stays len(values).
func TermsLookupAny(fields, values []string, source ...string) Request {
	should := make([]Query, len(fields))
	for i, field := range fields {
		should[i] = Terms{Field: field, Values: values}
	}
	return Request{
		Query:  Bool{Should: should},
		Size:   len(values),
		Source: source,
	}
}

// OneStarQuery returns reviews rated exactly one star.
func OneStarQuery(size int) Request {
	return Request{
		Query: Bool{Must: []Query{Term{Field: FieldStars, Value: 1.0}}},
		Size:  size,
	}
}

// ZipQuery returns businesses in a postal code, most reviewed first.
func ZipQuery(zip string, size int) Request {
	return TermQuery(FieldPostalCode, zip, size, Sort{Field: FieldReviewCount, Order: Desc})
}

// StateQuery returns businesses in a state, most reviewed first.
func StateQuery(state string, size int) Request {
	return Request{
		Query: MultiMatch{Query: state, Fields: []string{FieldState}},
		Size:  size,
		Sort:  []Sort{{Field: FieldReviewCount, Order: Desc}},
	}
}
