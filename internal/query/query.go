// Package query builds Elasticsearch search request bodies from typed values.
// Every type here is a plain value; marshalling it produces the JSON body sent to the
// _search endpoint. Nothing in this package performs I/O.
package query

import "encoding/json"

// Kind identifies the clause type of a Query.
type Kind string

const (
	KindMatch      Kind = "match"
	KindTerm       Kind = "term"
	KindTerms      Kind = "terms"
	KindMultiMatch Kind = "multi_match"
	KindBool       Kind = "bool"
)

// Query is a single query clause.
type Query interface {
	json.Marshaler
	Kind() Kind
}

// OperatorAnd requires every analyzed token of a match query to be present.
const OperatorAnd = "and"

// Match is a full-text match on a single field.
type Match struct {
	Field    string
	Query    string
	Operator string
}

// Kind implements Query.
func (Match) Kind() Kind { return KindMatch }

// MarshalJSON renders {"match":{field:{"query":…,"operator":…}}}.
func (m Match) MarshalJSON() ([]byte, error) {
	type matchBody struct {
		Query    string `json:"query"`
		Operator string `json:"operator,omitempty"`
	}
	return json.Marshal(map[string]map[string]matchBody{
		"match": {m.Field: {Query: m.Query, Operator: m.Operator}},
	})
}

// Term is an exact-value filter on a single field.
type Term struct {
	Field string
	Value any
}

// Kind implements Query.
func (Term) Kind() Kind { return KindTerm }

// MarshalJSON renders {"term":{field:value}}.
func (t Term) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]map[string]any{
		"term": {t.Field: t.Value},
	})
}

// Terms matches documents whose field equals any of Values.
type Terms struct {
	Field  string
	Values []string
}

// Kind implements Query.
func (Terms) Kind() Kind { return KindTerms }

// MarshalJSON renders {"terms":{field:[…]}}. A nil Values renders as an empty array.
func (t Terms) MarshalJSON() ([]byte, error) {
	values := t.Values
	if values == nil {
		values = []string{}
	}
	return json.Marshal(map[string]map[string][]string{
		"terms": {t.Field: values},
	})
}

// MultiMatch matches Query against several fields; a hit on any field matches.
type MultiMatch struct {
	Query  string
	Fields []string
}

// Kind implements Query.
func (MultiMatch) Kind() Kind { return KindMultiMatch }

// MarshalJSON renders {"multi_match":{"query":…,"fields":[…]}}.
func (m MultiMatch) MarshalJSON() ([]byte, error) {
	type multiMatchBody struct {
		Query  string   `json:"query"`
		Fields []string `json:"fields"`
	}
	return json.Marshal(map[string]multiMatchBody{
		"multi_match": {Query: m.Query, Fields: m.Fields},
	})
}

// Bool combines clauses. Every Must clause has to match; with no Must clauses, at
// least one Should clause has to match.
type Bool struct {
	Must   []Query
	Should []Query
}

// Kind implements Query.
func (Bool) Kind() Kind { return KindBool }

// MarshalJSON renders {"bool":{"must":[…],"should":[…]}}. Empty Should is omitted;
// Must is rendered, possibly empty, unless only Should is set.
func (b Bool) MarshalJSON() ([]byte, error) {
	body := map[string][]Query{}
	if len(b.Must) > 0 || len(b.Should) == 0 {
		must := b.Must
		if must == nil {
			must = []Query{}
		}
		body["must"] = must
	}
	if len(b.Should) > 0 {
		body["should"] = b.Should
	}
	return json.Marshal(map[string]map[string][]Query{"bool": body})
}
