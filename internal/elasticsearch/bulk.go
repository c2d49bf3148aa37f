package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// BulkItem is one index action. When HasID is false the cluster assigns an id and
// a repeated load creates a duplicate document.
type BulkItem struct {
	Index  string
	ID     string
	HasID  bool
	Source json.RawMessage
}

// BulkItemError describes one rejected document.
type BulkItemError struct {
	// Position is the item's offset in the submitted batch.
	Position int
	ID       string
	Status   int
	Type     string
	Reason   string
}

// BulkResult summarizes a bulk call that reached the cluster.
type BulkResult struct {
	Indexed int
	Failed  []BulkItemError
	TookMs  int
}

type bulkActionMeta struct {
	Index string `json:"_index"`
	ID    string `json:"_id,omitempty"`
}

type bulkResponse struct {
	Took   int                              `json:"took"`
	Errors bool                             `json:"errors"`
	Items  []map[string]bulkResponseItemRaw `json:"items"`
}

type bulkResponseItemRaw struct {
	ID     string      `json:"_id"`
	Status int         `json:"status"`
	Error  *errorCause `json:"error,omitempty"`
}

// Bulk submits items as one NDJSON bulk request. A non-nil error means the whole
// call failed; rejected documents are reported in BulkResult.Failed.
func (c *Client) Bulk(ctx context.Context, items []BulkItem) (*BulkResult, error) {
	if len(items) == 0 {
		return &BulkResult{}, nil
	}

	body, err := encodeBulk(items)
	if err != nil {
		return nil, err
	}

	res, err := c.es.Bulk(bytes.NewReader(body), c.es.Bulk.WithContext(ctx))
	if err != nil {
		return nil, transportError("bulk", err)
	}
	defer closeBody(res.Body, c.log)

	if res.IsError() {
		return nil, newResponseError(res)
	}

	var parsed bulkResponse
	if decodeErr := json.NewDecoder(res.Body).Decode(&parsed); decodeErr != nil {
		return nil, fmt.Errorf("decode bulk response: %w", decodeErr)
	}

	return summarizeBulk(&parsed, len(items)), nil
}

func encodeBulk(items []BulkItem) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	for i := range items {
		meta := bulkActionMeta{Index: items[i].Index}
		if items[i].HasID {
			meta.ID = items[i].ID
		}
		// Encode appends the newline that terminates the action line.
		if err := enc.Encode(map[string]bulkActionMeta{"index": meta}); err != nil {
			return nil, fmt.Errorf("encode bulk action %d: %w", i, err)
		}

		if err := json.Compact(&buf, items[i].Source); err != nil {
			return nil, fmt.Errorf("encode bulk source %d: %w", i, err)
		}
		buf.WriteByte('\n')
	}

	return buf.Bytes(), nil
}

func summarizeBulk(parsed *bulkResponse, submitted int) *BulkResult {
	result := &BulkResult{TookMs: parsed.Took}

	for pos, entry := range parsed.Items {
		for _, item := range entry {
			if item.Error == nil && item.Status < http.StatusMultipleChoices {
				result.Indexed++
				continue
			}

			itemErr := BulkItemError{Position: pos, ID: item.ID, Status: item.Status}
			if item.Error != nil {
				itemErr.Type = item.Error.Type
				itemErr.Reason = item.Error.Reason
			}
			result.Failed = append(result.Failed, itemErr)
		}
	}

	// Items missing from the response are counted as failed.
	for pos := len(parsed.Items); pos < submitted; pos++ {
		result.Failed = append(result.Failed, BulkItemError{Position: pos, Reason: "no result in bulk response"})
	}

	return result
}
