// common contains models that are common to ES operations
package common

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/openappconfig/openappconfig/internal/domain/blobstore"
)

type IndexName string
type DocumentID string

type ElasticsearchErr struct {
	Underlying error
}

func (e ElasticsearchErr) Error() string {
	return fmt.Sprintf("Error from Elasticsearch: %v", e.Underlying)
}

func (e ElasticsearchErr) Unwrap() error {
	return e.Underlying
}

type JsonSerdesErr struct {
	Underlying []error
}

func (e JsonSerdesErr) Error() string {
	return fmt.Sprintf("Error working with JSON: %v", e.Underlying)
}

func (e JsonSerdesErr) Unwrap() error {
	if len(e.Underlying) == 1 {
		return e.Underlying[0]
	} else {
		return fmt.Errorf("Multiple JSON serdes errors: [%v]", e.Underlying)
	}
}

func UnexpectedEsStatusError(rawResp *esapi.Response) ElasticsearchErr {
	var buf bytes.Buffer
	var body string
	if _, err := buf.ReadFrom(rawResp.Body); err == nil {
		body = buf.String()
	}
	return ElasticsearchErr{Underlying: fmt.Errorf("Unexpected status from ES: [%d], body: [%s]", rawResp.StatusCode, body)}
}

// SeqNoPrimaryTerm is the pair ES uses for optimistic concurrency control
type SeqNoPrimaryTerm struct {
	SeqNum      uint64
	PrimaryTerm uint64
}

// Revision renders the pair as a blobstore.Revision
func (v SeqNoPrimaryTerm) Revision() blobstore.Revision {
	return blobstore.Revision(fmt.Sprintf("%d:%d", v.SeqNum, v.PrimaryTerm))
}

// SeqNoPrimaryTermFromRevision parses a Revision produced by SeqNoPrimaryTerm.Revision
func SeqNoPrimaryTermFromRevision(rev blobstore.Revision) (*SeqNoPrimaryTerm, error) {
	parts := strings.Split(string(rev), ":")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid revision [%s]", rev)
	}
	seqNum, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid seq_no in revision [%s]: %w", rev, err)
	}
	primaryTerm, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid primary_term in revision [%s]: %w", rev, err)
	}
	return &SeqNoPrimaryTerm{SeqNum: seqNum, PrimaryTerm: primaryTerm}, nil
}

type EsCreateResponse struct {
	ID          string `json:"_id"`
	SeqNum      uint64 `json:"_seq_no"`
	PrimaryTerm uint64 `json:"_primary_term"`
}

func (r *EsCreateResponse) Version() SeqNoPrimaryTerm {
	return SeqNoPrimaryTerm{
		SeqNum:      r.SeqNum,
		PrimaryTerm: r.PrimaryTerm,
	}
}

type EsUpdateResponse struct {
	Index       string `json:"_index"`
	ID          string `json:"_id"`
	SeqNum      uint64 `json:"_seq_no"`
	PrimaryTerm uint64 `json:"_primary_term"`
	Result      string `json:"result"`
}

func (r *EsUpdateResponse) Version() SeqNoPrimaryTerm {
	return SeqNoPrimaryTerm{
		SeqNum:      r.SeqNum,
		PrimaryTerm: r.PrimaryTerm,
	}
}
