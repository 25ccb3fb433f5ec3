// blob holds a blobstore.Store that keeps one Elasticsearch document per blob.
//
// Revisions are the document's seq_no and primary_term, so conditional writes map
// directly onto ES optimistic concurrency control.
package blob

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/rs/zerolog/log"

	"github.com/openappconfig/openappconfig/internal/config"
	"github.com/openappconfig/openappconfig/internal/domain/blobstore"
	"github.com/openappconfig/openappconfig/internal/infra/elasticsearch/common"
	"github.com/openappconfig/openappconfig/internal/infra/elasticsearch/index"
)

var DefaultIndexName common.IndexName = ".openappconfig_blobs"

const defaultScrollSize = 500
const defaultScrollTtl = time.Minute

// Makes writes visible to searches (and therefore List) before returning
const refreshPolicy = "wait_for"

type EsStore struct {
	client     *elasticsearch.Client
	index      common.IndexName
	scrollSize uint
	scrollTtl  time.Duration
	getUTC     func() time.Time // for mocking
}

// NewStore returns an Elasticsearch backed blobstore.Store
func NewStore(client *elasticsearch.Client, settings config.ElasticsearchStorage) *EsStore {
	s := EsStore{
		client:     client,
		index:      DefaultIndexName,
		scrollSize: defaultScrollSize,
		scrollTtl:  defaultScrollTtl,
		getUTC: func() time.Time {
			return time.Now().UTC()
		},
	}
	if len(settings.Index) != 0 {
		s.index = common.IndexName(settings.Index)
	}
	if settings.ScrollSize != 0 {
		s.scrollSize = settings.ScrollSize
	}
	if settings.ScrollTtl != 0 {
		s.scrollTtl = settings.ScrollTtl
	}
	return &s
}

// IndexName returns the name of the index blobs are written to
func (e *EsStore) IndexName() common.IndexName {
	return e.index
}

func (e *EsStore) Get(ctx context.Context, path blobstore.Path) (*blobstore.Object, error) {
	getReq := esapi.GetRequest{
		Index:      string(e.index),
		DocumentID: string(BuildDocumentID(path)),
	}
	rawResp, err := getReq.Do(ctx, e.client)
	if err != nil {
		return nil, common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()

	switch rawResp.StatusCode {
	case 200:
		var response esHitPersistedBlob
		if err := json.NewDecoder(rawResp.Body).Decode(&response); err != nil {
			return nil, common.JsonSerdesErr{Underlying: []error{err}}
		}
		return &blobstore.Object{
			Data:     response.Source.Data,
			Revision: response.version().Revision(),
		}, nil
	case 404:
		return nil, blobstore.NotFound{Path: path}
	default:
		return nil, common.UnexpectedEsStatusError(rawResp)
	}
}

func (e *EsStore) Put(ctx context.Context, path blobstore.Path, data []byte) (blobstore.Revision, error) {
	return e.indexDoc(ctx, path, data, nil)
}

func (e *EsStore) PutIf(ctx context.Context, path blobstore.Path, data []byte, expected blobstore.Revision) (blobstore.Revision, error) {
	if expected == blobstore.Absent {
		return e.create(ctx, path, data)
	}
	version, err := common.SeqNoPrimaryTermFromRevision(expected)
	if err != nil {
		// Not a revision this backend could have handed out, so it can't be current
		log.Warn().Err(err).Str("path", string(path)).Msg("Unparseable revision for conditional write")
		return blobstore.Absent, blobstore.PreconditionFailed{Path: path, Expected: expected}
	}
	rev, err := e.indexDoc(ctx, path, data, version)
	if _, isConflict := err.(versionConflict); isConflict {
		return blobstore.Absent, blobstore.PreconditionFailed{Path: path, Expected: expected}
	}
	return rev, err
}

func (e *EsStore) create(ctx context.Context, path blobstore.Path, data []byte) (blobstore.Revision, error) {
	body, err := e.persistedBytes(path, data)
	if err != nil {
		return blobstore.Absent, err
	}
	createReq := esapi.CreateRequest{
		Index:      string(e.index),
		DocumentID: string(BuildDocumentID(path)),
		Body:       bytes.NewReader(body),
		Refresh:    refreshPolicy,
	}
	rawResp, err := createReq.Do(ctx, e.client)
	if err != nil {
		return blobstore.Absent, common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	statusCode := rawResp.StatusCode
	switch {
	case 200 <= statusCode && statusCode <= 299:
		var response common.EsCreateResponse
		if err := json.NewDecoder(rawResp.Body).Decode(&response); err != nil {
			return blobstore.Absent, common.JsonSerdesErr{Underlying: []error{err}}
		}
		return response.Version().Revision(), nil
	case statusCode == 409:
		return blobstore.Absent, blobstore.PreconditionFailed{Path: path, Expected: blobstore.Absent}
	default:
		return blobstore.Absent, common.UnexpectedEsStatusError(rawResp)
	}
}

// Purposely using the Index API so that the whole document is replaced. Optimistic locking
// data is sent only when given.
func (e *EsStore) indexDoc(ctx context.Context, path blobstore.Path, data []byte, ifVersion *common.SeqNoPrimaryTerm) (blobstore.Revision, error) {
	body, err := e.persistedBytes(path, data)
	if err != nil {
		return blobstore.Absent, err
	}
	indexReq := esapi.IndexRequest{
		Index:      string(e.index),
		DocumentID: string(BuildDocumentID(path)),
		Body:       bytes.NewReader(body),
		Refresh:    refreshPolicy,
	}
	if ifVersion != nil {
		indexReq.IfPrimaryTerm = esapi.IntPtr(int(ifVersion.PrimaryTerm))
		indexReq.IfSeqNo = esapi.IntPtr(int(ifVersion.SeqNum))
	}
	rawResp, err := indexReq.Do(ctx, e.client)
	if err != nil {
		return blobstore.Absent, common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	respStatus := rawResp.StatusCode
	switch {
	case 200 <= respStatus && respStatus <= 299:
		var resp common.EsUpdateResponse
		if err := json.NewDecoder(rawResp.Body).Decode(&resp); err != nil {
			return blobstore.Absent, common.JsonSerdesErr{Underlying: []error{err}}
		}
		return resp.Version().Revision(), nil
	case respStatus == 409:
		return blobstore.Absent, versionConflict{}
	default:
		return blobstore.Absent, common.UnexpectedEsStatusError(rawResp)
	}
}

func (e *EsStore) Delete(ctx context.Context, path blobstore.Path) error {
	deleteReq := esapi.DeleteRequest{
		Index:      string(e.index),
		DocumentID: string(BuildDocumentID(path)),
		Refresh:    refreshPolicy,
	}
	rawResp, err := deleteReq.Do(ctx, e.client)
	if err != nil {
		return common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	switch {
	case 200 <= rawResp.StatusCode && rawResp.StatusCode <= 299, rawResp.StatusCode == 404:
		return nil
	default:
		return common.UnexpectedEsStatusError(rawResp)
	}
}

func (e *EsStore) Head(ctx context.Context, path blobstore.Path) (bool, error) {
	existsReq := esapi.ExistsRequest{
		Index:      string(e.index),
		DocumentID: string(BuildDocumentID(path)),
	}
	rawResp, err := existsReq.Do(ctx, e.client)
	if err != nil {
		return false, common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	switch rawResp.StatusCode {
	case 200:
		return true, nil
	case 404:
		return false, nil
	default:
		return false, common.UnexpectedEsStatusError(rawResp)
	}
}

// List scrolls through all blobs whose path starts with prefix, taking care to close all
// response bodies and clear scrolls
func (e *EsStore) List(ctx context.Context, prefix blobstore.Path, fn func(path blobstore.Path) error) (err error) {
	log.Debug().Str("prefix", string(prefix)).Msg("Scanning blob paths")
	firstPage, err := e.initSearch(ctx, buildPrefixSearchBody(prefix, e.scrollSize))
	if err != nil {
		return err
	}
	if firstPage == nil {
		// index does not exist yet
		return nil
	}
	paths := firstPage.Paths
	var scrollIds []string
	scrollId := firstPage.ScrollId
	scrollIds = append(scrollIds, scrollId)
	defer func() {
		if scrollErr := e.clearScroll(ctx, scrollIds); scrollErr != nil && err == nil {
			err = scrollErr
		}
	}()

	for len(paths) > 0 {
		for _, p := range paths {
			if err := fn(p); err != nil {
				return err
			}
		}
		nextPathsWithScrollId, err := e.scroll(ctx, scrollId)
		if err != nil {
			return err
		}
		paths = nextPathsWithScrollId.Paths
		scrollId = nextPathsWithScrollId.ScrollId
		scrollIds = append(scrollIds, nextPathsWithScrollId.ScrollId)
	}
	return nil
}

func (e *EsStore) Close() error {
	return nil
}

func (e *EsStore) initSearch(ctx context.Context, searchBody jsonObjMap) (*pathsWithScrollId, error) {
	searchBodyBytes, err := json.Marshal(searchBody)
	if err != nil {
		return nil, common.JsonSerdesErr{Underlying: []error{err}}
	}
	searchReq := esapi.SearchRequest{
		Scroll:         e.scrollTtl,
		Index:          []string{string(e.index)},
		AllowNoIndices: esapi.BoolPtr(true),
		Body:           bytes.NewReader(searchBodyBytes),
	}

	rawResp, err := searchReq.Do(ctx, e.client)
	if err != nil {
		return nil, common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	return processScrollResp(rawResp)
}

func (e *EsStore) scroll(ctx context.Context, scrollId string) (*pathsWithScrollId, error) {
	scrollReq := esapi.ScrollRequest{
		Scroll:   e.scrollTtl,
		ScrollID: scrollId,
	}

	rawResp, err := scrollReq.Do(ctx, e.client)
	if err != nil {
		return nil, common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	result, err := processScrollResp(rawResp)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return &pathsWithScrollId{}, nil
	}
	return result, nil
}

func (e *EsStore) clearScroll(ctx context.Context, scrollIds []string) error {
	var nonEmpty []string
	for _, id := range scrollIds {
		if len(id) != 0 {
			nonEmpty = append(nonEmpty, id)
		}
	}
	if len(nonEmpty) > 0 {
		clearScrollReq := esapi.ClearScrollRequest{ScrollID: nonEmpty}
		rawResp, err := clearScrollReq.Do(ctx, e.client)
		if err != nil {
			return common.ElasticsearchErr{Underlying: err}
		} else {
			defer rawResp.Body.Close()
			switch rawResp.StatusCode {
			case 200, 404:
				return nil
			default:
				return common.UnexpectedEsStatusError(rawResp)
			}
		}
	} else {
		return nil
	}
}

func processScrollResp(rawResp *esapi.Response) (*pathsWithScrollId, error) {
	switch rawResp.StatusCode {
	case 200:
		var scrollResp esSearchScrollingResponse
		if err := json.NewDecoder(rawResp.Body).Decode(&scrollResp); err != nil {
			return nil, common.JsonSerdesErr{Underlying: []error{err}}
		}
		paths := make([]blobstore.Path, 0, len(scrollResp.Hits.Hits))
		for _, hit := range scrollResp.Hits.Hits {
			paths = append(paths, blobstore.Path(hit.Source.Path))
		}
		return &pathsWithScrollId{
			ScrollId: scrollResp.ScrollId,
			Paths:    paths,
		}, nil
	case 404:
		return nil, nil
	default:
		return nil, common.UnexpectedEsStatusError(rawResp)
	}
}

func (e *EsStore) persistedBytes(path blobstore.Path, data []byte) ([]byte, error) {
	toPersist := persistedBlob{
		Path:       string(path),
		Data:       data,
		ModifiedAt: e.getUTC(),
	}
	asBytes, err := json.Marshal(toPersist)
	if err != nil {
		return nil, common.JsonSerdesErr{Underlying: []error{err}}
	}
	return asBytes, nil
}

// BuildDocumentID turns a path into a document id that is safe to use in a URL
func BuildDocumentID(path blobstore.Path) common.DocumentID {
	return common.DocumentID(base64.RawURLEncoding.EncodeToString([]byte(path)))
}

type versionConflict struct{}

func (versionConflict) Error() string {
	return "version conflict"
}

type jsonObjMap map[string]interface{}

// Data is a []byte, which encoding/json renders as base64
type persistedBlob struct {
	Path       string    `json:"path"`
	Data       []byte    `json:"data"`
	ModifiedAt time.Time `json:"modified_at"`
}

type esHitPersistedBlob struct {
	ID          string        `json:"_id"`
	Index       string        `json:"_index"`
	SeqNum      uint64        `json:"_seq_no"`
	PrimaryTerm uint64        `json:"_primary_term"`
	Source      persistedBlob `json:"_source"`
}

func (h *esHitPersistedBlob) version() common.SeqNoPrimaryTerm {
	return common.SeqNoPrimaryTerm{SeqNum: h.SeqNum, PrimaryTerm: h.PrimaryTerm}
}

type esSearchScrollingResponse struct {
	Hits struct {
		Hits []esHitPersistedBlob `json:"hits"`
	} `json:"hits"`
	ScrollId string `json:"_scroll_id"`
}

type pathsWithScrollId struct {
	ScrollId string
	Paths    []blobstore.Path
}

func buildPrefixSearchBody(prefix blobstore.Path, pageSize uint) jsonObjMap {
	var query jsonObjMap
	if len(prefix) == 0 {
		query = jsonObjMap{
			"match_all": jsonObjMap{},
		}
	} else {
		query = jsonObjMap{
			"prefix": jsonObjMap{
				"path": string(prefix),
			},
		}
	}
	return jsonObjMap{
		"size":    pageSize,
		"_source": []string{"path"},
		"sort":    []string{"_doc"},
		"query":   query,
	}
}

// NewSetup returns a blobstore.Setup that installs the index template for the blobs index
func NewSetup(client *elasticsearch.Client, blobsIndex common.IndexName) blobstore.Setup {
	return &setup{templates: index.DefaultTemplateSetup(client, blobsIndex)}
}

type setup struct {
	templates index.TemplatesSetup
}

func (s *setup) Check(ctx context.Context) error {
	err := s.templates.Check(ctx)
	var notInstalled index.TemplatesNotInstalled
	if errors.As(err, &notInstalled) {
		return blobstore.NotSetUp{Reason: notInstalled.Error()}
	}
	return err
}

func (s *setup) Run(ctx context.Context) error {
	return s.templates.Run(ctx)
}
