package common

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/elastic/go-elasticsearch/v8"
	"go.elastic.co/apm/module/apmelasticsearch"

	"github.com/openappconfig/openappconfig/internal/config"
)

var noAddresses = errors.New("at least one Elasticsearch address is required")

// NewClient returns an elasticsearch.Client for the configured cluster. Requests are traced
// through APM so that ES calls show up as spans of the transaction in the request context.
func NewClient(conf config.ElasticsearchClient) (*elasticsearch.Client, error) {
	if len(conf.Addresses) == 0 {
		return nil, ElasticsearchErr{Underlying: noAddresses}
	}
	for _, address := range conf.Addresses {
		if u, err := url.Parse(address); err != nil || len(u.Scheme) == 0 || len(u.Host) == 0 {
			return nil, ElasticsearchErr{Underlying: fmt.Errorf("invalid Elasticsearch address [%s]", address)}
		}
	}

	esClientConfig := elasticsearch.Config{
		Addresses: conf.Addresses,
		Transport: apmelasticsearch.WrapRoundTripper(http.DefaultTransport),
	}
	if conf.User != nil {
		esClientConfig.Username = conf.User.Name
		esClientConfig.Password = conf.User.Password
	}

	esClient, err := elasticsearch.NewClient(esClientConfig)
	if err != nil {
		return nil, ElasticsearchErr{Underlying: err}
	}
	return esClient, nil
}
