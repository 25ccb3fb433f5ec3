package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openappconfig/openappconfig/internal/config"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		conf    config.ElasticsearchClient
		wantErr bool
	}{
		{
			name: "single address",
			conf: config.ElasticsearchClient{Addresses: []string{"http://localhost:9200"}},
		},
		{
			name: "with basic auth",
			conf: config.ElasticsearchClient{
				Addresses: []string{"https://es1:9200", "https://es2:9200"},
				User:      &config.BasicAuthUser{Name: "elastic", Password: "passw0rd"},
			},
		},
		{
			name:    "no addresses",
			conf:    config.ElasticsearchClient{},
			wantErr: true,
		},
		{
			name:    "address without scheme",
			conf:    config.ElasticsearchClient{Addresses: []string{"localhost:9200"}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.conf)
			if tt.wantErr {
				var esErr ElasticsearchErr
				assert.True(t, errors.As(err, &esErr))
				assert.Nil(t, client)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, client)
			}
		})
	}
}
