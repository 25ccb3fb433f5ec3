package index

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlobsTemplate(t *testing.T) {
	template := BlobsTemplate(".openappconfig_blobs")
	assert.EqualValues(t, "openappconfig_blobs_index_template", template.Name())
	assert.Equal(t, []Pattern{".openappconfig_blobs"}, template.Patterns)

	asBytes, err := json.Marshal(&template)
	assert.NoError(t, err)
	var asMap map[string]interface{}
	assert.NoError(t, json.Unmarshal(asBytes, &asMap))
	assert.NotContains(t, asMap, "name")
	properties := asMap["mappings"].(map[string]interface{})["properties"].(map[string]interface{})
	assert.Equal(t, "keyword", properties["path"].(map[string]interface{})["type"])
	assert.Equal(t, "binary", properties["data"].(map[string]interface{})["type"])
}

func TestDefaultTemplateSetup(t *testing.T) {
	subject := DefaultTemplateSetup(nil, "custom")
	assert.Len(t, subject.Templates, 1)
	assert.EqualValues(t, "custom_index_template", subject.Templates[0].Name())
}
