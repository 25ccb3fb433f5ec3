package configs

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/openappconfig/openappconfig/internal/api/models/common"
	"github.com/openappconfig/openappconfig/internal/api/models/configuration"
	domainConfiguration "github.com/openappconfig/openappconfig/internal/domain/configuration"
	"github.com/openappconfig/openappconfig/internal/infra/server/binding/validation"
	"github.com/openappconfig/openappconfig/internal/infra/server/routing"
)

func init() {
	validation.SetUpValidators()
}

func Test_List_Ok(t *testing.T) {
	router, mockController := setupRouter()
	resp := performRequest(router, http.MethodGet, "/configs?prefix=app/dev", nil)
	assert.EqualValues(t, http.StatusOK, resp.Code)
	assert.EqualValues(t, 1, mockController.listCalled)
	assert.EqualValues(t, "app/dev", mockController.lastPrefix)
	var listing configuration.Listing
	if err := json.Unmarshal(resp.Body.Bytes(), &listing); err != nil {
		t.Error(err)
	} else {
		assert.EqualValues(t, mockListing, listing)
	}
}

func Test_Get_Ok(t *testing.T) {
	router, mockController := setupRouter()
	resp := performRequest(router, http.MethodGet, "/configs/app/dev/db", nil)
	assert.EqualValues(t, http.StatusOK, resp.Code)
	assert.EqualValues(t, 1, mockController.getCalled)
	assert.EqualValues(t, domainConfiguration.MockKey, mockController.lastKey)
	var doc configuration.Document
	if err := json.Unmarshal(resp.Body.Bytes(), &doc); err != nil {
		t.Error(err)
	} else {
		assert.EqualValues(t, mockApiDocument.Version, doc.Version)
		assert.JSONEq(t, string(mockApiDocument.Content), string(doc.Content))
	}
}

func Test_Get_Err(t *testing.T) {
	router, mockController := setupRouter()
	apiErr := common.ApiError{
		StatusCode: http.StatusNotFound,
		Body: common.Body{
			Message: "nope",
		},
	}
	mockController.getOverride = func() (*configuration.Document, *common.ApiError) {
		return nil, &apiErr
	}
	resp := performRequest(router, http.MethodGet, "/configs/app/dev/db", nil)
	assert.EqualValues(t, apiErr.StatusCode, resp.Code)
	var body common.Body
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Error(err)
	} else {
		assert.EqualValues(t, apiErr.Body, body)
	}
}

func Test_Get_InvalidSegment(t *testing.T) {
	router, mockController := setupRouter()
	resp := performRequest(router, http.MethodGet, "/configs/app/dev/d:b", nil)
	assert.EqualValues(t, http.StatusBadRequest, resp.Code)
	assert.EqualValues(t, 0, mockController.getCalled)
}

func Test_Put_Ok(t *testing.T) {
	router, mockController := setupRouter()
	expected := domainConfiguration.Version("v1")
	put := configuration.Put{
		Content:         json.RawMessage(`{"host":"y"}`),
		ExpectedVersion: &expected,
	}
	resp := performRequest(router, http.MethodPut, "/configs/app/dev/db", put)
	assert.EqualValues(t, http.StatusOK, resp.Code)
	assert.EqualValues(t, 1, mockController.putCalled)
	assert.JSONEq(t, `{"host":"y"}`, string(mockController.lastPut.Content))
	assert.EqualValues(t, expected, *mockController.lastPut.ExpectedVersion)
	var result configuration.PutResult
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Error(err)
	} else {
		assert.EqualValues(t, mockPutResult, result)
	}
}

func Test_Put_Invalid(t *testing.T) {
	tests := []struct {
		name string
		url  string
		body interface{}
	}{
		{
			name: "missing content",
			url:  "/configs/app/dev/db",
			body: map[string]interface{}{"schema": map[string]interface{}{}},
		},
		{
			name: "invalid segment",
			url:  "/configs/app/../db",
			body: configuration.Put{Content: json.RawMessage(`{}`)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, mockController := setupRouter()
			resp := performRequest(router, http.MethodPut, tt.url, tt.body)
			assert.NotEqual(t, http.StatusOK, resp.Code)
			assert.EqualValues(t, 0, mockController.putCalled)
		})
	}
}

func Test_Put_UnknownExpectedVersionIsPassedOn(t *testing.T) {
	router, mockController := setupRouter()
	latest := domainConfiguration.Version("latest")
	resp := performRequest(router, http.MethodPut, "/configs/app/dev/db", configuration.Put{
		Content:         json.RawMessage(`{}`),
		ExpectedVersion: &latest,
	})
	assert.EqualValues(t, http.StatusOK, resp.Code)
	assert.EqualValues(t, 1, mockController.putCalled)
	assert.EqualValues(t, latest, *mockController.lastPut.ExpectedVersion)
}

func Test_Put_NotJson(t *testing.T) {
	router, mockController := setupRouter()
	req, _ := http.NewRequest(http.MethodPut, "/configs/app/dev/db", bytes.NewBufferString("{"))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assert.EqualValues(t, http.StatusBadRequest, resp.Code)
	assert.EqualValues(t, 0, mockController.putCalled)
}

func Test_Delete_Ok(t *testing.T) {
	router, mockController := setupRouter()
	resp := performRequest(router, http.MethodDelete, "/configs/app/dev/db", nil)
	assert.EqualValues(t, http.StatusOK, resp.Code)
	assert.EqualValues(t, 1, mockController.deleteCalled)
}

func Test_DeleteEnvironment_Ok(t *testing.T) {
	router, mockController := setupRouter()
	resp := performRequest(router, http.MethodDelete, "/configs/app/dev", nil)
	assert.EqualValues(t, http.StatusOK, resp.Code)
	assert.EqualValues(t, 1, mockController.deleteEnvironmentCalled)
	var result configuration.EnvironmentDeleted
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Error(err)
	} else {
		assert.EqualValues(t, 2, result.Deleted)
	}
}

func Test_ListVersions_Ok(t *testing.T) {
	router, mockController := setupRouter()
	resp := performRequest(router, http.MethodGet, "/configs/app/dev/db/versions", nil)
	assert.EqualValues(t, http.StatusOK, resp.Code)
	assert.EqualValues(t, 1, mockController.listVersionsCalled)
	var result configuration.Versions
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Error(err)
	} else {
		assert.EqualValues(t, mockVersions, result)
	}
}

func Test_GetVersion_Ok(t *testing.T) {
	router, mockController := setupRouter()
	resp := performRequest(router, http.MethodGet, "/configs/app/dev/db/versions/v1", nil)
	assert.EqualValues(t, http.StatusOK, resp.Code)
	assert.EqualValues(t, 1, mockController.getVersionCalled)
	assert.EqualValues(t, "v1", mockController.lastVersion)
}

func Test_GetVersion_UnknownVersionIsPassedOn(t *testing.T) {
	router, mockController := setupRouter()
	resp := performRequest(router, http.MethodGet, "/configs/app/dev/db/versions/latest", nil)
	assert.EqualValues(t, http.StatusOK, resp.Code)
	assert.EqualValues(t, 1, mockController.getVersionCalled)
	assert.EqualValues(t, "latest", mockController.lastVersion)
}

func Test_GetVersion_InvalidSegment(t *testing.T) {
	router, mockController := setupRouter()
	resp := performRequest(router, http.MethodGet, "/configs/app/dev/d:b/versions/v1", nil)
	assert.EqualValues(t, http.StatusBadRequest, resp.Code)
	assert.EqualValues(t, 0, mockController.getVersionCalled)
}

func setupRouter() (*gin.Engine, *mockConfigurationController) {
	engine := gin.New()
	engine.NoRoute(routing.NoRoute)
	mockController := mockConfigurationController{}
	topLevelRouterGroup := routing.NewTopLevelRoutesGroup(engine)
	handler := RoutesHandler{Controller: &mockController}
	handler.RegisterRoutes(topLevelRouterGroup)

	return engine, &mockController
}

func performRequest(r http.Handler, method, url string, body interface{}) *httptest.ResponseRecorder {
	var bodyToSend io.Reader
	if body != nil {
		asBytes, _ := json.Marshal(body)
		bodyToSend = bytes.NewBuffer(asBytes)
	}
	req, _ := http.NewRequest(method, url, bodyToSend)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

var mockApiDocument = configuration.FromDomainDocument(domainConfiguration.MockKey, &domainConfiguration.MockDocument)

var mockPutResult = configuration.PutResult{
	Message: "saved",
	Version: "v2",
}

var mockListing = configuration.Listing{
	Configs: []configuration.Summary{
		{Application: "app", Environment: "dev", ConfigName: "db", CurrentVersion: "v1"},
	},
}

var mockVersions = configuration.Versions{
	Versions: []configuration.VersionRecord{
		{Version: "v1", Timestamp: time.Date(2020, 2, 20, 8, 0, 0, 0, time.UTC)},
	},
}

type mockConfigurationController struct {
	lastKey     domainConfiguration.Key
	lastVersion domainConfiguration.Version
	lastPut     *configuration.Put
	lastPrefix  string

	getCalled               uint
	getOverride             func() (*configuration.Document, *common.ApiError)
	getVersionCalled        uint
	putCalled               uint
	deleteCalled            uint
	deleteEnvironmentCalled uint
	listVersionsCalled      uint
	listCalled              uint
}

func (m *mockConfigurationController) Get(ctx context.Context, key domainConfiguration.Key) (*configuration.Document, *common.ApiError) {
	m.getCalled++
	m.lastKey = key
	if m.getOverride != nil {
		return m.getOverride()
	} else {
		return &mockApiDocument, nil
	}
}

func (m *mockConfigurationController) GetVersion(ctx context.Context, key domainConfiguration.Key, version domainConfiguration.Version) (*configuration.Document, *common.ApiError) {
	m.getVersionCalled++
	m.lastKey = key
	m.lastVersion = version
	return &mockApiDocument, nil
}

func (m *mockConfigurationController) Put(ctx context.Context, key domainConfiguration.Key, put *configuration.Put) (*configuration.PutResult, *common.ApiError) {
	m.putCalled++
	m.lastKey = key
	m.lastPut = put
	return &mockPutResult, nil
}

func (m *mockConfigurationController) Delete(ctx context.Context, key domainConfiguration.Key) (*configuration.Deleted, *common.ApiError) {
	m.deleteCalled++
	m.lastKey = key
	return &configuration.Deleted{Message: "deleted"}, nil
}

func (m *mockConfigurationController) DeleteEnvironment(ctx context.Context, application string, environment string) (*configuration.EnvironmentDeleted, *common.ApiError) {
	m.deleteEnvironmentCalled++
	return &configuration.EnvironmentDeleted{Message: "deleted", Deleted: 2}, nil
}

func (m *mockConfigurationController) ListVersions(ctx context.Context, key domainConfiguration.Key) (*configuration.Versions, *common.ApiError) {
	m.listVersionsCalled++
	m.lastKey = key
	return &mockVersions, nil
}

func (m *mockConfigurationController) List(ctx context.Context, prefix string) (*configuration.Listing, *common.ApiError) {
	m.listCalled++
	m.lastPrefix = prefix
	return &mockListing, nil
}
