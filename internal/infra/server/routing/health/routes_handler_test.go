package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/openappconfig/openappconfig/internal/api/models/health"
	"github.com/openappconfig/openappconfig/internal/infra/server/routing"
)

var mockStatus = health.Status{
	Status:    health.Healthy,
	Service:   health.ServiceName,
	Timestamp: time.Date(2020, 2, 20, 8, 0, 0, 0, time.UTC),
}

type mockController struct {
	checkCalled uint
}

func (m *mockController) Check(ctx context.Context) health.Status {
	m.checkCalled++
	return mockStatus
}

func Test_Check(t *testing.T) {
	engine := gin.New()
	controller := mockController{}
	handler := RoutesHandler{Controller: &controller}
	handler.RegisterRoutes(routing.NewTopLevelRoutesGroup(engine))

	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)

	assert.EqualValues(t, http.StatusOK, resp.Code)
	assert.EqualValues(t, 1, controller.checkCalled)
	var status health.Status
	if err := json.Unmarshal(resp.Body.Bytes(), &status); err != nil {
		t.Error(err)
	} else {
		assert.Equal(t, mockStatus, status)
	}
}
