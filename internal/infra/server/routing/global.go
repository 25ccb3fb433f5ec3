package routing

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openappconfig/openappconfig/internal/api/models/common"
)

var notFoundErr = common.ApiError{
	StatusCode: http.StatusNotFound,
	Body: common.Body{
		Message: "No such route.",
	},
}

var noMethodErr = common.ApiError{
	StatusCode: http.StatusMethodNotAllowed,
	Body: common.Body{
		Message: "Method not allowed.",
	},
}

func NewTopLevelRoutesGroup(ginEngine *gin.Engine) *gin.RouterGroup {
	return ginEngine.Group("")
}

func NoRoute(c *gin.Context) {
	c.JSON(notFoundErr.StatusCode, notFoundErr.Body)
}

func NoMethod(c *gin.Context) {
	c.JSON(noMethodErr.StatusCode, noMethodErr.Body)
}

func HandleApiErr(c *gin.Context, apiError *common.ApiError) {
	c.JSON(apiError.StatusCode, apiError.Body)
}

// HandleBindingErr answers with a 400 when a request could not be bound, be it a body that
// isn't valid JSON or a path param that fails validation
func HandleBindingErr(c *gin.Context, err error) {
	HandleApiErr(c, common.BadRequest(err))
}
