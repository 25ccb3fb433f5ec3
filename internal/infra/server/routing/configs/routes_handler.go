package configs

import (
	"net/http"

	"github.com/gin-gonic/gin"

	configurationController "github.com/openappconfig/openappconfig/internal/api/controllers/configuration"
	"github.com/openappconfig/openappconfig/internal/api/models/configuration"
	domainConfiguration "github.com/openappconfig/openappconfig/internal/domain/configuration"
	"github.com/openappconfig/openappconfig/internal/infra/server/routing"
)

var subPath = "configs"

var (
	applicationKey = "app"
	environmentKey = "env"
	configKey      = "config"
	versionKey     = "version"
	prefixQueryKey = "prefix"
)

type environmentUri struct {
	Application string `uri:"app" binding:"required,pathSegment"`
	Environment string `uri:"env" binding:"required,pathSegment"`
}

type configUri struct {
	Application string `uri:"app" binding:"required,pathSegment"`
	Environment string `uri:"env" binding:"required,pathSegment"`
	ConfigName  string `uri:"config" binding:"required,pathSegment"`
}

func (u *configUri) key() domainConfiguration.Key {
	return domainConfiguration.Key{
		Application: u.Application,
		Environment: u.Environment,
		ConfigName:  u.ConfigName,
	}
}

type versionUri struct {
	Application string `uri:"app" binding:"required,pathSegment"`
	Environment string `uri:"env" binding:"required,pathSegment"`
	ConfigName  string `uri:"config" binding:"required,pathSegment"`
	Version     string `uri:"version" binding:"required"`
}

type RoutesHandler struct {
	Controller configurationController.Controller
}

func (h *RoutesHandler) RegisterRoutes(routerGroup *gin.RouterGroup) {
	envPath := "/:" + applicationKey + "/:" + environmentKey
	configPath := envPath + "/:" + configKey

	subGroup := routerGroup.Group(subPath)
	subGroup.GET("", h.list)
	subGroup.DELETE(envPath, h.deleteEnvironment)
	subGroup.GET(configPath, h.get)
	subGroup.PUT(configPath, h.put)
	subGroup.DELETE(configPath, h.delete)
	subGroup.GET(configPath+"/versions", h.listVersions)
	subGroup.GET(configPath+"/versions/:"+versionKey, h.getVersion)
}

// @Summary List configurations
// @ID list-configs
// @Tags configs
// @Description Lists configurations, optionally only those under a path prefix. Prefixes match whole segments.
// @Produce  json
// @Param   prefix query string false "Path prefix, e.g. my-app/dev"
// @Success 200 {object} configuration.Listing
// @Router /configs [get]
func (h *RoutesHandler) list(c *gin.Context) {
	if listing, err := h.Controller.List(c.Request.Context(), c.Query(prefixQueryKey)); err == nil {
		c.JSON(http.StatusOK, listing)
	} else {
		routing.HandleApiErr(c, err)
	}
}

// @Summary Get a configuration
// @ID get-config
// @Tags configs
// @Description Retrieves the current version of a configuration
// @Produce  json
// @Param   app path string true "Application"
// @Param   env path string true "Environment"
// @Param   config path string true "Configuration name"
// @Success 200 {object} configuration.Document
// @Failure 400 {object} common.Body "Invalid path"
// @Failure 404 {object} common.Body "Configuration does not exist"
// @Router /configs/{app}/{env}/{config} [get]
func (h *RoutesHandler) get(c *gin.Context) {
	var uri configUri
	if err := c.ShouldBindUri(&uri); err != nil {
		routing.HandleBindingErr(c, err)
	} else {
		if d, err := h.Controller.Get(c.Request.Context(), uri.key()); err == nil {
			c.JSON(http.StatusOK, d)
		} else {
			routing.HandleApiErr(c, err)
		}
	}
}

// @Summary Write a configuration
// @ID put-config
// @Tags configs
// @Description Writes a new version of a configuration. Creating one requires a schema and no
// @Description expected_version; updating one requires expected_version to be the current version.
// @Accept  json
// @Produce  json
// @Param   app path string true "Application"
// @Param   env path string true "Environment"
// @Param   config path string true "Configuration name"
// @Param   put body configuration.Put true "The request body"
// @Success 200 {object} configuration.PutResult
// @Failure 400 {object} common.Body "Invalid JSON, or content that fails schema validation"
// @Failure 404 {object} common.Body "expected_version does not exist"
// @Failure 409 {object} common.Body "Already exists, or expected_version is not the current version"
// @Router /configs/{app}/{env}/{config} [put]
func (h *RoutesHandler) put(c *gin.Context) {
	var uri configUri
	if err := c.ShouldBindUri(&uri); err != nil {
		routing.HandleBindingErr(c, err)
		return
	}
	var put configuration.Put
	if err := c.ShouldBindJSON(&put); err != nil {
		routing.HandleBindingErr(c, err)
	} else {
		if result, err := h.Controller.Put(c.Request.Context(), uri.key(), &put); err == nil {
			c.JSON(http.StatusOK, result)
		} else {
			routing.HandleApiErr(c, err)
		}
	}
}

// @Summary Delete a configuration
// @ID delete-config
// @Tags configs
// @Description Deletes a configuration along with all its versions
// @Produce  json
// @Param   app path string true "Application"
// @Param   env path string true "Environment"
// @Param   config path string true "Configuration name"
// @Success 200 {object} configuration.Deleted
// @Failure 404 {object} common.Body "Configuration does not exist"
// @Router /configs/{app}/{env}/{config} [delete]
func (h *RoutesHandler) delete(c *gin.Context) {
	var uri configUri
	if err := c.ShouldBindUri(&uri); err != nil {
		routing.HandleBindingErr(c, err)
	} else {
		if result, err := h.Controller.Delete(c.Request.Context(), uri.key()); err == nil {
			c.JSON(http.StatusOK, result)
		} else {
			routing.HandleApiErr(c, err)
		}
	}
}

// @Summary Delete an environment
// @ID delete-environment
// @Tags configs
// @Description Deletes every configuration in an application's environment
// @Produce  json
// @Param   app path string true "Application"
// @Param   env path string true "Environment"
// @Success 200 {object} configuration.EnvironmentDeleted
// @Router /configs/{app}/{env} [delete]
func (h *RoutesHandler) deleteEnvironment(c *gin.Context) {
	var uri environmentUri
	if err := c.ShouldBindUri(&uri); err != nil {
		routing.HandleBindingErr(c, err)
	} else {
		if result, err := h.Controller.DeleteEnvironment(c.Request.Context(), uri.Application, uri.Environment); err == nil {
			c.JSON(http.StatusOK, result)
		} else {
			routing.HandleApiErr(c, err)
		}
	}
}

// @Summary List versions
// @ID list-config-versions
// @Tags configs
// @Description Lists the versions of a configuration, oldest first
// @Produce  json
// @Param   app path string true "Application"
// @Param   env path string true "Environment"
// @Param   config path string true "Configuration name"
// @Success 200 {object} configuration.Versions
// @Failure 404 {object} common.Body "Configuration does not exist"
// @Router /configs/{app}/{env}/{config}/versions [get]
func (h *RoutesHandler) listVersions(c *gin.Context) {
	var uri configUri
	if err := c.ShouldBindUri(&uri); err != nil {
		routing.HandleBindingErr(c, err)
	} else {
		if result, err := h.Controller.ListVersions(c.Request.Context(), uri.key()); err == nil {
			c.JSON(http.StatusOK, result)
		} else {
			routing.HandleApiErr(c, err)
		}
	}
}

// @Summary Get a configuration version
// @ID get-config-version
// @Tags configs
// @Description Retrieves a specific version of a configuration
// @Produce  json
// @Param   app path string true "Application"
// @Param   env path string true "Environment"
// @Param   config path string true "Configuration name"
// @Param   version path string true "Version, e.g. v3"
// @Success 200 {object} configuration.Document
// @Failure 400 {object} common.Body "Invalid path"
// @Failure 404 {object} common.Body "Configuration or version does not exist"
// @Router /configs/{app}/{env}/{config}/versions/{version} [get]
func (h *RoutesHandler) getVersion(c *gin.Context) {
	var uri versionUri
	if err := c.ShouldBindUri(&uri); err != nil {
		routing.HandleBindingErr(c, err)
	} else {
		key := domainConfiguration.Key{
			Application: uri.Application,
			Environment: uri.Environment,
			ConfigName:  uri.ConfigName,
		}
		if d, err := h.Controller.GetVersion(c.Request.Context(), key, domainConfiguration.Version(uri.Version)); err == nil {
			c.JSON(http.StatusOK, d)
		} else {
			routing.HandleApiErr(c, err)
		}
	}
}
