package http

import (
	jwt "github.com/appleboy/gin-jwt/v2"
	"github.com/gin-gonic/gin"

	"github.com/kerberos-io/ptz-proxy/src/models"
	"github.com/kerberos-io/ptz-proxy/src/onvif"
	"github.com/kerberos-io/ptz-proxy/src/ptz"
	"github.com/kerberos-io/ptz-proxy/src/routers/websocket"
	"github.com/kerberos-io/ptz-proxy/src/system"
)

func AddRoutes(r *gin.Engine, authMiddleware *jwt.GinJWTMiddleware, configDirectory string, configuration *models.Configuration, communication *models.Communication, translator *ptz.Translator, scheduler *ptz.Scheduler, sink *onvif.CameraSink) *gin.RouterGroup {

	r.GET("/ws", func(c *gin.Context) {
		websocket.WebsocketHandler(c, translator, scheduler)
	})

	api := r.Group("/api")
	{
		api.POST("/login", authMiddleware.LoginHandler)

		// The heart of the proxy: a relative move is translated into a
		// continuous move plus a scheduled stop.
		api.POST("/ptz/move", func(c *gin.Context) {
			DoMove(c, translator, scheduler)
		})
		api.GET("/ptz/move/:direction", func(c *gin.Context) {
			DoDirectionalMove(c, translator, scheduler)
		})
		api.POST("/ptz/stop", func(c *gin.Context) {
			DoStop(c, translator, scheduler)
		})
		api.GET("/ptz/status", func(c *gin.Context) {
			GetStatus(c, translator, scheduler)
		})

		api.GET("/camera/capabilities", func(c *gin.Context) {
			GetCameraCapabilities(c, translator, sink)
		})

		api.GET("/config", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"config": configuration.Config,
				"custom": configuration.CustomConfig,
				"global": configuration.GlobalConfig,
			})
		})

		api.GET("/dashboard", func(c *gin.Context) {
			GetDashboard(c, configuration, communication, scheduler)
		})

		api.Use(authMiddleware.MiddlewareFunc())
		{
			// Secured endpoints..
			api.POST("/config", func(c *gin.Context) {
				UpdateConfig(c, configDirectory, configuration, communication)
			})

			api.GET("/restart", func(c *gin.Context) {
				communication.HandleBootstrap <- "restart"
				c.JSON(200, gin.H{
					"restarted": true,
				})
			})

			api.GET("/stop", func(c *gin.Context) {
				communication.HandleBootstrap <- "stop"
				c.JSON(200, gin.H{
					"stopped": true,
				})
			})
		}
	}
	return api
}

// GetDashboard gives a single view on the proxy: uptime, camera
// connectivity and the move status of every configured camera.
func GetDashboard(c *gin.Context, configuration *models.Configuration, communication *models.Communication, scheduler *ptz.Scheduler) {
	statuses := make([]models.MoveStatus, 0, len(configuration.Config.Cameras))
	for _, camera := range configuration.Config.Cameras {
		statuses = append(statuses, scheduler.Status(camera.Name))
	}

	systemInfo, _ := system.GetSystemInfo()

	c.JSON(200, gin.H{
		"key":              configuration.Config.Key,
		"friendly_name":    configuration.Config.FriendlyName,
		"camera_connected": communication.CameraConnected,
		"uptime":           communication.UptimeStart.UTC().Format("2006-01-02T15:04:05Z"),
		"cameras":          statuses,
		"system":           systemInfo,
	})
}
