package http

import (
	"log"

	jwt "github.com/appleboy/gin-jwt/v2"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"

	"github.com/kerberos-io/ptz-proxy/src/models"
	"github.com/kerberos-io/ptz-proxy/src/onvif"
	"github.com/kerberos-io/ptz-proxy/src/ptz"
)

func StartServer(configDirectory string, configuration *models.Configuration, communication *models.Communication, translator *ptz.Translator, scheduler *ptz.Scheduler, sink *onvif.CameraSink) {

	// Initialize REST API
	r := gin.Default()

	// Profiling
	pprof.Register(r)

	// Setup CORS
	r.Use(CORS())

	// The JWT middleware
	middleWare := JWTMiddleWare(configDirectory)
	authMiddleware, err := jwt.New(&middleWare)
	if err != nil {
		log.Fatal("JWT Error:" + err.Error())
	}

	// Add all routes
	AddRoutes(r, authMiddleware, configDirectory, configuration, communication, translator, scheduler, sink)

	// Run the api on port
	err = r.Run(":" + configuration.Port)
	if err != nil {
		log.Fatal(err)
	}
}
