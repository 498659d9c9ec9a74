package routers

import (
	"github.com/kerberos-io/ptz-proxy/src/models"
	"github.com/kerberos-io/ptz-proxy/src/onvif"
	"github.com/kerberos-io/ptz-proxy/src/ptz"
	"github.com/kerberos-io/ptz-proxy/src/routers/http"
)

func StartWebserver(configDirectory string, configuration *models.Configuration, communication *models.Communication, translator *ptz.Translator, scheduler *ptz.Scheduler, sink *onvif.CameraSink) {
	http.StartServer(configDirectory, configuration, communication, translator, scheduler, sink)
}
