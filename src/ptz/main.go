package ptz

import (
	"github.com/kerberos-io/ptz-proxy/src/log"
	"github.com/kerberos-io/ptz-proxy/src/models"
)

// HandlePTZActions consumes the move and stop requests coming from the
// MQTT listener and drives the translator and scheduler. It returns once
// both channels have been closed by the bootstrap loop.
func HandlePTZActions(communication *models.Communication, translator *Translator, scheduler *Scheduler) {
	log.Log.Debug("ptz.main.HandlePTZActions(): started")

	moves := communication.HandleMove
	stops := communication.HandleStop

	for moves != nil || stops != nil {
		select {
		case request, ok := <-moves:
			if !ok {
				moves = nil
				continue
			}
			camera, err := translator.ResolveDevice(request.Device)
			if err != nil {
				log.Log.Error("ptz.main.HandlePTZActions(): " + err.Error())
				continue
			}
			velocity, duration, err := translator.Translate(request)
			if err != nil {
				log.Log.Error("ptz.main.HandlePTZActions(): rejected move for " + camera.Name + ": " + err.Error())
				continue
			}
			if err := scheduler.Move(camera.Name, velocity, duration); err != nil {
				log.Log.Error("ptz.main.HandlePTZActions(): move failed for " + camera.Name + ": " + err.Error())
				continue
			}
			log.Log.Info("ptz.main.HandlePTZActions(): moving " + camera.Name + " for " + duration.String())

		case request, ok := <-stops:
			if !ok {
				stops = nil
				continue
			}
			camera, err := translator.ResolveDevice(request.Device)
			if err != nil {
				log.Log.Error("ptz.main.HandlePTZActions(): " + err.Error())
				continue
			}
			if err := scheduler.Stop(camera.Name); err != nil {
				log.Log.Error("ptz.main.HandlePTZActions(): stop failed for " + camera.Name + ": " + err.Error())
				continue
			}
			log.Log.Info("ptz.main.HandlePTZActions(): stopped " + camera.Name)
		}
	}

	log.Log.Debug("ptz.main.HandlePTZActions(): finished")
}
