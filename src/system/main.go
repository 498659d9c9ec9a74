package system

import (
	"github.com/elastic/go-sysinfo"

	"github.com/kerberos-io/ptz-proxy/src/models"
)

// GetSystemInfo returns host details for the dashboard.
func GetSystemInfo() (models.System, error) {
	var usedSystem models.System

	host, err := sysinfo.Host()
	if err != nil {
		return usedSystem, err
	}

	info := host.Info()
	usedSystem.Hostname = info.Hostname
	usedSystem.Version = info.OS.Version
	usedSystem.Release = info.OS.Name
	usedSystem.BootTime = uint64(info.BootTime.Unix())
	usedSystem.KernelVersion = info.KernelVersion
	usedSystem.Architecture = info.Architecture

	return usedSystem, err
}
