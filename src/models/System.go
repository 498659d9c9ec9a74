package models

type System struct {
	Hostname      string `json:"hostname"`
	Version       string `json:"version"`
	Release       string `json:"release"`
	BootTime      uint64 `json:"boot_time"`
	KernelVersion string `json:"kernel_version"`
	Architecture  string `json:"architecture"`
}
