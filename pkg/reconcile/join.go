// Package reconcile joins camera rows with device rows and aggregates fleet status.
package reconcile

import (
	"strings"

	"vrm-observer/pkg/models"
)

// AddressKey returns the IP part of a compound VRM address ("10.0.0.5\2\1" -> "10.0.0.5"),
// i.e. everything before the first '\' or '/'
func AddressKey(address string) string {
	address = strings.TrimSpace(address)
	if i := strings.IndexAny(address, `\/`); i >= 0 {
		address = address[:i]
	}
	return strings.TrimSpace(address)
}

// JoinCamerasDevices enriches each camera with the device sharing its IP prefix.
// When several devices share a prefix the first one wins. A camera's own max bitrate takes
// precedence over the device's. Unmatched cameras keep empty device fields except Device,
// which falls back to the camera's own address.
func JoinCamerasDevices(cameras []models.CameraRecord, devices []models.DeviceRecord) []models.EnrichedCamera {
	byKey := make(map[string]models.DeviceRecord, len(devices))
	for _, d := range devices {
		key := AddressKey(d.Device)
		if key == "" {
			continue
		}
		if _, exists := byKey[key]; !exists {
			byKey[key] = d
		}
	}

	enriched := make([]models.EnrichedCamera, 0, len(cameras))
	for _, c := range cameras {
		ec := models.EnrichedCamera{CameraRecord: c, MaxBitrate: c.MaxBitrate}
		dev, ok := byKey[AddressKey(c.Address)]
		if !ok {
			ec.Device = strings.TrimRight(strings.TrimSpace(c.Address), "/")
			enriched = append(enriched, ec)
			continue
		}
		ec.Device = dev.Device
		ec.Firmware = dev.Firmware
		ec.ConnTime = dev.ConnTime
		ec.AllocatedBlocks = dev.AllocatedBlocks
		ec.PrimaryTarget = dev.PrimaryTarget
		if ec.MaxBitrate == nil {
			ec.MaxBitrate = dev.MaxBitrate
		}
		enriched = append(enriched, ec)
	}
	return enriched
}
