package dashboard

import (
	"vrm-observer/pkg/models"
	"vrm-observer/pkg/parse"
)

// MetricAliases maps a canonical metric to the label spellings it appears under, tried in order
type MetricAliases struct {
	Key     models.MetricKey
	Aliases []string
}

// DeviceMetricAliases covers the Spanish and English firmware variants of the devices section
var DeviceMetricAliases = []MetricAliases{
	{Key: models.MetricTotalChannels, Aliases: []string{
		"canales totales",
		"total canales",
		"numero de dispositivos",
		"número de dispositivos",
		"total de dispositivos",
		"Total channels",
		"Number of devices",
		"Total devices",
	}},
	{Key: models.MetricOfflineChannels, Aliases: []string{
		"canales fuera de linea",
		"canales fuera de línea",
		"dispositivos fuera de linea",
		"dispositivos fuera de línea",
		"canales offline",
		"Offline channels",
		"Offline devices",
	}},
	{Key: models.MetricActiveRecordings, Aliases: []string{
		"grabaciones activas",
		"grabacion activa",
		"grabación activa",
		"dispositivos grabando",
		"active recordings",
		"Recordings active",
		"Devices recording",
	}},
	{Key: models.MetricSignalLoss, Aliases: []string{
		"perdida de senal",
		"perdida de señal",
		"pérdida de señal",
		"sSgnal loss", // misspelled by some firmware builds
		"Signal loss",
	}},
}

// FindByAliases returns the first entry of m whose normalized label matches an alias
func FindByAliases(m map[string]models.Entry, aliases []string) (models.Entry, bool) {
	for _, alias := range aliases {
		if e, ok := m[parse.NormalizeLabel(alias)]; ok {
			return e, true
		}
	}
	return models.Entry{}, false
}

// ResolveMetrics resolves every canonical device metric from a normalized-label map.
// Both returned maps hold every metric key; unresolved metrics map to nil.
func ResolveMetrics(m map[string]models.Entry) (map[models.MetricKey]*float64, map[models.MetricKey]*string) {
	metrics := make(map[models.MetricKey]*float64, len(DeviceMetricAliases))
	texts := make(map[models.MetricKey]*string, len(DeviceMetricAliases))
	for _, ma := range DeviceMetricAliases {
		metrics[ma.Key] = nil
		texts[ma.Key] = nil
		e, ok := FindByAliases(m, ma.Aliases)
		if !ok {
			continue
		}
		value := e.ValueText
		metrics[ma.Key] = e.Number
		texts[ma.Key] = &value
	}
	return metrics, texts
}
