package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrichedCamera_JSONFlattensCameraFields(t *testing.T) {
	camBitrate := 4000.0
	devBitrate := 6000.0
	cam := EnrichedCamera{
		CameraRecord: CameraRecord{
			VRMID:      "Site • VRM1 (10.0.0.1)",
			Name:       "Lobby",
			Address:    `10.0.0.5\2\1`,
			Recording:  "recording",
			MaxBitrate: &camBitrate,
			Raw:        map[string]string{"Camera name": "Lobby"},
		},
		Firmware:   "6.30.0005",
		MaxBitrate: &devBitrate,
	}

	data, err := json.Marshal(cam)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "Lobby", got["name"])
	assert.Equal(t, "6.30.0005", got["fw"])
	assert.Equal(t, 6000.0, got["maxBitrate"])
	assert.Contains(t, got, "raw")
	assert.Nil(t, got["allocatedBlocks"])
}

func TestApplianceResult_OmitEmpty(t *testing.T) {
	res := ApplianceResult{VRMID: "x", Cameras: []EnrichedCamera{}}

	data, err := json.Marshal(res)
	require.NoError(t, err)

	raw := string(data)
	assert.NotContains(t, raw, `"targets"`)
	assert.NotContains(t, raw, `"dashboard"`)
	assert.NotContains(t, raw, `"error"`)
	assert.Contains(t, raw, `"cameras":[]`)
}

func TestSnapshot_TimestampField(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	snap := Snapshot{ID: "abc", TakenAt: now}

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ts":"2026-01-02T03:04:05Z"`)
}

func TestDeviceTotals_NullMarshalling(t *testing.T) {
	v := 30.0
	totals := DeviceTotals{MetricTotalChannels: &v, MetricSignalLoss: nil}

	data, err := json.Marshal(totals)
	require.NoError(t, err)
	assert.JSONEq(t, `{"totalChannels":30,"signalLoss":null}`, string(data))
}
