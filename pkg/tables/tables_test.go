package tables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vrm-observer/pkg/models"
)

const camerasHTML = `<html><body><table>
<tr><th>Camera name</th><th>Camera address</th><th>Recording</th><th>Block mounted</th><th>Max. bitrate</th><th>Ánalytics</th></tr>
<tr><td>Lobby</td><td>10.0.0.5\2\1</td><td>Recording</td><td>Yes</td><td>4.096</td><td>on</td></tr>
<tr><td> Parking
  West </td><td>10.0.0.6\0</td><td>OFFLINE</td><td></td><td></td><td>off</td></tr>
<tr></tr>
<tr><td>Dock</td></tr>
</table></body></html>`

func TestParseCameras(t *testing.T) {
	cams, err := ParseCameras(camerasHTML, "vrm-a")
	require.NoError(t, err)
	require.Len(t, cams, 3)

	assert.Equal(t, "Lobby", cams[0].Name)
	assert.Equal(t, `10.0.0.5\2\1`, cams[0].Address)
	assert.Equal(t, "recording", cams[0].Recording)
	assert.Equal(t, "yes", cams[0].BlockMounted)
	assert.Equal(t, "vrm-a", cams[0].VRMID)
	require.NotNil(t, cams[0].MaxBitrate)
	assert.InDelta(t, 4.096, *cams[0].MaxBitrate, 1e-9)

	assert.Equal(t, "Parking West", cams[1].Name)
	assert.Equal(t, "offline", cams[1].Recording)
	assert.Nil(t, cams[1].MaxBitrate)
	assert.Equal(t, 1, cams[1].Row)

	// Short rows degrade to empty fields
	assert.Equal(t, "Dock", cams[2].Name)
	assert.Equal(t, "", cams[2].Address)
	assert.Equal(t, 2, cams[2].Row)
}

func TestParseCameras_RawKeepsOriginalAndNormalizedHeaders(t *testing.T) {
	cams, err := ParseCameras(camerasHTML, "vrm-a")
	require.NoError(t, err)

	raw := cams[0].Raw
	assert.Equal(t, "on", raw["Ánalytics"])
	assert.Equal(t, "on", raw["analytics"])
	assert.Equal(t, "Lobby", raw["Camera name"])
	assert.Equal(t, "Lobby", raw["camera name"])
	assert.Equal(t, "", cams[2].Raw["Recording"])
}

func TestParseCameras_AlternateHeadersAndSubstringMatch(t *testing.T) {
	html := `<table>
<tr><th>Name</th><th>Address (IP\channel)</th><th>Recording status</th><th>Block</th></tr>
<tr><td>Gate</td><td>10.1.1.1\1</td><td>Pending - no blocks</td><td>No</td></tr>
</table>`

	cams, err := ParseCameras(html, "v")
	require.NoError(t, err)
	require.Len(t, cams, 1)

	assert.Equal(t, "Gate", cams[0].Name)
	assert.Equal(t, `10.1.1.1\1`, cams[0].Address)
	assert.Equal(t, "pending - no blocks", cams[0].Recording)
	assert.Equal(t, "no", cams[0].BlockMounted)
}

func TestParseCameras_NoTable(t *testing.T) {
	cams, err := ParseCameras("<html><body>Unauthorized</body></html>", "v")
	require.NoError(t, err)
	assert.Empty(t, cams)
}

func TestParseDevices_ByHeader(t *testing.T) {
	html := `<table>
<tr><th>Device</th><th>GUID</th><th>MAC</th><th>Firmware version</th><th>URL</th><th>Connection time</th>
<th>Allocated blocks</th><th>Primary target</th><th>Max bitrate</th><th>LB mode</th></tr>
<tr><td>10.0.0.5\2</td><td>{abc}</td><td>00:04:63:aa:bb:cc</td><td>7.80.0129</td><td>rtsp://10.0.0.5</td>
<td>2024-01-02 10:00</td><td>1.250</td><td>iqn.target-1</td><td>6000</td><td>auto</td></tr>
</table>`

	devs, err := ParseDevices(html, "v")
	require.NoError(t, err)
	require.Len(t, devs, 1)

	d := devs[0]
	assert.Equal(t, `10.0.0.5\2`, d.Device)
	assert.Equal(t, "{abc}", d.GUID)
	assert.Equal(t, "00:04:63:aa:bb:cc", d.MAC)
	assert.Equal(t, "7.80.0129", d.Firmware)
	assert.Equal(t, "rtsp://10.0.0.5", d.URL)
	assert.Equal(t, "2024-01-02 10:00", d.ConnTime)
	assert.Equal(t, "iqn.target-1", d.PrimaryTarget)
	assert.Equal(t, "auto", d.LBMode)
	assert.Equal(t, "", d.LimitedSpansSince)
	require.NotNil(t, d.AllocatedBlocks)
	assert.InDelta(t, 1.25, *d.AllocatedBlocks, 1e-9)
	require.NotNil(t, d.MaxBitrate)
	assert.Equal(t, 6000.0, *d.MaxBitrate)
	assert.Equal(t, "7.80.0129", d.Raw["firmware version"])
}

func TestParseDevices_LegacyLayoutWithoutHeaders(t *testing.T) {
	cells := ""
	for i := 0; i < 18; i++ {
		cells += "<td>c" + string(rune('a'+i)) + "</td>"
	}
	html := `<table><tr>` + cells + `</tr>
<tr><td>10.0.0.9\1</td><td>g</td><td>m</td><td>6.30</td><td>x</td><td>x</td><td>http://cam</td><td>1h</td>
<td>12</td><td>never</td><td>lb</td><td>t1</td><td>x</td><td>x</td><td>x</td><td>x</td><td>x</td><td>2000</td></tr>
</table>`

	devs, err := ParseDevices(html, "v")
	require.NoError(t, err)
	require.Len(t, devs, 1)

	d := devs[0]
	assert.Equal(t, `10.0.0.9\1`, d.Device)
	assert.Equal(t, "6.30", d.Firmware)
	assert.Equal(t, "http://cam", d.URL)
	assert.Equal(t, "1h", d.ConnTime)
	assert.Equal(t, 12.0, *d.AllocatedBlocks)
	assert.Equal(t, "never", d.LimitedSpansSince)
	assert.Equal(t, "lb", d.LBMode)
	assert.Equal(t, "t1", d.PrimaryTarget)
	assert.Equal(t, 2000.0, *d.MaxBitrate)
}

const targetsHTML = `<html><body>
<table>
<tr><th>Target</th><th>Connection time</th><th>Total [GiB]</th><th>Available [GiB]</th><th>Empty [GiB]</th>
<th>Protected [GiB]</th><th>Bitrate</th><th>Slices</th></tr>
<tr><td>iqn.target-1</td><td>5d</td><td>1000</td><td>800</td><td>150</td><td>50</td><td>12,5</td><td>4</td></tr>
<tr><td>iqn.target-2</td><td>1d</td><td>500</td><td>n/a</td><td>0</td><td>0</td><td></td><td>2</td></tr>
</table>
<h1>Targets</h1>
<table><tr><td>Total GiB</td><td>1500</td></tr><tr><td>State</td><td>ok</td></tr><tr><td></td><td>ignored</td></tr></table>
<h1>LUNs</h1>
<table><tr><td>LUN count</td><td>9</td></tr></table>
<h1>Blocks</h1>
<table><tr><td>Available blocks [GiB]</td><td>800</td></tr><tr><td>Protected blocks [GiB]</td><td>50</td></tr></table>
<h1>Connections</h1>
<table><tr><th>Target</th><th>Connections</th></tr><tr><td>iqn.target-1</td><td>17</td></tr></table>
</body></html>`

func TestParseTargets(t *testing.T) {
	report, err := ParseTargets(targetsHTML, "v")
	require.NoError(t, err)

	require.Len(t, report.Targets, 2)
	first := report.Targets[0]
	assert.Equal(t, "iqn.target-1", first.Target)
	assert.Equal(t, "5d", first.ConnTime)
	assert.Equal(t, 1000.0, *first.TotalGiB)
	assert.Equal(t, 800.0, *first.AvailableGiB)
	assert.Equal(t, 150.0, *first.EmptyGiB)
	assert.Equal(t, 50.0, *first.ProtectedGiB)
	assert.Equal(t, 12.5, *first.Bitrate)
	assert.Equal(t, 4.0, *first.Slices)
	assert.Nil(t, first.OutOfRes)
	assert.Equal(t, "", first.LastOutOfRes)

	assert.Nil(t, report.Targets[1].AvailableGiB)
	assert.Nil(t, report.Targets[1].Bitrate)

	require.Contains(t, report.Totals, "Total GiB")
	assert.Equal(t, 1500.0, *report.Totals["Total GiB"].Number)
	assert.Equal(t, "ok", report.Totals["State"].Text)
	assert.Nil(t, report.Totals["State"].Number)
	assert.Equal(t, 800.0, *report.Totals["Available blocks [GiB]"].Number)
	assert.NotContains(t, report.Totals, "LUN count")
	assert.Len(t, report.Totals, 4)

	require.Len(t, report.Connections, 1)
	assert.Equal(t, "iqn.target-1", report.Connections[0].Target)
	assert.Equal(t, 17.0, *report.Connections[0].Connections)
}

func TestParseTargets_EmptyPage(t *testing.T) {
	report, err := ParseTargets("", "v")
	require.NoError(t, err)

	assert.Equal(t, "v", report.VRMID)
	assert.Empty(t, report.Targets)
	assert.Empty(t, report.Totals)
	assert.Empty(t, report.Connections)
}

func TestParseTargets_WithoutConnectionsTable(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{
			name: "no connections heading",
			html: `<table><tr><th>Target</th><th>Total [GiB]</th></tr><tr><td>10.0.0.9</td><td>500</td></tr></table>
<h1>Targets</h1><table><tr><td>Total GiB</td><td>500</td></tr></table>`,
		},
		{
			name: "connections header row only",
			html: `<table><tr><th>Target</th><th>Total [GiB]</th></tr><tr><td>10.0.0.9</td><td>500</td></tr></table>
<h1>Targets</h1><table><tr><td>Total GiB</td><td>500</td></tr></table>
<h1>Connections</h1><table><tr><th>Target</th><th>Connections</th></tr></table>`,
		},
		{
			name: "empty connections table",
			html: `<table><tr><th>Target</th><th>Total [GiB]</th></tr><tr><td>10.0.0.9</td><td>500</td></tr></table>
<h1>Targets</h1><table><tr><td>Total GiB</td><td>500</td></tr></table>
<h1>Connections</h1><table></table>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var report *models.TargetsReport
			require.NotPanics(t, func() {
				var err error
				report, err = ParseTargets(tt.html, "v")
				require.NoError(t, err)
			})

			require.Len(t, report.Targets, 1)
			assert.Equal(t, 500.0, *report.Targets[0].TotalGiB)
			require.Contains(t, report.Totals, "Total GiB")
			assert.Equal(t, 500.0, *report.Totals["Total GiB"].Number)
			assert.Empty(t, report.Connections)
		})
	}
}

func TestHeaderLookup_ExactBeatsSubstring(t *testing.T) {
	h := newHeaderIndex([]string{"Recording status", "Recording"})

	assert.Equal(t, 1, h.lookup("Recording"))
	assert.Equal(t, 0, h.lookup("status"))
	assert.Equal(t, -1, h.lookup("Firmware"))
}
