package parse

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"plain english", "Total channels", "total channels"},
		{"spanish accents", "Número de dispositivos", "numero de dispositivos"},
		{"tilde n", "Pérdida de señal", "perdida de senal"},
		{"punctuation collapsed", "  Grabaciones -- activas: ", "grabaciones activas"},
		{"uppercase accents", "GRABACIÓN ACTIVA", "grabacion activa"},
		{"digits kept", "Block 2 [GiB]", "block 2 gib"},
		{"only punctuation", "---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeLabel(tt.input))
		})
	}
}

func TestNormalizeLabel_Idempotent(t *testing.T) {
	for _, in := range []string{"Canales fuera de línea", "Load balancing", "Almacenamiento"} {
		once := NormalizeLabel(in)
		assert.Equal(t, once, NormalizeLabel(once), "input %q", in)
	}
}

func TestNormalizeURL_NilInput(t *testing.T) {
	assert.Equal(t, "", NormalizeURL(nil))
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"uppercase scheme and host", "HTTP://VRM01.LOCAL/dbg/showCameras.htm", "http://vrm01.local/dbg/showCameras.htm"},
		{"http default port removed", "http://10.0.0.1:80/dbg", "http://10.0.0.1/dbg"},
		{"https default port removed", "https://10.0.0.1:443/dbg", "https://10.0.0.1/dbg"},
		{"non default port kept", "http://10.0.0.1:8080/dbg", "http://10.0.0.1:8080/dbg"},
		{"empty path becomes root", "http://10.0.0.1", "http://10.0.0.1/"},
		{"fragment removed", "http://10.0.0.1/status.htm#top", "http://10.0.0.1/status.htm"},
		{"query kept", "http://10.0.0.1/status.htm?lang=es", "http://10.0.0.1/status.htm?lang=es"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := url.Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, NormalizeURL(parsed))
		})
	}
}

func TestCandidateURL(t *testing.T) {
	got, err := CandidateURL("https", "172.25.0.24", "dbg/showDevices.htm")
	require.NoError(t, err)
	assert.Equal(t, "https://172.25.0.24/dbg/showDevices.htm", got)

	got, err = CandidateURL("http", "vrm.local:80", "/dbg/showTargets.htm")
	require.NoError(t, err)
	assert.Equal(t, "http://vrm.local/dbg/showTargets.htm", got)

	_, err = CandidateURL("http", "  ", "/dbg")
	assert.Error(t, err)
}
