package models

import "time"

// RawDocument is one downloaded or uploaded payload before archive decoding
type RawDocument struct {
	Data        []byte
	ContentType string // Declared content type, may be empty
	Ext         string // File extension hint (".html", ".mhtml", ...), may be empty
}

// LeafNode is the whitespace-collapsed text of an element with no element children.
// Node order is the only signal used to pair labels with values.
type LeafNode struct {
	Text string
}

// Entry is one label/value pair found in dashboard text
type Entry struct {
	Label     string   `json:"label"`
	ValueText string   `json:"valueText"`
	Number    *float64 `json:"number"` // nil unless ValueText contains a numeral
}

// Section holds the entries found between two dashboard headings
type Section struct {
	Entries []Entry          `json:"entries"`
	Map     map[string]Entry `json:"map"` // Keyed by normalized label, last entry wins
}

// NewSection returns an empty section with initialized collections
func NewSection() Section {
	return Section{Entries: []Entry{}, Map: map[string]Entry{}}
}

// DeviceSection is the devices section plus the canonical metrics resolved from it
type DeviceSection struct {
	Section
	Metrics     map[MetricKey]*float64 `json:"metrics"`
	MetricsText map[MetricKey]*string  `json:"metricsText"`
}

// Dashboard is the structured view of one appliance's dashboard artifact
type Dashboard struct {
	VRMID   string        `json:"vrmId"`
	Devices DeviceSection `json:"devices"`
	Storage Section       `json:"storage"`
	Load    Section       `json:"load"`
}

// TargetRecord is one row of the showTargets table
type TargetRecord struct {
	Row          int               `json:"-"`
	VRMID        string            `json:"vrmId"`
	Target       string            `json:"target"`
	ConnTime     string            `json:"connTime"`
	Bitrate      *float64          `json:"bitrate"`
	TotalGiB     *float64          `json:"totalGiB"`
	AvailableGiB *float64          `json:"availableGiB"`
	EmptyGiB     *float64          `json:"emptyGiB"`
	ProtectedGiB *float64          `json:"protectedGiB"`
	Slices       *float64          `json:"slices"`
	OutOfRes     *float64          `json:"outOfRes"`
	LastOutOfRes string            `json:"lastOutOfRes"`
	Raw          map[string]string `json:"raw,omitempty"`
}

// TargetConnection is one row of the per-target connections table
type TargetConnection struct {
	VRMID       string   `json:"vrmId"`
	Target      string   `json:"target"`
	Connections *float64 `json:"connections"`
}

// TotalValue is a key/value from the Targets or Blocks totals tables.
// Number is set when Text parses as a number.
type TotalValue struct {
	Text   string   `json:"text"`
	Number *float64 `json:"number"`
}

// TargetsReport is everything extracted from showTargets.htm
type TargetsReport struct {
	VRMID       string                `json:"vrmId"`
	Targets     []TargetRecord        `json:"targets"`
	Totals      map[string]TotalValue `json:"totals"`
	Connections []TargetConnection    `json:"connections"`
}

// DeviceRecord is one row of the showDevices table
type DeviceRecord struct {
	Row               int               `json:"-"`
	VRMID             string            `json:"vrmId"`
	Device            string            `json:"device"` // e.g. 172.25.0.24\5
	GUID              string            `json:"guid"`
	MAC               string            `json:"mac"`
	Firmware          string            `json:"fw"`
	URL               string            `json:"url"`
	ConnTime          string            `json:"connTime"`
	AllocatedBlocks   *float64          `json:"allocatedBlocks"`
	LimitedSpansSince string            `json:"limitedSpansSince"`
	LBMode            string            `json:"lbMode"`
	PrimaryTarget     string            `json:"primaryTarget"`
	MaxBitrate        *float64          `json:"maxBitrate"`
	Raw               map[string]string `json:"raw,omitempty"`
}

// CameraRecord is one row of the showCameras table.
// Raw maps every header, in both original and normalized spelling, to its cell text.
type CameraRecord struct {
	Row          int               `json:"-"`
	VRMID        string            `json:"vrmId"`
	Name         string            `json:"name"`
	Address      string            `json:"address"`
	Recording    string            `json:"recording"`
	BlockMounted string            `json:"blockMounted"`
	MaxBitrate   *float64          `json:"-"`
	Raw          map[string]string `json:"raw"`
}

// EnrichedCamera is a camera row joined with its device row (fields stay empty when unmatched)
type EnrichedCamera struct {
	CameraRecord
	Device          string   `json:"device"`
	Firmware        string   `json:"fw"`
	ConnTime        string   `json:"connTime"`
	AllocatedBlocks *float64 `json:"allocatedBlocks"`
	PrimaryTarget   string   `json:"primaryTarget"`
	MaxBitrate      *float64 `json:"maxBitrate"`
}

// StatusSummary counts cameras per recording state for a fleet
type StatusSummary struct {
	Recording         int `json:"recording"`
	RecordingDisabled int `json:"recordingDisabled"`
	Pending           int `json:"pending"`
	Offline           int `json:"offline"`
	Other             int `json:"other"`
	Total             int `json:"total"`
	VMSIssues         int `json:"vmsIssues"`      // RecordingDisabled + Pending
	ExternalIssues    int `json:"externalIssues"` // Offline
}

// DeviceTotals sums dashboard metrics across appliances; nil means no appliance reported a value
type DeviceTotals map[MetricKey]*float64

// VRMStats is the per-appliance capacity row used by the VRM export
type VRMStats struct {
	VRMID        string  `json:"vrmId"`
	TotalGiB     float64 `json:"totalGiB"`
	AvailableGiB float64 `json:"availableGiB"`
	EmptyGiB     float64 `json:"emptyGiB"`
	ProtectedGiB float64 `json:"protectedGiB"`
	Targets      int     `json:"targets"`
	Cameras      int     `json:"cameras"`
}

// VRM identifies one appliance to poll
type VRM struct {
	Site string `json:"site" yaml:"site"`
	Name string `json:"name" yaml:"name"`
	Host string `json:"host" yaml:"host"`
	User string `json:"user,omitempty" yaml:"user,omitempty"`
	Pass string `json:"pass,omitempty" yaml:"pass,omitempty"`
}

// SourceOutcome records how one logical document of an appliance was obtained
type SourceOutcome struct {
	Document  DocumentKind `json:"document"`
	Status    SourceStatus `json:"status"`
	Scheme    string       `json:"scheme,omitempty"`
	Rel       string       `json:"rel,omitempty"`
	Converted bool         `json:"convertedFromMhtml,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// ApplianceResult is the assembled output of scanning a single appliance
type ApplianceResult struct {
	VRM          VRM              `json:"vrm"`
	VRMID        string           `json:"vrmId"`
	Targets      *TargetsReport   `json:"targets,omitempty"`
	DevicesCount int              `json:"devicesCount"`
	Cameras      []EnrichedCamera `json:"cameras"`
	Dashboard    *Dashboard       `json:"dashboard,omitempty"`
	Sources      []SourceOutcome  `json:"sources,omitempty"`
	Errors       []string         `json:"errors,omitempty"`
	Error        string           `json:"error,omitempty"` // Set when no document could be used
}

// Snapshot is the fleet-wide result of one scan or import cycle
type Snapshot struct {
	ID           string            `json:"id"`
	TakenAt      time.Time         `json:"ts"`
	Progress     []string          `json:"progress"`
	VRMs         []ApplianceResult `json:"vrms"`
	Cameras      []EnrichedCamera  `json:"cameras"`
	VRMStats     []VRMStats        `json:"vrmStats"`
	Summary      StatusSummary     `json:"summary"`
	DeviceTotals DeviceTotals      `json:"deviceTotals"`
}

// DashboardRecord is the persisted normalized copy of a dashboard artifact
type DashboardRecord struct {
	VRMID       string    `json:"vrm_id"`
	HTML        string    `json:"html"`
	Ext         string    `json:"ext"`
	Converted   bool      `json:"converted_from_mhtml"`
	ContentHash string    `json:"content_hash"`
	SavedAt     time.Time `json:"saved_at"`
}

// ScanRecord stores the outcome of the most recent scan of one appliance
type ScanRecord struct {
	VRMID       string        `json:"vrm_id"`
	Status      ScanStatus    `json:"status"`
	Cameras     int           `json:"cameras"`
	Devices     int           `json:"devices"`
	ErrorType   string        `json:"error_type,omitempty"`
	LastAttempt time.Time     `json:"last_attempt"`
	Summary     StatusSummary `json:"summary"`
}
