package models

// MetricKey is one of the canonical dashboard device metrics
type MetricKey string

const (
	MetricTotalChannels    MetricKey = "totalChannels"
	MetricOfflineChannels  MetricKey = "offlineChannels"
	MetricActiveRecordings MetricKey = "activeRecordings"
	MetricSignalLoss       MetricKey = "signalLoss"
)

// MetricKeys lists the canonical metrics in their reporting order
var MetricKeys = []MetricKey{
	MetricTotalChannels,
	MetricOfflineChannels,
	MetricActiveRecordings,
	MetricSignalLoss,
}

// CameraState is the classified recording state of a camera
type CameraState string

const (
	CameraStateRecording         CameraState = "recording"
	CameraStateRecordingDisabled CameraState = "recordingDisabled"
	CameraStatePending           CameraState = "pending"
	CameraStateOffline           CameraState = "offline"
	CameraStateOther             CameraState = "other"
)

// String implements fmt.Stringer for logging
func (s CameraState) String() string {
	if s == "" {
		return "unset"
	}
	return string(s)
}

// IsValid returns true if the state is part of the classification taxonomy
func (s CameraState) IsValid() bool {
	switch s {
	case CameraStateRecording, CameraStateRecordingDisabled, CameraStatePending, CameraStateOffline, CameraStateOther:
		return true
	}
	return false
}

// DocumentKind names one of the four logical documents fetched per appliance
type DocumentKind string

const (
	DocumentCameras   DocumentKind = "cameras"
	DocumentDevices   DocumentKind = "devices"
	DocumentTargets   DocumentKind = "targets"
	DocumentDashboard DocumentKind = "dashboard"
)

// SourceStatus is the outcome of obtaining and parsing one document
type SourceStatus string

const (
	SourceStatusUnset       SourceStatus = ""            // Zero value = not attempted
	SourceStatusOK          SourceStatus = "ok"          // Fetched and parsed
	SourceStatusUnavailable SourceStatus = "unavailable" // Every candidate URL failed
	SourceStatusParseError  SourceStatus = "parse_error" // Fetched, but the parser failed
)

// String implements fmt.Stringer for logging
func (s SourceStatus) String() string {
	if s == "" {
		return "unset"
	}
	return string(s)
}

// IsUsable reports whether the document contributed data
func (s SourceStatus) IsUsable() bool {
	return s == SourceStatusOK
}

// ScanStatus is the persisted status of an appliance's last scan
type ScanStatus string

const (
	ScanStatusNotFound ScanStatus = "not_found" // No scan recorded
	ScanStatusSuccess  ScanStatus = "success"   // At least one document was usable
	ScanStatusPartial  ScanStatus = "partial"   // Some documents failed
	ScanStatusFailure  ScanStatus = "failure"   // No document was usable
	ScanStatusDBError  ScanStatus = "db_error"  // Database error occurred
)

// String implements fmt.Stringer for logging
func (s ScanStatus) String() string {
	if s == "" {
		return "unset"
	}
	return string(s)
}

// IsValid returns true if the status is a known operational value
func (s ScanStatus) IsValid() bool {
	switch s {
	case ScanStatusSuccess, ScanStatusPartial, ScanStatusFailure:
		return true
	}
	return false
}
