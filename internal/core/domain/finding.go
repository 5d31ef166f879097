package domain

import (
	"errors"
	"time"
)

// PortState mirrors the states reported by the scan engine.
type PortState string

const (
	PortOpen     PortState = "open"
	PortClosed   PortState = "closed"
	PortFiltered PortState = "filtered"
	PortUnknown  PortState = "unknown"
)

var ErrInvalidPort = errors.New("port must be between 1 and 65535")

// Finding is one discovered host:port:service tuple from a completed scan.
type Finding struct {
	ID     string `json:"finding_id"`
	ScanID string `json:"scan_id"`

	Host           string    `json:"host"`
	Port           int       `json:"port"`
	State          PortState `json:"state"`
	ServiceName    string    `json:"service_name"`
	ServiceVersion string    `json:"service_version"` // may be "" or "unknown"

	// CVEID is set at most once by the enrichment workflow and never
	// overwritten by a later pass.
	CVEID string `json:"cve_id,omitempty"`

	// Raw detection metadata carried opaquely from the engine.
	Confidence string            `json:"confidence,omitempty"`
	RawBanner  string            `json:"raw_banner,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	TLSInfo    string            `json:"tls_info,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NormalizePortState maps unrecognized engine states to PortUnknown.
func NormalizePortState(s string) PortState {
	switch PortState(s) {
	case PortOpen, PortClosed, PortFiltered:
		return PortState(s)
	}
	return PortUnknown
}

// HasVersion reports whether the finding carries a concrete version string.
func (f Finding) HasVersion() bool {
	return f.ServiceVersion != "" && f.ServiceVersion != "unknown"
}
