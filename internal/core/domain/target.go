package domain

// TargetType classifies the syntactic shape of a scan target.
type TargetType string

const (
	TargetSingleIP TargetType = "single_ip"
	TargetCIDR     TargetType = "cidr"
	TargetHostname TargetType = "hostname"
	TargetRange    TargetType = "range"
)

// TargetSpec is the canonical descriptor produced by the target normalizer.
// It is ephemeral: recomputed on every keystroke of the scan form and never
// persisted. Normalized (not Original) is what gets forwarded to the scan
// engine.
type TargetSpec struct {
	Original   string     `json:"original"`
	Normalized string     `json:"normalized"`
	Type       TargetType `json:"target_type"`

	// HostsCount is nil for hostnames, which are only resolvable at scan time.
	HostsCount *int `json:"hosts_count"`

	// Warnings are advisory, ordered, and never block submission.
	Warnings []string `json:"warnings"`

	Valid bool   `json:"is_valid"`
	Error string `json:"error,omitempty"`
}
