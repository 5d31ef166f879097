// Package targets converts untrusted free-text scan targets into validated,
// canonical descriptors. Everything here is pure: no I/O, no hidden state,
// cheap enough to re-run on every keystroke of the scan form.
package targets

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/domain"
)

// DefaultConfirmThreshold is the host count above which the scan form must
// ask for an extra acknowledgment before submitting.
const DefaultConfirmThreshold = 512

// Warning thresholds for estimated host counts.
const (
	mediumScanThreshold = 256
	largeScanThreshold  = 1024
)

// Normalize classifies and validates a scan target. Classification is tried
// in a fixed order: empty, CIDR ('/'), range ('-'), dotted-quad, hostname.
// Every path returns a fully populated descriptor; invalid input is reported
// through Valid/Error, never through a panic or Go error.
func Normalize(input string) domain.TargetSpec {
	input = strings.TrimSpace(input)

	if input == "" {
		return invalid(input, "Target cannot be empty")
	}

	if strings.Contains(input, "/") {
		return normalizeCIDR(input)
	}

	if strings.Contains(input, "-") {
		return normalizeRange(input)
	}

	if domain.IsDottedQuad(input) {
		return normalizeSingleIP(input)
	}

	return normalizeHostname(input)
}

// RequiresConfirmation reports whether the descriptor denotes more hosts
// than the threshold. Hostnames (unknown host count) never require
// confirmation by this check alone. Independent of the validity gate.
func RequiresConfirmation(spec domain.TargetSpec, threshold int) bool {
	if spec.HostsCount == nil {
		return false
	}
	return *spec.HostsCount > threshold
}

func normalizeCIDR(input string) domain.TargetSpec {
	parts := strings.SplitN(input, "/", 2)
	mask, err := strconv.Atoi(parts[1])
	if err != nil || mask < 0 || mask > 32 {
		return invalid(input, "Invalid CIDR mask (must be 0-32)")
	}

	if domain.IsDottedQuad(parts[0]) {
		if _, ok := ipToUint32(parts[0]); !ok {
			return invalid(input, "Invalid IP address: octets must be 0-255")
		}
	}

	hosts := 1 << (32 - mask)

	return domain.TargetSpec{
		Original:   input,
		Normalized: input,
		Type:       domain.TargetCIDR,
		HostsCount: &hosts,
		Warnings:   sizeWarnings(hosts),
		Valid:      true,
	}
}

func normalizeRange(input string) domain.TargetSpec {
	parts := strings.SplitN(input, "-", 2)
	startStr := strings.TrimSpace(parts[0])
	endStr := strings.TrimSpace(parts[1])
	if startStr == "" || endStr == "" {
		return invalid(input, fmt.Sprintf("Invalid range format '%s'. Use '192.168.1.10-192.168.1.20' or '192.168.1.10-20'", input))
	}

	if !domain.IsDottedQuad(startStr) {
		return invalid(input, "Invalid start IP in range")
	}

	// Short form replaces only the last octet of the start address.
	if domain.IsOctetShorthand(endStr) {
		octets := strings.Split(startStr, ".")
		endStr = strings.Join(octets[:3], ".") + "." + endStr
	} else if !domain.IsDottedQuad(endStr) {
		return invalid(input, "Invalid end IP in range")
	}

	start, ok := ipToUint32(startStr)
	if !ok {
		return invalid(input, "Invalid IP address: octets must be 0-255")
	}
	end, ok := ipToUint32(endStr)
	if !ok {
		return invalid(input, "Invalid IP address: octets must be 0-255")
	}

	if start >= end {
		return invalid(input, "Start IP must be less than end IP")
	}

	hosts := int(end-start) + 1

	return domain.TargetSpec{
		Original:   input,
		Normalized: input,
		Type:       domain.TargetRange,
		HostsCount: &hosts,
		Warnings:   sizeWarnings(hosts),
		Valid:      true,
	}
}

func normalizeSingleIP(input string) domain.TargetSpec {
	if _, ok := ipToUint32(input); !ok {
		return invalid(input, "Invalid IP address: octets must be 0-255")
	}

	// A bare .0 address almost always means "this subnet", so rewrite it to
	// the /24 block it denotes rather than scanning the network address.
	if strings.HasSuffix(input, ".0") {
		cidr := input + "/24"
		hosts := 256
		return domain.TargetSpec{
			Original:   input,
			Normalized: cidr,
			Type:       domain.TargetCIDR,
			HostsCount: &hosts,
			Warnings:   []string{fmt.Sprintf("Converted %s to %s (256 hosts)", input, cidr)},
			Valid:      true,
		}
	}

	one := 1
	return domain.TargetSpec{
		Original:   input,
		Normalized: input,
		Type:       domain.TargetSingleIP,
		HostsCount: &one,
		Warnings:   []string{},
		Valid:      true,
	}
}

func normalizeHostname(input string) domain.TargetSpec {
	if len(input) > 253 {
		return invalid(input, fmt.Sprintf("Hostname too long (max 253 characters): '%s'", input))
	}

	for _, label := range strings.Split(input, ".") {
		if !domain.IsValidHostnameLabel(label) {
			return invalid(input, fmt.Sprintf("Invalid hostname format '%s'", input))
		}
	}

	return domain.TargetSpec{
		Original:   input,
		Normalized: input,
		Type:       domain.TargetHostname,
		HostsCount: nil,
		Warnings:   []string{fmt.Sprintf("Hostname '%s' will be resolved at scan time", input)},
		Valid:      true,
	}
}

// sizeWarnings returns advisory messages for large host counts.
// Counts above largeScanThreshold get the severe "Large scan" advisory,
// counts above mediumScanThreshold a neutral note, smaller counts nothing.
func sizeWarnings(hosts int) []string {
	switch {
	case hosts > largeScanThreshold:
		return []string{fmt.Sprintf("Large scan: %d hosts. This may take a long time.", hosts)}
	case hosts > mediumScanThreshold:
		return []string{fmt.Sprintf("Medium scan: %d hosts.", hosts)}
	}
	return []string{}
}

// ipToUint32 converts a dotted-quad string to its 32-bit value.
// Returns false when any octet is out of the 0-255 range.
func ipToUint32(s string) (uint32, bool) {
	var value uint32
	for _, part := range strings.Split(s, ".") {
		octet, err := strconv.Atoi(part)
		if err != nil || octet < 0 || octet > 255 {
			return 0, false
		}
		value = value<<8 | uint32(octet)
	}
	return value, true
}

func invalid(input, msg string) domain.TargetSpec {
	return domain.TargetSpec{
		Original:   input,
		Normalized: "",
		HostsCount: nil,
		Warnings:   []string{},
		Valid:      false,
		Error:      msg,
	}
}
