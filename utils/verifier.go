package utils

import (
	"fmt"
	"net"
	"strings"

	"github.com/badoux/checkmail"
	"github.com/likexian/whois"
)

// VerificationResult summarizes an enrollment-time email check
type VerificationResult struct {
	Email        string `json:"email"`
	FormatValid  bool   `json:"format_valid"`
	HasMX        bool   `json:"has_mx"`
	DomainKnown  bool   `json:"domain_known"`
	Deliverable  bool   `json:"deliverable"`
	FailedReason string `json:"failed_reason,omitempty"`
}

// VerifyContactEmail runs the enrollment-time checks used to decide a
// membership's HasEmail flag: format, MX records, and a best-effort whois
// existence probe. Only the format check is authoritative; network checks
// degrade to pass when they cannot run.
func VerifyContactEmail(email string) VerificationResult {
	result := VerificationResult{Email: email}

	if email == "" {
		result.FailedReason = "no email address"
		return result
	}
	if err := checkmail.ValidateFormat(email); err != nil {
		result.FailedReason = fmt.Sprintf("invalid format: %v", err)
		return result
	}
	result.FormatValid = true

	domain := emailDomain(email)
	if domain == "" {
		result.FailedReason = "no domain"
		return result
	}

	mxRecords, err := net.LookupMX(domain)
	if err != nil {
		// DNS unreachable is not a verdict against the address
		result.HasMX = true
	} else {
		result.HasMX = len(mxRecords) > 0
	}
	if !result.HasMX {
		result.FailedReason = "domain has no MX records"
		return result
	}

	result.DomainKnown = domainRegistered(domain)
	result.Deliverable = true
	return result
}

func emailDomain(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}

// domainRegistered does a best-effort whois probe. Any failure counts as
// known so a whois outage never blocks enrollment.
func domainRegistered(domain string) bool {
	raw, err := whois.Whois(domain)
	if err != nil {
		return true
	}
	lower := strings.ToLower(raw)
	if strings.Contains(lower, "no match for") ||
		(strings.Contains(lower, "not found") && !strings.Contains(lower, "domain name:")) {
		return false
	}
	return true
}
