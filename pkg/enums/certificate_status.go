package enums

import "fmt"

// CertificateStatus maps to the certificate_status enum in Postgres.
type CertificateStatus string

const (
	CertificateStatusPending CertificateStatus = "pending"
	CertificateStatusSuccess CertificateStatus = "success"
	CertificateStatusFailed  CertificateStatus = "failed"
)

var validCertificateStatuses = []CertificateStatus{
	CertificateStatusPending,
	CertificateStatusSuccess,
	CertificateStatusFailed,
}

// IsValid checks whether the given status matches the canonical enum.
func (s CertificateStatus) IsValid() bool {
	for _, candidate := range validCertificateStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCertificateStatus converts raw strings into CertificateStatus.
func ParseCertificateStatus(value string) (CertificateStatus, error) {
	for _, candidate := range validCertificateStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid certificate status %q", value)
}
