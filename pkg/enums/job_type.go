package enums

// JobType identifies messages on the certificate work queue.
type JobType string

const (
	JobSendCertificates JobType = "SEND_CERTIFICATES"
)
