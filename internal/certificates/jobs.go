package certificates

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eventra-app/eventra-backend/pkg/enums"
)

// attrJobType is the message attribute consumers route on.
const attrJobType = "event_type"

// JobEnvelope is the queue message wrapper. The version field lets payload
// shapes evolve without breaking in-flight messages.
type JobEnvelope struct {
	Version    int             `json:"version"`
	JobID      string          `json:"jobId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// SendCertificatesPayload is the body of a SEND_CERTIFICATES job.
type SendCertificatesPayload struct {
	RootEventID   uuid.UUID `json:"rootEventId"`
	NotifyAddress string    `json:"notifyAddress,omitempty"`
}

// NewJobMessage builds the envelope bytes and attributes for a certificate job.
func NewJobMessage(payload SendCertificatesPayload) ([]byte, map[string]string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling job payload: %w", err)
	}
	envelope := JobEnvelope{
		Version:    1,
		JobID:      uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       body,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling job envelope: %w", err)
	}
	attrs := map[string]string{attrJobType: string(enums.JobSendCertificates)}
	return data, attrs, nil
}

// DecodeJobPayload unpacks a SEND_CERTIFICATES envelope.
func DecodeJobPayload(data []byte) (SendCertificatesPayload, error) {
	var envelope JobEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return SendCertificatesPayload{}, fmt.Errorf("decoding job envelope: %w", err)
	}
	var payload SendCertificatesPayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		return SendCertificatesPayload{}, fmt.Errorf("decoding job payload: %w", err)
	}
	if payload.RootEventID == uuid.Nil {
		return SendCertificatesPayload{}, fmt.Errorf("job payload missing root event id")
	}
	return payload, nil
}
