package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeExpireStaleOrders  JobType = "expire_stale_orders"
	JobTypeSendEnrollmentMail JobType = "send_enrollment_mail"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// SendEnrollmentMailPayload identifies the enrollment to confirm by email
type SendEnrollmentMailPayload struct {
	RecordID uint `json:"record_id"`
}

func (p SendEnrollmentMailPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"record_id": p.RecordID,
	}
}

func SendEnrollmentMailPayloadFromMap(data map[string]interface{}) (*SendEnrollmentMailPayload, error) {
	var payload SendEnrollmentMailPayload
	err := decodePayload(data, &payload)
	return &payload, err
}

// ExpireStaleOrdersPayload sets how old a created order must be to be cancelled
type ExpireStaleOrdersPayload struct {
	MaxAgeMinutes int `json:"max_age_minutes"`
}

func (p ExpireStaleOrdersPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"max_age_minutes": p.MaxAgeMinutes,
	}
}

func ExpireStaleOrdersPayloadFromMap(data map[string]interface{}) (*ExpireStaleOrdersPayload, error) {
	var payload ExpireStaleOrdersPayload
	err := decodePayload(data, &payload)
	return &payload, err
}

func decodePayload(data map[string]interface{}, out interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonData, out)
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
