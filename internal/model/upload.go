package model

import "time"

// UploadMode how the template for an upload was chosen
type UploadMode string

const (
	UploadModeAutoDetect       UploadMode = "auto-detect"
	UploadModeTemplateSpecific UploadMode = "template-specific"
)

// UploadRecord persisted outcome of one checked upload
type UploadRecord struct {
	ID                   string         `json:"id"`
	FileName             string         `json:"filename"`
	SizeBytes            int64          `json:"fileSize"`
	MIMEType             string         `json:"mimeType"`
	TemplateType         TemplateID     `json:"template_type"`
	TemplateName         string         `json:"template_name"`
	ValidationConfidence ConfidenceTier `json:"validation_confidence"`
	UploadMode           UploadMode     `json:"uploadMode"`
	IsValid              bool           `json:"isValid"`
	ErrorCount           int            `json:"errorCount"`
	WarningCount         int            `json:"warningCount"`
	CreatedAt            time.Time      `json:"createdAt"`
}
