// Package checker runs the upload pipeline: parse, classify or take the
// caller's template, then validate.
package checker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"templatecheck/internal/classifier"
	"templatecheck/internal/metrics"
	"templatecheck/internal/model"
	"templatecheck/internal/parser"
	"templatecheck/internal/validator"
)

// MinDetectScore auto-detection below this score is rejected.
const MinDetectScore = 0.3

var (
	// ErrUnsupportedType the upload MIME type is not an accepted spreadsheet type.
	ErrUnsupportedType = errors.New("please upload an Excel file (.xlsx or .xls) or CSV file")
	// ErrUndetectable auto-detection produced no usable template.
	ErrUndetectable = errors.New("could not detect template type")
)

// Upload one uploaded file
type Upload struct {
	FileName string
	MIMEType string // optional; checked against parser.AllowedMIMETypes when set
	Data     []byte
}

// CheckOptions selects the template; an empty TemplateID means auto-detect.
type CheckOptions struct {
	TemplateID model.TemplateID
}

// CheckResult pipeline output
type CheckResult struct {
	Classification model.ClassificationResult `json:"classification"`
	Report         *model.ValidationReport    `json:"validationReport"`
	UploadMode     model.UploadMode           `json:"uploadMode"`
	Record         *model.UploadRecord        `json:"record,omitempty"`
}

// Recorder persists the outcome of a check
type Recorder interface {
	InsertUpload(ctx context.Context, rec *model.UploadRecord) error
}

// Checker 上传检查流水线
type Checker struct {
	classifier *classifier.Classifier
	validator  *validator.Validator
	recorder   Recorder
	logger     *zap.Logger
	now        func() time.Time
}

// Option configures a Checker
type Option func(*Checker)

// WithRecorder persists an UploadRecord after every successful check.
func WithRecorder(r Recorder) Option {
	return func(c *Checker) { c.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Checker) {
		if l != nil {
			c.logger = l
		}
	}
}

// New 创建检查器
func New(cls *classifier.Classifier, v *validator.Validator, opts ...Option) *Checker {
	if cls == nil {
		cls = classifier.New()
	}
	c := &Checker{
		classifier: cls,
		validator:  v,
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Parse checks the MIME type and decodes the upload.
func (c *Checker) Parse(u Upload) (*model.ParsedWorkbook, error) {
	if err := checkMIMEType(u.MIMEType); err != nil {
		return nil, err
	}
	wb, err := parser.Parse(u.Data, u.FileName)
	if err != nil {
		format := ""
		var pe *parser.ParseError
		if errors.As(err, &pe) {
			format = string(pe.Format)
		}
		metrics.ParseErrorsTotal.WithLabelValues(format).Inc()
		c.logger.Warn("upload could not be parsed",
			zap.String("file", u.FileName),
			zap.Int("size", len(u.Data)),
			zap.Error(err),
		)
		return nil, err
	}
	return wb, nil
}

// Detect parses and classifies an upload without validating it.
func (c *Checker) Detect(ctx context.Context, u Upload) (model.ClassificationResult, error) {
	wb, err := c.Parse(u)
	if err != nil {
		return model.UnknownClassification(), err
	}
	return c.classifier.Classify(wb, u.FileName), nil
}

// Check runs the full pipeline.
func (c *Checker) Check(ctx context.Context, u Upload, opts CheckOptions) (*CheckResult, error) {
	wb, err := c.Parse(u)
	if err != nil {
		return nil, err
	}

	result := &CheckResult{}
	if opts.TemplateID != "" {
		result.UploadMode = model.UploadModeTemplateSpecific
		result.Classification = model.ClassificationResult{
			TemplateID:     opts.TemplateID,
			Score:          1,
			ConfidenceTier: model.ConfidenceHigh,
			Stage:          model.StageProvided,
		}
	} else {
		result.UploadMode = model.UploadModeAutoDetect
		result.Classification = c.classifier.Classify(wb, u.FileName)
		if result.Classification.IsUnknown() || result.Classification.Score < MinDetectScore {
			return nil, fmt.Errorf("%s: %w", u.FileName, ErrUndetectable)
		}
	}

	report, err := c.validator.Validate(ctx, wb, result.Classification.TemplateID)
	if err != nil {
		return nil, err
	}
	result.Report = report
	result.Classification.DisplayName = report.TemplateDisplayName

	c.logger.Info("upload checked",
		zap.String("file", u.FileName),
		zap.String("mode", string(result.UploadMode)),
		zap.String("template", string(result.Classification.TemplateID)),
		zap.String("stage", string(result.Classification.Stage)),
		zap.Bool("valid", report.IsValid),
	)

	if c.recorder != nil {
		rec := c.newRecord(u, result)
		if err := c.recorder.InsertUpload(ctx, rec); err != nil {
			c.logger.Warn("failed to record upload", zap.String("file", u.FileName), zap.Error(err))
		} else {
			result.Record = rec
		}
	}
	return result, nil
}

func (c *Checker) newRecord(u Upload, result *CheckResult) *model.UploadRecord {
	return &model.UploadRecord{
		ID:                   uuid.NewString(),
		FileName:             u.FileName,
		SizeBytes:            int64(len(u.Data)),
		MIMEType:             u.MIMEType,
		TemplateType:         result.Classification.TemplateID,
		TemplateName:         result.Report.TemplateDisplayName,
		ValidationConfidence: result.Classification.ConfidenceTier,
		UploadMode:           result.UploadMode,
		IsValid:              result.Report.IsValid,
		ErrorCount:           len(result.Report.Errors),
		WarningCount:         len(result.Report.Warnings),
		CreatedAt:            c.now().UTC(),
	}
}

func checkMIMEType(mimeType string) error {
	if strings.TrimSpace(mimeType) == "" {
		return nil
	}
	if _, ok := parser.FormatFromMIME(mimeType); !ok {
		return fmt.Errorf("%s: %w", mimeType, ErrUnsupportedType)
	}
	return nil
}
