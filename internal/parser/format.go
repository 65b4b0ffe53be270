package parser

import (
	"bytes"
	"mime"
	"path/filepath"
	"strings"

	"templatecheck/internal/model"
)

var (
	zipMagic = []byte{'P', 'K', 0x03, 0x04}
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

const (
	MIMETypeXLS  = "application/vnd.ms-excel"
	MIMETypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMETypeCSV  = "text/csv"
)

// AllowedMIMETypes upload types accepted upstream of the parser
var AllowedMIMETypes = []string{
	MIMETypeXLS,
	MIMETypeXLSX,
	MIMETypeCSV,
}

// FormatFromMIME maps an upload MIME type (parameters ignored) to a format.
func FormatFromMIME(mimeType string) (model.WorkbookFormat, bool) {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(mimeType))
	}
	switch mt {
	case MIMETypeXLSX:
		return model.FormatXLSX, true
	case MIMETypeXLS:
		return model.FormatXLS, true
	case MIMETypeCSV:
		return model.FormatCSV, true
	default:
		return "", false
	}
}

// DetectFormat picks the decoder from the container signature, then the
// file extension. Binary extensions must carry their container signature.
func DetectFormat(data []byte, fileName string) (model.WorkbookFormat, error) {
	ext := strings.ToLower(filepath.Ext(fileName))

	switch {
	case bytes.HasPrefix(data, zipMagic):
		return model.FormatXLSX, nil
	case bytes.HasPrefix(data, oleMagic):
		return model.FormatXLS, nil
	}

	switch ext {
	case ".xlsx", ".xlsm":
		return model.FormatXLSX, newParseError(fileName, model.FormatXLSX, ErrUnsupportedFormat)
	case ".xls":
		return model.FormatXLS, newParseError(fileName, model.FormatXLS, ErrUnsupportedFormat)
	case ".csv", "":
		return model.FormatCSV, nil
	default:
		return "", newParseError(fileName, "", ErrUnsupportedFormat)
	}
}
