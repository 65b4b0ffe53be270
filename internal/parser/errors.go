package parser

import (
	"errors"
	"fmt"

	"templatecheck/internal/model"
)

// ErrParse matches every *ParseError via errors.Is.
var ErrParse = errors.New("unable to read file")

var (
	// ErrNoSheets the container decoded but holds no worksheet.
	ErrNoSheets = errors.New("workbook contains no sheets")
	// ErrUnsupportedFormat neither the bytes nor the name identify a supported format.
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
)

// ParseError bytes could not be decoded as a supported workbook
type ParseError struct {
	FileName string
	Format   model.WorkbookFormat
	Err      error
}

func (e *ParseError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("parse %q: %v", e.FileName, e.Err)
	}
	return fmt.Sprintf("parse %q as %s: %v", e.FileName, e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrParse) match any ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

func newParseError(fileName string, format model.WorkbookFormat, err error) *ParseError {
	return &ParseError{
		FileName: fileName,
		Format:   format,
		Err:      err,
	}
}
