package converters

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidWorkbook is returned when the input cannot be opened as a workbook.
	ErrInvalidWorkbook = errors.New("invalid workbook")
	// ErrMissingSheet is returned when a required sheet is not in the workbook.
	ErrMissingSheet = errors.New("missing sheet")
	// ErrMissingColumn is returned when a required column is not in a sheet's header row.
	ErrMissingColumn = errors.New("missing column")
	// ErrInvalidRow is returned for a data row that cannot be used.
	ErrInvalidRow = errors.New("invalid row")
)

// SheetError names the sheet that could not be found.
type SheetError struct {
	Sheet string
}

func (e *SheetError) Error() string {
	return fmt.Sprintf("workbook has no %q sheet", e.Sheet)
}

func (e *SheetError) Unwrap() error { return ErrMissingSheet }

// ColumnError names the missing column and its sheet.
type ColumnError struct {
	Sheet  string
	Column string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("sheet %q has no %q column", e.Sheet, e.Column)
}

func (e *ColumnError) Unwrap() error { return ErrMissingColumn }
