package models

import "errors"

// ErrSourceNotFound reports that the configured spreadsheet, or the sheet
// tab inside it, could not be located. It is fatal to the query; there is no
// partial result.
var ErrSourceNotFound = errors.New("schedule source not found")
