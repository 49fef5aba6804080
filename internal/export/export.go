package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/piwi3910/optimystic/internal/gcode"
	"github.com/piwi3910/optimystic/internal/model"
)

// ErrUnknownFormat is returned for an export format that is not supported.
var ErrUnknownFormat = errors.New("unknown export format")

// ErrNoPlan is returned when a plan-based format is requested for a result
// without a cut plan.
var ErrNoPlan = errors.New("result has no cut plan")

// Format is an export file type.
type Format string

const (
	FormatPDF    Format = "pdf"
	FormatLabels Format = "labels"
	FormatXLSX   Format = "xlsx"
	FormatDXF    Format = "dxf"
	FormatGCode  Format = "gcode"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatPDF, FormatLabels, FormatXLSX, FormatDXF, FormatGCode}
}

// ParseFormat maps a user-supplied name to a Format.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF, FormatLabels:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatDXF:
		return "application/dxf"
	case FormatGCode:
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// FileName returns a download name for the format.
func (f Format) FileName(base string) string {
	switch f {
	case FormatLabels:
		return base + "_labels.pdf"
	default:
		return base + "." + string(f)
	}
}

// Write renders the result in the given format. Every format but xlsx
// needs the cut plan.
func Write(w io.Writer, f Format, res model.SolveResult, settings model.CutSettings) error {
	if f == FormatXLSX {
		return WriteXLSX(w, res)
	}
	if _, err := ParseFormat(string(f)); err != nil {
		return err
	}
	if res.Plan == nil {
		return ErrNoPlan
	}
	switch f {
	case FormatPDF:
		return WritePDF(w, *res.Plan, settings)
	case FormatLabels:
		return WriteLabels(w, *res.Plan)
	case FormatGCode:
		gs := gcode.DefaultSettings()
		if settings.MachineProfile != "" {
			gs.Profile = settings.MachineProfile
		}
		return gcode.New(gs).WriteTo(w, *res.Plan)
	default:
		return WriteDXF(w, *res.Plan)
	}
}
