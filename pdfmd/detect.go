package pdfmd

import (
	"context"
	"fmt"
	"os/exec"

	"go.uber.org/zap"
)

// Flavor selects the table detection method.
type Flavor string

const (
	// Lattice finds tables drawn with ruling lines.
	Lattice Flavor = "lattice"
	// Stream finds tables whose columns are separated by whitespace.
	Stream Flavor = "stream"
)

// TableDetector finds tables on one page of a PDF.
type TableDetector interface {
	DetectTables(ctx context.Context, pdfPath string, page int, flavor Flavor) ([]Table, error)
}

// Detector backends accepted by NewDetector.
const (
	BackendAuto    = "auto"
	BackendNative  = "native"
	BackendCamelot = "camelot"
)

// lookPath is swapped in tests to control camelot discovery.
var lookPath = exec.LookPath

// NewDetector returns the detector for backend. "auto" uses camelot when
// camelotBin is on PATH and the native detector otherwise.
func NewDetector(backend, camelotBin string, log *zap.Logger) (TableDetector, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if camelotBin == "" {
		camelotBin = "camelot"
	}
	switch backend {
	case BackendNative:
		return NativeDetector{}, nil
	case BackendCamelot:
		return NewCamelotDetector(camelotBin, ""), nil
	case BackendAuto, "":
		if _, err := lookPath(camelotBin); err == nil {
			log.Debug("table backend", zap.String("backend", BackendCamelot))
			return NewCamelotDetector(camelotBin, ""), nil
		}
		log.Debug("table backend", zap.String("backend", BackendNative))
		return NativeDetector{}, nil
	default:
		return nil, fmt.Errorf("unknown table backend %q (expected auto, native or camelot)", backend)
	}
}
