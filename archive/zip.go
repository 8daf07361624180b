package archive

import (
	"archive/zip"
	"errors"
	"io"
)

var zipFormat = format{label: "ZIP", walk: walkZip, classify: classifyZip}

func walkZip(archivePath string, visit visitFunc) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer zr.Close()

	for _, f := range zr.File {
		f := f
		done, err := visit(f.Name, f.FileInfo().IsDir(), func() (io.ReadCloser, error) {
			return f.Open()
		})
		if err != nil || done {
			return err
		}
	}
	return nil
}

func classifyZip(err error) string {
	if msg, ok := classifyCommon(err); ok {
		return msg
	}
	if errors.Is(err, zip.ErrFormat) || errors.Is(err, zip.ErrChecksum) || errors.Is(err, zip.ErrAlgorithm) {
		return "file is not a valid ZIP"
	}
	return "unexpected error extracting ZIP"
}
