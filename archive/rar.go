package archive

import (
	"io"
	"os"
	"strings"

	"github.com/nwaples/rardecode/v2"
)

var rarFormat = format{label: "RAR", walk: walkRar, classify: classifyRar}

// walkRar streams the archive; a member can only be read while it is the
// current entry, which the visit contract already guarantees.
func walkRar(archivePath string, visit visitFunc) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	rr, err := rardecode.NewReader(f)
	if err != nil {
		return err
	}
	for {
		hdr, err := rr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		done, err := visit(hdr.Name, hdr.IsDir, func() (io.ReadCloser, error) {
			return io.NopCloser(rr), nil
		})
		if err != nil || done {
			return err
		}
	}
}

func classifyRar(err error) string {
	if msg, ok := classifyCommon(err); ok {
		return msg
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "signature not found"):
		return "file is not a RAR"
	case strings.Contains(msg, "rardecode"):
		return "file is not a valid RAR"
	}
	return "unexpected error extracting RAR"
}
