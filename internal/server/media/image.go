package media

import (
	"fmt"
	"image"
	"io"

	// decoders registered for image.DecodeConfig
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/dmitrijs2005/vidhub/internal/common"
)

// Format describes an accepted image type.
type Format struct {
	Name string
	MIME string
	Ext  string
}

var formats = map[string]Format{
	"jpeg": {Name: "jpeg", MIME: "image/jpeg", Ext: ".jpg"},
	"png":  {Name: "png", MIME: "image/png", Ext: ".png"},
	"gif":  {Name: "gif", MIME: "image/gif", Ext: ".gif"},
	"webp": {Name: "webp", MIME: "image/webp", Ext: ".webp"},
	"bmp":  {Name: "bmp", MIME: "image/bmp", Ext: ".bmp"},
	"tiff": {Name: "tiff", MIME: "image/tiff", Ext: ".tiff"},
}

// DetectImage reads just enough of r to identify a supported image format.
// Anything else is a common.ErrValidation.
func DetectImage(r io.Reader) (Format, error) {
	_, name, err := image.DecodeConfig(r)
	if err != nil {
		return Format{}, fmt.Errorf("%w: file is not a supported image: %v", common.ErrValidation, err)
	}

	f, ok := formats[name]
	if !ok {
		return Format{}, fmt.Errorf("%w: unsupported image format %q", common.ErrValidation, name)
	}
	return f, nil
}
