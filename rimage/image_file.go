package rimage

import (
	"bufio"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"github.com/pkg/errors"
	"github.com/xfmoulet/qoi"
	"go.uber.org/multierr"
)

// ImageFormat names an on-disk raster encoding.
type ImageFormat string

// The supported raster encodings.
const (
	FormatPNG  = ImageFormat("png")
	FormatQOI  = ImageFormat("qoi")
	FormatWebP = ImageFormat("webp")
	FormatTGA  = ImageFormat("tga")
)

// ParseImageFormat validates a configured format; the empty string means PNG.
func ParseImageFormat(s string) (ImageFormat, error) {
	switch f := ImageFormat(strings.ToLower(strings.TrimPrefix(s, "."))); f {
	case "":
		return FormatPNG, nil
	case FormatPNG, FormatQOI, FormatWebP, FormatTGA:
		return f, nil
	default:
		return "", errors.Errorf("unsupported image format %q", s)
	}
}

// Extension returns the file extension, including the dot.
func (f ImageFormat) Extension() string {
	return "." + string(f)
}

// EncodeImage writes img to w in the given format.
func EncodeImage(w io.Writer, img image.Image, format ImageFormat) error {
	switch format {
	case FormatPNG, "":
		return png.Encode(w, img)
	case FormatQOI:
		return qoi.Encode(w, img)
	case FormatWebP:
		// lossless VP8L; the encoder expects an NRGBA source.
		if b, ok := img.(*RGBBuffer); ok {
			img = b.ToNRGBA()
		}
		return nativewebp.Encode(w, img, nil)
	case FormatTGA:
		return tga.Encode(w, img)
	default:
		return errors.Errorf("unsupported image format %q", format)
	}
}

// WriteImageToFile encodes img into fn, choosing the format from the file extension.
func WriteImageToFile(fn string, img image.Image) (err error) {
	format, err := ParseImageFormat(filepath.Ext(fn))
	if err != nil {
		return err
	}
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	bw := bufio.NewWriter(f)
	if err := EncodeImage(bw, img, format); err != nil {
		return errors.Wrapf(err, "cannot encode %q", fn)
	}
	return bw.Flush()
}

// ReadImageFromFile decodes a color image from fn, choosing the decoder from the file extension.
func ReadImageFromFile(fn string) (img image.Image, err error) {
	format, err := ParseImageFormat(filepath.Ext(fn))
	if err != nil {
		return nil, err
	}
	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	img, err = DecodeImage(bufio.NewReader(f), format)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot decode %q", fn)
	}
	return img, nil
}

// DecodeImage reads an image in the given format from r. The tga decoder registers itself for
// every input, so content sniffing through image.Decode cannot be used.
func DecodeImage(r io.Reader, format ImageFormat) (image.Image, error) {
	switch format {
	case FormatPNG, "":
		return png.Decode(r)
	case FormatQOI:
		return qoi.Decode(r)
	case FormatWebP:
		return nativewebp.Decode(r)
	case FormatTGA:
		return tga.Decode(r)
	default:
		return nil, errors.Errorf("unsupported image format %q", format)
	}
}
