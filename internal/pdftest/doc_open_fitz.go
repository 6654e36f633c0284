package pdftest

import (
	"image"

	fitz "github.com/gen2brain/go-fitz"
)

// fitzOpener implements Opener using github.com/gen2brain/go-fitz.
type fitzOpener struct{}

func (fitzOpener) OpenBytes(data []byte) (Doc, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, err
	}
	return fitzDoc{doc}, nil
}

// Ensure default opener is set to fitz-based implementation.
func init() {
	setDefaultOpener(fitzOpener{})
}

type fitzDoc struct{ *fitz.Document }

func (d fitzDoc) Image(i int) (image.Image, error) {
	return d.Document.Image(i)
}
