package interp

import (
	"compress/flate"
	"encoding/gob"
	"io"

	"github.com/fogti/mangle/ast"
	baseerrors "github.com/grailbio/base/errors"
	"github.com/pkg/errors"
)

// image is the gob-encoded payload SaveImage/LoadImage exchange: the
// top-level sequence and the user-macro table as it stood when the image
// was written (spec §6's compiled-image format).
type image struct {
	Top  ast.Seq
	Defs map[string]MacroDef
}

func init() {
	gob.Register(ast.NullNode{})
	gob.Register(ast.Constant{})
	gob.Register(ast.Argument{})
	gob.Register(&ast.Grouped{})
	gob.Register(&ast.CmdEval{})
	gob.Register(&ast.Lambda{})
}

// SaveImage writes a deflate-compressed gob encoding of top and defs to w.
func SaveImage(w io.Writer, top ast.Seq, defs map[string]MacroDef) error {
	fw, err := flate.NewWriter(w, flate.BestCompression)
	if err != nil {
		return baseerrors.E("interp: open compiled-image writer", err)
	}
	enc := gob.NewEncoder(fw)
	if err := enc.Encode(image{Top: top, Defs: defs}); err != nil {
		return errors.Wrap(err, "interp: encode compiled image")
	}
	if err := fw.Close(); err != nil {
		return baseerrors.E("interp: flush compiled image", err)
	}
	return nil
}

// LoadImage reads a compiled image previously written by SaveImage.
func LoadImage(r io.Reader) (ast.Seq, map[string]MacroDef, error) {
	fr := flate.NewReader(r)
	defer fr.Close()
	var img image
	if err := gob.NewDecoder(fr).Decode(&img); err != nil {
		return nil, nil, errors.Wrap(err, "interp: decode compiled image")
	}
	return img.Top, img.Defs, nil
}
