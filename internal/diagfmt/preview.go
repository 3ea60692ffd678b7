package diagfmt

import (
	"errors"
	"fmt"
	"strings"

	"oxbow/internal/diag"
	"oxbow/internal/source"
)

// fixEditPreview holds the whole lines touched by an edit before and after
// applying it.
type fixEditPreview struct {
	before []string
	after  []string
}

func buildFixEditPreview(fs *source.FileSet, edit diag.FixEdit) (fixEditPreview, error) {
	if fs == nil {
		return fixEditPreview{}, errors.New("nil FileSet")
	}
	file := fs.Get(edit.Span.File)
	if file == nil || edit.Span.File == 0 {
		return fixEditPreview{}, fmt.Errorf("edit points at unknown file %d", edit.Span.File)
	}
	size := len(file.Content)
	start, end := int(edit.Span.Start), int(edit.Span.End)
	if start > end || end > size {
		return fixEditPreview{}, fmt.Errorf("edit span %d..%d outside file of %d bytes", start, end, size)
	}

	from, _ := fs.Resolve(edit.Span)
	lo := int(file.Offset(from.Line, 1))
	hi := end
	for hi < size && file.Content[hi] != '\n' {
		hi++
	}

	block := string(file.Content[lo:hi])
	edited := string(file.Content[lo:start]) + edit.NewText + string(file.Content[end:hi])
	return fixEditPreview{before: previewLines(block), after: previewLines(edited)}, nil
}

func previewLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimRight(text, "\n"), "\n")
}
