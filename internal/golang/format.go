package golang

import (
	"fmt"

	"golang.org/x/tools/imports"
)

// Format gofmts src and fixes its import block.
func Format(src []byte) ([]byte, error) {
	out, err := imports.Process("", src, &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: false,
	})
	if err != nil {
		return nil, fmt.Errorf("formatting generated go source: %w", err)
	}
	return out, nil
}
