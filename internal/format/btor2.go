package format

import (
	"github.com/phobologic/rotorbench/internal/model"
	"github.com/phobologic/rotorbench/internal/parse"
)

func init() {
	Formats[model.BTOR2] = &Format{
		Name:       model.BTOR2,
		Extensions: []string{".btor2", ".btor"},
		Parser:     parse.BTOR2{},
	}
}
