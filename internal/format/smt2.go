package format

import (
	"github.com/phobologic/rotorbench/internal/model"
	"github.com/phobologic/rotorbench/internal/parse"
)

func init() {
	Formats[model.SMT2] = &Format{
		Name:       model.SMT2,
		Extensions: []string{".smt2", ".smt"},
		Parser:     parse.SMT2{},
	}
}
