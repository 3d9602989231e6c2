package rotor

import (
	"bufio"
	"io"
)

// MaxLineSize bounds a single model line. Generated models can carry very
// long nested terms on one line.
const MaxLineSize = 64 << 20

// NewScanner returns a line scanner over r sized for generated models.
func NewScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	return sc
}
