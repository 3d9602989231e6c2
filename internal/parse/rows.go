package parse

import (
	"strconv"
	"strings"

	"github.com/phobologic/rotorbench/internal/model"
)

// HeaderRows returns label/value pairs for every header field, in a fixed
// order. Absent fields render as "-".
func HeaderRows(h *model.Header) [][2]string {
	source := "-"
	if h.SourceFile != nil {
		source = *h.SourceFile
	}
	flags := "None"
	if len(h.Flags) > 0 {
		flags = strings.Join(h.Flags, ", ")
	}
	return [][2]string{
		{"Source", source},
		{"kMin", optInt(h.KMin)},
		{"kMax", optInt(h.KMax)},
		{"Code Size", optInt(h.BytecodeSize)},
		{"Data Size", optInt(h.DataSize)},
		{"Virtual Address Space", optInt(h.VirtualAddressSpace)},
		{"Code Word Size", optInt(h.CodeWordSize)},
		{"Memory Word Size", optInt(h.MemoryWordSize)},
		{"Heap Allowance", optInt(h.HeapAllowance)},
		{"Stack Allowance", optInt(h.StackAllowance)},
		{"Cores", optInt(h.Cores)},
		{"Bytes To Read", optInt(h.BytesToRead)},
		{"Constants Propagated", strconv.FormatBool(h.ConstantsPropagated)},
		{"Comments Removed", strconv.FormatBool(h.CommentsRemoved)},
		{"Flags", flags},
	}
}

func optInt(v *int64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatInt(*v, 10)
}
