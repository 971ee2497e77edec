package layout

import (
	"fmt"
	"strings"
)

// Target describes the ABI target triple and its pointer properties.
type Target struct {
	Triple   string // e.g. "x86_64-unknown-linux-gnu"
	PtrSize  int    // bytes
	PtrAlign int    // bytes
	// MaxIntAlign caps the natural alignment of wide integers.
	MaxIntAlign int

	// Layout is the parsed data layout the fields above were taken from,
	// nil when they come from the triple alone.
	Layout *DataLayout
}

// X86_64LinuxGNU is the default target: 8-byte pointers and 8-byte aligned
// 64-bit integers.
func X86_64LinuxGNU() Target {
	return Target{
		Triple:      "x86_64-unknown-linux-gnu",
		PtrSize:     8,
		PtrAlign:    8,
		MaxIntAlign: 8,
	}
}

// TargetFromTriple picks pointer properties from the architecture component
// of triple. Unknown or empty triples fall back to x86_64.
func TargetFromTriple(triple string) Target {
	t := X86_64LinuxGNU()
	if triple == "" {
		return t
	}
	t.Triple = triple
	arch, _, _ := strings.Cut(triple, "-")
	switch arch {
	case "i386", "i486", "i586", "i686", "arm", "armv7", "thumbv7", "wasm32", "riscv32", "mips", "mipsel":
		t.PtrSize, t.PtrAlign, t.MaxIntAlign = 4, 4, 4
	case "avr", "msp430":
		t.PtrSize, t.PtrAlign, t.MaxIntAlign = 2, 2, 2
	}
	return t
}

// TargetFor derives a target from triple and then lets dataLayout override
// the pointer size, pointer alignment and i64 alignment. An empty dataLayout
// keeps the triple's defaults; a malformed one is a *LayoutError.
func TargetFor(triple, dataLayout string) (Target, error) {
	t := TargetFromTriple(triple)
	if dataLayout == "" {
		return t, nil
	}
	dl, err := ParseDataLayout(dataLayout)
	if err != nil {
		return t, err
	}
	return t.WithDataLayout(dl), nil
}

// WithDataLayout returns t with its pointer and integer properties read from
// address space 0 and the i64 entry of dl.
func (t Target) WithDataLayout(dl *DataLayout) Target {
	ptr := dl.Pointer(0)
	t.PtrSize = int(ptr.Size / 8)
	t.PtrAlign = max(1, int(ptr.Align.ABI/8))
	t.MaxIntAlign = max(1, int(dl.IntAlign(64).ABI/8))
	t.Layout = dl
	return t
}

// DataLayout renders a minimal LLVM data layout string for t.
func (t Target) DataLayout() string {
	if t.Layout != nil && t.Layout.Source != "" {
		return t.Layout.Source
	}
	bits := t.PtrSize * 8
	native := "n8:16:32"
	if bits == 64 {
		native += ":64"
	}
	return fmt.Sprintf("e-p:%d:%d-i64:%d-%s-S128", bits, t.PtrAlign*8, min(64, t.MaxIntAlign*8), native)
}
