package layout

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Align is an ABI alignment with an optional preferred alignment, in bits.
// A zero Pref means the ABI alignment is preferred.
type Align struct {
	ABI  uint32
	Pref uint32
}

// Preferred returns Pref, or ABI when no preference was given.
func (a Align) Preferred() uint32 {
	if a.Pref == 0 {
		return a.ABI
	}
	return a.Pref
}

// PointerSpec is the layout of pointers in one address space. Sizes are in
// bits; a zero Index means the index width equals Size.
type PointerSpec struct {
	Size  uint32
	Align Align
	Index uint32
}

// DataLayout is a parsed LLVM data layout string. Only the components
// present in the source are recorded; lookups fall back to LLVM's defaults.
type DataLayout struct {
	Source    string
	BigEndian bool
	// StackAlign is the natural stack alignment in bits, 0 when unspecified.
	StackAlign uint32

	ProgramAS, GlobalAS, AllocaAS uint32

	Pointers  map[uint32]PointerSpec
	Ints      map[uint32]Align
	Floats    map[uint32]Align
	Vectors   map[uint32]Align
	Aggregate *Align

	// Mangling is the m: option letter, 0 when absent.
	Mangling   byte
	NativeInts []uint32
}

var defaultPointer = PointerSpec{Size: 64, Align: Align{ABI: 64}}

var (
	defaultInts   = map[uint32]Align{1: {ABI: 8}, 8: {ABI: 8}, 16: {ABI: 16}, 32: {ABI: 32}, 64: {ABI: 64}}
	defaultFloats = map[uint32]Align{16: {ABI: 16}, 32: {ABI: 32}, 64: {ABI: 64}, 128: {ABI: 128}}
)

// Pointer returns the pointer layout of address space as.
func (d *DataLayout) Pointer(as uint32) PointerSpec {
	if d != nil {
		if p, ok := d.Pointers[as]; ok {
			return p
		}
		if p, ok := d.Pointers[0]; ok {
			return p
		}
	}
	return defaultPointer
}

// IntAlign returns the alignment of an integer of width bits. Widths with
// no entry take the next larger specified width, or the largest one when
// width exceeds them all.
func (d *DataLayout) IntAlign(width uint32) Align {
	return lookupAlign(d.ints(), width)
}

// FloatAlign returns the alignment of a float of width bits, and false when
// the layout names no alignment for that width.
func (d *DataLayout) FloatAlign(width uint32) (Align, bool) {
	if d != nil {
		if a, ok := d.Floats[width]; ok {
			return a, true
		}
	}
	a, ok := defaultFloats[width]
	return a, ok
}

func (d *DataLayout) ints() map[uint32]Align {
	merged := make(map[uint32]Align, len(defaultInts))
	for w, a := range defaultInts {
		merged[w] = a
	}
	if d != nil {
		for w, a := range d.Ints {
			merged[w] = a
		}
	}
	return merged
}

func lookupAlign(table map[uint32]Align, width uint32) Align {
	if a, ok := table[width]; ok {
		return a
	}
	var (
		best, largest   Align
		bestW, largestW uint32
	)
	for w, a := range table {
		if w > width && (bestW == 0 || w < bestW) {
			best, bestW = a, w
		}
		if w > largestW {
			largest, largestW = a, w
		}
	}
	if bestW != 0 {
		return best
	}
	return largest
}

// ParseDataLayout parses an LLVM data layout string. The empty string is the
// all-defaults layout. Errors are *LayoutError values of kind
// LayoutErrDataLayout naming the offending component.
func ParseDataLayout(s string) (*DataLayout, error) {
	d := &DataLayout{
		Source:   s,
		Pointers: map[uint32]PointerSpec{},
		Ints:     map[uint32]Align{},
		Floats:   map[uint32]Align{},
		Vectors:  map[uint32]Align{},
	}
	if s == "" {
		return d, nil
	}
	for _, comp := range strings.Split(s, "-") {
		if err := d.parseComponent(comp); err != nil {
			return nil, &LayoutError{Kind: LayoutErrDataLayout, Text: s, Component: comp, Err: err}
		}
	}
	return d, nil
}

func (d *DataLayout) parseComponent(comp string) error {
	if comp == "" {
		return errors.New("empty component")
	}
	kind, rest := comp[0], comp[1:]
	switch kind {
	case 'e', 'E':
		if rest != "" {
			return fmt.Errorf("unexpected %q after endianness", rest)
		}
		d.BigEndian = kind == 'E'
	case 'S':
		n, err := parseBits(rest)
		if err != nil {
			return err
		}
		d.StackAlign = n
	case 'P', 'G', 'A':
		n, err := parseBits(rest)
		if err != nil {
			return err
		}
		switch kind {
		case 'P':
			d.ProgramAS = n
		case 'G':
			d.GlobalAS = n
		default:
			d.AllocaAS = n
		}
	case 'p':
		return d.parsePointer(rest)
	case 'i', 'f', 'v':
		width, al, err := parseSizedAlign(rest)
		if err != nil {
			return err
		}
		table := map[byte]map[uint32]Align{'i': d.Ints, 'f': d.Floats, 'v': d.Vectors}[kind]
		table[width] = al
	case 'a':
		fields := strings.Split(rest, ":")
		if fields[0] != "" && fields[0] != "0" {
			return errors.New("aggregate size must be empty or 0")
		}
		al, err := parseAlign(fields[1:])
		if err != nil {
			return err
		}
		d.Aggregate = &al
	case 'F':
		if len(rest) < 2 || (rest[0] != 'i' && rest[0] != 'n') {
			return errors.New("function pointer alignment must be Fi<abi> or Fn<abi>")
		}
		if _, err := parseBits(rest[1:]); err != nil {
			return err
		}
	case 'm':
		opt, ok := strings.CutPrefix(rest, ":")
		if !ok || opt == "" {
			return errors.New("missing mangling option")
		}
		if len(opt) != 1 || !strings.Contains("elmoxwa", opt) {
			return fmt.Errorf("%q is not a mangling option", opt)
		}
		d.Mangling = opt[0]
	case 'n':
		// ni:<as>... lists non-integral address spaces.
		spaces, nonIntegral := strings.CutPrefix(rest, "i:")
		if nonIntegral {
			rest = spaces
		}
		for _, f := range strings.Split(rest, ":") {
			n, err := parseBits(f)
			if err != nil {
				return err
			}
			if !nonIntegral {
				d.NativeInts = append(d.NativeInts, n)
			}
		}
	default:
		return fmt.Errorf("unknown specification %q", string(kind))
	}
	return nil
}

func (d *DataLayout) parsePointer(rest string) error {
	as := uint32(0)
	head, tail, ok := strings.Cut(rest, ":")
	if !ok {
		return errors.New("missing pointer size")
	}
	if head != "" {
		n, err := parseBits(head)
		if err != nil {
			return err
		}
		as = n
	}
	fields := strings.Split(tail, ":")
	if len(fields) < 2 || len(fields) > 4 {
		return errors.New("pointer layout takes size, abi and optional pref and index")
	}
	size, err := parseBits(fields[0])
	if err != nil {
		return err
	}
	if size == 0 {
		return errors.New("pointer size must be non-zero")
	}
	al, err := parseAlign(fields[1:min(3, len(fields))])
	if err != nil {
		return err
	}
	spec := PointerSpec{Size: size, Align: al}
	if len(fields) == 4 {
		if spec.Index, err = parseBits(fields[3]); err != nil {
			return err
		}
	}
	if _, dup := d.Pointers[as]; dup {
		return fmt.Errorf("duplicate pointer layout for address space %d", as)
	}
	d.Pointers[as] = spec
	return nil
}

func parseSizedAlign(rest string) (uint32, Align, error) {
	fields := strings.Split(rest, ":")
	if len(fields) < 2 || len(fields) > 3 {
		return 0, Align{}, errors.New("expected <size>:<abi>[:<pref>]")
	}
	width, err := parseBits(fields[0])
	if err != nil {
		return 0, Align{}, err
	}
	if width == 0 {
		return 0, Align{}, errors.New("size must be non-zero")
	}
	al, err := parseAlign(fields[1:])
	return width, al, err
}

func parseAlign(fields []string) (Align, error) {
	if len(fields) == 0 || len(fields) > 2 {
		return Align{}, errors.New("expected <abi>[:<pref>]")
	}
	var (
		al  Align
		err error
	)
	if al.ABI, err = parseBits(fields[0]); err != nil {
		return Align{}, err
	}
	if len(fields) == 2 {
		if al.Pref, err = parseBits(fields[1]); err != nil {
			return Align{}, err
		}
		if al.Pref < al.ABI {
			return Align{}, fmt.Errorf("preferred alignment %d is below abi alignment %d", al.Pref, al.ABI)
		}
	}
	if al.ABI%8 != 0 || al.Pref%8 != 0 {
		return Align{}, errors.New("alignment must be a whole number of bytes")
	}
	return al, nil
}

func parseBits(s string) (uint32, error) {
	if s == "" {
		return 0, errors.New("missing number")
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return uint32(n), nil
}
