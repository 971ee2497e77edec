package ir

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ValidationCode identifies the kind of structural violation.
type ValidationCode uint16

const (
	CodeMissingTerminator ValidationCode = iota + 1
	CodeUnresolvedTarget
	CodeUnreachableBlock
	CodeEntryHasPredecessors
	CodeNotDominated
	CodePhiIncoming
	CodeUnresolvedGlobal
	CodeReturnType
	CodeDuplicateName
)

var validationCodeNames = [...]string{
	CodeMissingTerminator:    "missing-terminator",
	CodeUnresolvedTarget:     "unresolved-target",
	CodeUnreachableBlock:     "unreachable-block",
	CodeEntryHasPredecessors: "entry-has-predecessors",
	CodeNotDominated:         "not-dominated",
	CodePhiIncoming:          "phi-incoming",
	CodeUnresolvedGlobal:     "unresolved-global",
	CodeReturnType:           "return-type",
	CodeDuplicateName:        "duplicate-name",
}

func (c ValidationCode) String() string {
	if int(c) < len(validationCodeNames) && validationCodeNames[c] != "" {
		return validationCodeNames[c]
	}
	return "ValidationCode(" + strconv.Itoa(int(c)) + ")"
}

// ValidationError is one structural violation. Func and Block are empty for
// module-level problems; Instr is -1 when no instruction is involved.
type ValidationError struct {
	Code    ValidationCode
	Func    string
	Block   string
	Instr   int
	Message string
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	if e.Func != "" {
		sb.WriteString("@" + e.Func)
		if e.Block != "" {
			sb.WriteString(" %" + e.Block)
		}
		if e.Instr >= 0 {
			sb.WriteString(" #" + strconv.Itoa(e.Instr))
		}
		sb.WriteString(": ")
	}
	sb.WriteString(e.Message)
	sb.WriteString(" [" + e.Code.String() + "]")
	return sb.String()
}

// ValidationErrorList collects every violation found in a module.
type ValidationErrorList []*ValidationError

func (l ValidationErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no validation errors"
	case 1:
		return l[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:", len(l))
	for _, e := range l {
		sb.WriteString("\n\t")
		sb.WriteString(e.Error())
	}
	return sb.String()
}

// Unwrap lets errors.As find individual entries.
func (l ValidationErrorList) Unwrap() []error {
	out := make([]error, len(l))
	for i, e := range l {
		out[i] = e
	}
	return out
}

// Validate checks the whole-structure rules that appends cannot check
// locally. It returns nil or a ValidationErrorList holding every violation,
// module-level problems first, then per function in declaration order.
// Functions are checked concurrently; m must not be mutated meanwhile.
func Validate(m *Module) error {
	if m == nil {
		return nil
	}
	fns := m.Funcs()
	results := make([]ValidationErrorList, len(fns))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, id := range fns {
		g.Go(func() error {
			results[i] = m.validateFunc(id)
			return nil
		})
	}
	_ = g.Wait()

	out := m.validateModule()
	for _, r := range results {
		out = append(out, r...)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (m *Module) validateModule() ValidationErrorList {
	var errs ValidationErrorList
	for _, name := range m.Unresolved() {
		errs = append(errs, &ValidationError{
			Code:    CodeUnresolvedGlobal,
			Instr:   -1,
			Message: fmt.Sprintf("forward reference @%s was never declared", name),
		})
	}
	seen := make(map[string]bool, m.globals.Len()+m.funcs.Len())
	check := func(name string) {
		if seen[name] {
			errs = append(errs, &ValidationError{
				Code:    CodeDuplicateName,
				Instr:   -1,
				Message: fmt.Sprintf("@%s is declared more than once", name),
			})
		}
		seen[name] = true
	}
	for i := 0; i < m.globals.Len(); i++ {
		_, g := m.globals.At(i)
		check(g.Name)
	}
	for i := 0; i < m.funcs.Len(); i++ {
		_, f := m.funcs.At(i)
		check(f.Name)
	}
	return errs
}

type funcValidator struct {
	m    *Module
	f    *Func
	cfg  *cfg
	idom []int
	errs ValidationErrorList
}

func (v *funcValidator) report(code ValidationCode, block BlockID, instr int, format string, args ...any) {
	name := ""
	if b, ok := v.m.blocks.Get(uint64(block)); ok {
		name = b.Name
	}
	v.errs = append(v.errs, &ValidationError{
		Code:    code,
		Func:    v.f.Name,
		Block:   name,
		Instr:   instr,
		Message: fmt.Sprintf(format, args...),
	})
}

func (m *Module) validateFunc(id FuncID) ValidationErrorList {
	f, ok := m.funcs.Get(uint64(id))
	if !ok || len(f.Blocks) == 0 {
		return nil
	}
	v := &funcValidator{m: m, f: f, cfg: newCFG(f.Blocks)}

	// 1. Terminators and branch targets; builds the CFG
	v.checkTerminators()

	// 2. Reachability and entry predecessors
	v.idom = v.cfg.dominators()
	for i, bid := range f.Blocks {
		if v.idom[i] == -1 {
			v.report(CodeUnreachableBlock, bid, -1, "block is unreachable from the entry block")
		}
	}
	if len(v.cfg.preds[0]) > 0 {
		v.report(CodeEntryHasPredecessors, f.Blocks[0], -1, "entry block has %d predecessors", len(v.cfg.preds[0]))
	}

	// 3. Phi edges against predecessors
	v.checkPhis()

	// 4. Operand visibility and return types
	v.checkOperands()

	return v.errs
}

func (v *funcValidator) checkTerminators() {
	for bi, bid := range v.f.Blocks {
		b, _ := v.m.blocks.Get(uint64(bid))
		if !b.terminated {
			v.report(CodeMissingTerminator, bid, -1, "block does not end in a terminator")
		}
		for k, iid := range b.Instrs {
			in, _ := v.m.instrs.Get(uint64(iid))
			for _, t := range in.Targets {
				target, ok := v.m.resolveIn(v.f, t)
				if !ok {
					v.report(CodeUnresolvedTarget, bid, k, "%s target %s does not name a block of @%s", in.Op, t, v.f.Name)
					continue
				}
				if in.Op.IsTerminator() {
					v.cfg.addEdge(bi, v.cfg.index[target])
				}
			}
		}
	}
}

func (v *funcValidator) checkPhis() {
	for bi, bid := range v.f.Blocks {
		b, _ := v.m.blocks.Get(uint64(bid))
		preds := make(map[int]bool, len(v.cfg.preds[bi]))
		for _, p := range v.cfg.preds[bi] {
			preds[p] = true
		}
		for k, iid := range b.Instrs {
			in, _ := v.m.instrs.Get(uint64(iid))
			if in.Op != OpPhi {
				break
			}
			covered := make(map[int]bool, len(in.Targets))
			for _, t := range in.Targets {
				target, ok := v.m.resolveIn(v.f, t)
				if !ok {
					continue
				}
				pi := v.cfg.index[target]
				if !preds[pi] {
					v.report(CodePhiIncoming, bid, k, "incoming block %s is not a predecessor", v.m.blockLabel(target))
				}
				covered[pi] = true
			}
			for _, p := range v.cfg.preds[bi] {
				if !covered[p] {
					v.report(CodePhiIncoming, bid, k, "no incoming value for predecessor %s", v.m.blockLabel(v.f.Blocks[p]))
				}
			}
		}
	}
}

func (v *funcValidator) checkOperands() {
	info, _ := v.m.types.FuncInfo(v.f.Sig)
	for bi, bid := range v.f.Blocks {
		if v.idom[bi] == -1 {
			continue
		}
		b, _ := v.m.blocks.Get(uint64(bid))
		for k, iid := range b.Instrs {
			in, _ := v.m.instrs.Get(uint64(iid))
			for j, op := range in.Operands {
				at, atIndex := bi, k
				if in.Op == OpPhi {
					target, ok := v.m.resolveIn(v.f, in.Targets[j])
					if !ok {
						continue
					}
					at, atIndex = v.cfg.index[target], -1
					if v.idom[at] == -1 {
						continue
					}
				}
				if !v.visible(op, at, atIndex) {
					v.report(CodeNotDominated, bid, k, "operand %d (%s) is not available here", j, v.m.valueLabel(op))
				}
			}
			if in.Op == OpRet {
				var got string
				if len(in.Operands) == 1 {
					t, _ := v.m.ValueType(in.Operands[0])
					if t == info.Result {
						continue
					}
					got = v.m.typeLabel(t)
				} else if v.m.types.IsVoid(info.Result) {
					continue
				} else {
					got = "void"
				}
				v.report(CodeReturnType, bid, k, "returns %s, function returns %s", got, v.m.typeLabel(info.Result))
			}
		}
	}
}

// visible reports whether value id is available in block at before
// instruction index atIndex; atIndex -1 means at the end of the block.
func (v *funcValidator) visible(id ValueID, at, atIndex int) bool {
	val, ok := v.m.values.Get(uint64(id))
	if !ok {
		return false
	}
	switch val.Kind {
	case ValueConst, ValueGlobalRef:
		return true
	case ValueParam:
		return val.Owner == v.f.ID
	case ValueInstr:
		if val.Owner != v.f.ID {
			return false
		}
		def, _ := v.m.instrs.Get(uint64(val.Instr))
		d, ok := v.cfg.index[def.Block]
		if !ok {
			return false
		}
		if d == at {
			return atIndex < 0 || def.Index < atIndex
		}
		return dominates(v.idom, d, at)
	}
	return false
}
