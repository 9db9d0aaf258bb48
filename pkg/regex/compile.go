package regex

import "fmt"

// Program is a compiled pattern: a flat instruction stream plus the
// rune-range table its OpClass instructions index into.
type Program struct {
	Insts      []Inst
	Ranges     []RuneRange
	NumGroups  int
	IgnoreCase bool
	Multiline  bool
}

// Compile lowers a parsed Pattern into a Program. It walks the AST
// once, emitting instructions directly into a growing slice and
// resolving jump targets as soon as both branches of a control
// construct are known — no backpatch list needed, since (unlike an
// assembler with forward label references across function
// boundaries) every branch of a regex AST is fully compiled before its
// parent needs to know where it ends.
func Compile(pat *Pattern) (*Program, error) {
	c := &compiler{dotAll: pat.DotAll}
	if err := c.compile(pat.Root); err != nil {
		return nil, err
	}
	c.emit(Inst{Op: OpMatch})
	return &Program{
		Insts:      c.insts,
		Ranges:     c.ranges,
		NumGroups:  pat.NumGroups,
		IgnoreCase: pat.IgnoreCase,
		Multiline:  pat.Multiline,
	}, nil
}

type compiler struct {
	insts  []Inst
	ranges []RuneRange
	dotAll bool
}

func (c *compiler) pc() int32 { return int32(len(c.insts)) }

func (c *compiler) emit(i Inst) int32 {
	idx := c.pc()
	c.insts = append(c.insts, i)
	return idx
}

func (c *compiler) compile(n Node) error {
	switch v := n.(type) {
	case Concat:
		for _, part := range v.Parts {
			if err := c.compile(part); err != nil {
				return err
			}
		}
		return nil

	case Alt:
		return c.compileAlt(v.Branches)

	case Star:
		return c.compileStar(v.Child, v.Lazy)

	case Plus:
		if err := c.compile(v.Child); err != nil {
			return err
		}
		return c.compileStar(v.Child, v.Lazy)

	case Opt:
		splitIdx := c.emit(Inst{Op: OpSplit})
		thenPC := c.pc()
		if err := c.compile(v.Child); err != nil {
			return err
		}
		elsePC := c.pc()
		if v.Lazy {
			c.insts[splitIdx].Arg1, c.insts[splitIdx].Arg2 = elsePC, thenPC
		} else {
			c.insts[splitIdx].Arg1, c.insts[splitIdx].Arg2 = thenPC, elsePC
		}
		return nil

	case Repeat:
		return c.compileRepeat(v)

	case Group:
		if v.Index == 0 {
			return c.compile(v.Child)
		}
		c.emit(Inst{Op: OpSave, Arg1: int32(2 * v.Index)})
		if err := c.compile(v.Child); err != nil {
			return err
		}
		c.emit(Inst{Op: OpSave, Arg1: int32(2*v.Index + 1)})
		return nil

	case Literal:
		c.emit(Inst{Op: OpChar, Arg1: int32(v.Rune)})
		return nil

	case AnyChar:
		dotAll := int32(0)
		if c.dotAll {
			dotAll = 1
		}
		c.emit(Inst{Op: OpAny, Arg1: dotAll})
		return nil

	case Class:
		offset := int32(len(c.ranges)) * 8
		c.ranges = append(c.ranges, v.Ranges...)
		neg := int32(0)
		if v.Negated {
			neg = 1
		}
		c.emit(Inst{Op: OpClass, Arg1: offset, Arg2: int32(len(v.Ranges)), Arg3: neg})
		return nil

	case StartAnchor:
		c.emit(Inst{Op: OpBOL})
		return nil

	case EndAnchor:
		c.emit(Inst{Op: OpEOL})
		return nil

	case WordBoundary:
		neg := int32(0)
		if v.Negated {
			neg = 1
		}
		c.emit(Inst{Op: OpWordB, Arg1: neg})
		return nil

	default:
		return fmt.Errorf("regex: unhandled node type %T", n)
	}
}

// compileAlt emits a chain of two-way splits so N branches are tried
// in source order, each backtracking into the next on failure.
func (c *compiler) compileAlt(branches []Node) error {
	if len(branches) == 1 {
		return c.compile(branches[0])
	}

	splitIdx := c.emit(Inst{Op: OpSplit})
	firstPC := c.pc()
	if err := c.compile(branches[0]); err != nil {
		return err
	}
	jmpIdx := c.emit(Inst{Op: OpJmp})
	restPC := c.pc()
	c.insts[splitIdx].Arg1, c.insts[splitIdx].Arg2 = firstPC, restPC

	if err := c.compileAlt(branches[1:]); err != nil {
		return err
	}
	c.insts[jmpIdx].Arg1 = c.pc()
	return nil
}

// compileStar emits the classic loop: split into (body, exit), body
// falls through to a jump back to the split.
func (c *compiler) compileStar(child Node, lazy bool) error {
	splitIdx := c.emit(Inst{Op: OpSplit})
	bodyPC := c.pc()
	if err := c.compile(child); err != nil {
		return err
	}
	c.emit(Inst{Op: OpJmp, Arg1: splitIdx})
	exitPC := c.pc()
	if lazy {
		c.insts[splitIdx].Arg1, c.insts[splitIdx].Arg2 = exitPC, bodyPC
	} else {
		c.insts[splitIdx].Arg1, c.insts[splitIdx].Arg2 = bodyPC, exitPC
	}
	return nil
}

// compileRepeat unrolls {min,max} into min mandatory copies followed
// either by a star (max == -1) or by (max-min) nested optionals. This
// can bloat the instruction count for large bounds, matching how most
// backtracking engines handle bounded repetition.
func (c *compiler) compileRepeat(r Repeat) error {
	for i := 0; i < r.Min; i++ {
		if err := c.compile(r.Child); err != nil {
			return err
		}
	}
	if r.Max == -1 {
		return c.compileStar(r.Child, r.Lazy)
	}
	for i := 0; i < r.Max-r.Min; i++ {
		if err := c.compile(Opt{Child: r.Child, Lazy: r.Lazy}); err != nil {
			return err
		}
	}
	return nil
}

// Encode serializes the program into a single byte blob: the
// instruction stream followed by the range table, so the assembler
// can drop it into one data segment and hand $regex_search a base
// pointer plus the instruction count (from which it derives the range
// table's offset as numInsts*16).
func (p *Program) Encode() []byte {
	buf := make([]byte, 0, len(p.Insts)*instSize+len(p.Ranges)*8)
	for _, in := range p.Insts {
		buf = appendI32(buf, int32(in.Op))
		buf = appendI32(buf, in.Arg1)
		buf = appendI32(buf, in.Arg2)
		buf = appendI32(buf, in.Arg3)
	}
	for _, r := range p.Ranges {
		buf = appendI32(buf, int32(r.Lo))
		buf = appendI32(buf, int32(r.Hi))
	}
	return buf
}

func appendI32(buf []byte, v int32) []byte {
	u := uint32(v)
	return append(buf, byte(u), byte(u>>8), byte(u>>16), byte(u>>24))
}
