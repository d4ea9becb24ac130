package reader

import (
	"errors"
	"strconv"
	"strings"

	"github.com/chazu/quill/pkg/value"
)

// ErrEOF is the "distinguished EOF sentinel" of spec.md §4.2: ParseNext
// returns it when the Stream holds no complete top-level form. Modeled on
// io.EOF so callers can use errors.Is.
var ErrEOF = errors.New("reader: no complete form available")

// reservedWords always resolve to the global package regardless of the
// current package or any prefix (spec.md §6).
var reservedWords = map[string]bool{
	"quote": true, "begin": true, "set!": true, "if": true, "if*": true,
	"lambda": true, "defmacro": true, ".": true, "while": true,
}

// Parser turns Stream text into value.Value forms, interning symbols
// against pkgs and rewriting quote/quasiquote per spec.md §4.2.
type Parser struct {
	pkgs *value.Packages
}

// New creates a Parser resolving symbols against pkgs.
func New(pkgs *value.Packages) *Parser {
	return &Parser{pkgs: pkgs}
}

// ParseNext reads one form from s, or returns ErrEOF if the buffered text
// does not yet contain a complete form — in which case s is restored to
// its pre-attempt cursor position so a subsequent Add+ParseNext can retry
// from scratch.
func (p *Parser) ParseNext(s *Stream) (value.Value, error) {
	s.Save()
	v, err := p.parseForm(s)
	if err != nil {
		s.Restore()
		return value.Nil, err
	}
	s.ClearSave()
	s.Trim()
	return v, nil
}

// parseForm skips leading whitespace/comments and dispatches on the
// leading character, per the precedence table in spec.md §4.2.
func (p *Parser) parseForm(s *Stream) (value.Value, error) {
	if !p.skipAtmosphere(s) {
		return value.Nil, ErrEOF
	}
	c := s.Peek()
	switch {
	case c == '(':
		s.Read()
		return p.parseList(s)
	case c == ')':
		return value.Nil, syntaxErrorf("unexpected ')'")
	case c == '"':
		s.Read()
		return p.parseString(s)
	case c == '\'':
		s.Read()
		inner, err := p.parseForm(s)
		if err != nil {
			return value.Nil, err
		}
		return quoteForm(p.pkgs, "quote", inner), nil
	case c == '`':
		s.Read()
		inner, err := p.parseBackquoted(s)
		if err != nil {
			return value.Nil, err
		}
		return backquoteRewrite(p.pkgs, inner), nil
	case c == ',':
		return value.Nil, syntaxErrorf(", outside of backquote")
	default:
		return p.parseAtom(s)
	}
}

// skipAtmosphere advances past whitespace and ;-comments. Returns false if
// doing so reaches EOF with nothing left to read.
func (p *Parser) skipAtmosphere(s *Stream) bool {
	for {
		if s.AtEOF() {
			return false
		}
		c := s.Peek()
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			s.Read()
			continue
		}
		if c == ';' {
			for !s.AtEOF() && s.Peek() != '\n' {
				s.Read()
			}
			continue
		}
		return true
	}
}

// parseList reads forms until a matching ')'; a '.' in penultimate
// position makes a dotted pair.
func (p *Parser) parseList(s *Stream) (value.Value, error) {
	var elems []value.Value
	dotted := false
	var tail value.Value = value.Nil
	for {
		if !p.skipAtmosphere(s) {
			return value.Nil, ErrEOF // ran out of buffered text mid-list; may complete later
		}
		if s.Peek() == ')' {
			s.Read()
			break
		}
		if s.Peek() == '.' && isDelimiterAt(s, 1) {
			if dotted {
				return value.Nil, syntaxErrorf("improperly placed '.'")
			}
			s.Read()
			var err error
			tail, err = p.parseForm(s)
			if err != nil {
				return value.Nil, err
			}
			dotted = true
			continue
		}
		if dotted {
			return value.Nil, syntaxErrorf("improperly placed '.'")
		}
		v, err := p.parseForm(s)
		if err != nil {
			return value.Nil, err
		}
		elems = append(elems, v)
	}
	result := tail
	for i := len(elems) - 1; i >= 0; i-- {
		result = value.NewCons(elems[i], result)
	}
	return result, nil
}

// isDelimiterAt reports whether the byte offset positions past the cursor
// is whitespace, EOF, or a structural character — i.e. the '.' at the
// cursor is a standalone dot token, not the start of a symbol like `.5`
// or `foo.bar`.
func isDelimiterAt(s *Stream, offset int) bool {
	c := s.PeekAt(offset)
	if c == 0 {
		return true
	}
	switch c {
	case ' ', '\t', '\n', '\r', '(', ')', '"', ';':
		return true
	}
	return false
}

func (p *Parser) parseString(s *Stream) (value.Value, error) {
	var sb strings.Builder
	for {
		if s.AtEOF() {
			return value.Nil, ErrEOF // string may still be closed by later input
		}
		c := s.Read()
		if c == '\\' {
			if s.AtEOF() {
				return value.Nil, ErrEOF
			}
			sb.WriteByte(s.Read())
			continue
		}
		if c == '"' {
			return value.String(sb.String()), nil
		}
		sb.WriteByte(c)
	}
}

// parseBackquoted reads one form while `,`/`,@` are legal, wrapping them
// in the intermediate markers `(unquote X)` / `(unquote-splice X)` for
// backquoteRewrite.
func (p *Parser) parseBackquoted(s *Stream) (value.Value, error) {
	if !p.skipAtmosphere(s) {
		return value.Nil, ErrEOF
	}
	c := s.Peek()
	switch {
	case c == ',':
		s.Read()
		marker := "unquote"
		if s.Peek() == '@' {
			s.Read()
			marker = "unquote-splice"
		}
		inner, err := p.parseBackquoted(s)
		if err != nil {
			return value.Nil, err
		}
		return quoteForm(p.pkgs, marker, inner), nil
	case c == '(':
		s.Read()
		return p.parseBackquotedList(s)
	case c == '\'':
		s.Read()
		inner, err := p.parseBackquoted(s)
		if err != nil {
			return value.Nil, err
		}
		return quoteForm(p.pkgs, "quote", inner), nil
	case c == '`':
		s.Read()
		inner, err := p.parseBackquoted(s)
		if err != nil {
			return value.Nil, err
		}
		return backquoteRewrite(p.pkgs, inner), nil
	default:
		return p.parseForm(s)
	}
}

func (p *Parser) parseBackquotedList(s *Stream) (value.Value, error) {
	var elems []value.Value
	dotted := false
	var tail value.Value = value.Nil
	for {
		if !p.skipAtmosphere(s) {
			return value.Nil, ErrEOF
		}
		if s.Peek() == ')' {
			s.Read()
			break
		}
		if s.Peek() == '.' && isDelimiterAt(s, 1) {
			s.Read()
			var err error
			tail, err = p.parseBackquoted(s)
			if err != nil {
				return value.Nil, err
			}
			dotted = true
			continue
		}
		if dotted {
			return value.Nil, syntaxErrorf("improperly placed '.'")
		}
		v, err := p.parseBackquoted(s)
		if err != nil {
			return value.Nil, err
		}
		elems = append(elems, v)
	}
	result := tail
	for i := len(elems) - 1; i >= 0; i-- {
		result = value.NewCons(elems[i], result)
	}
	return result, nil
}

// parseAtom tokenizes up to the next whitespace/structural character and
// classifies the token as #t/#f, a number, or a symbol.
func (p *Parser) parseAtom(s *Stream) (value.Value, error) {
	var sb strings.Builder
	for !s.AtEOF() && !isDelimiterAt(s, 0) {
		sb.WriteByte(s.Read())
	}
	tok := sb.String()
	if tok == "" {
		return value.Nil, syntaxErrorf("empty token")
	}
	if strings.HasPrefix(tok, "#") {
		if tok == "#t" || tok == "#T" {
			return value.Bool(true), nil
		}
		return value.Bool(false), nil
	}
	if c := tok[0]; c == '+' || c == '-' || (c >= '0' && c <= '9') {
		if n, err := strconv.ParseInt(tok, 10, 32); err == nil {
			return value.Int(int32(n)), nil
		}
		if strings.ContainsRune(tok, '.') {
			if f, err := strconv.ParseFloat(tok, 32); err == nil {
				return value.Float(float32(f)), nil
			}
		}
	}
	return p.resolveSymbol(tok)
}

// resolveSymbol implements the pkg:name / bare-name / reserved-word rules
// of spec.md §4.2 & §6.
func (p *Parser) resolveSymbol(tok string) (value.Value, error) {
	if reservedWords[tok] {
		return value.FromSymbol(p.pkgs.Global.Intern(tok)), nil
	}
	if strings.HasPrefix(tok, ":") {
		return value.FromSymbol(p.pkgs.Keywords.Intern(tok[1:])), nil
	}
	if i := strings.IndexByte(tok, ':'); i >= 0 {
		pkgName, name := tok[:i], tok[i+1:]
		pkg := p.pkgs.FindOrCreate(pkgName)
		return value.FromSymbol(pkg.Intern(name)), nil
	}
	cur := p.pkgs.Current()
	if sym, ok := cur.FindInChain(tok); ok {
		return value.FromSymbol(sym), nil
	}
	return value.FromSymbol(cur.Intern(tok)), nil
}

func quoteForm(pkgs *value.Packages, head string, x value.Value) value.Value {
	sym := value.FromSymbol(pkgs.Global.Intern(head))
	return value.List(sym, x)
}
