package pdf

import (
	"bytes"
	"fmt"
	"strconv"
)

type operandKind int

const (
	operandNumber operandKind = iota
	operandName
	operandString
	operandArray
	operandKeyword // true, false, null and dictionaries, kept as raw text
)

// operand is one argument of a content stream operator
type operand struct {
	kind  operandKind
	num   float64
	str   string // name without the slash, decoded string bytes or raw text
	elems []operand
}

// operation is an operator with the operands preceding it
type operation struct {
	op       string
	operands []operand
}

// numbers returns the operands as numbers if all of them are numbers
func (o operation) numbers() ([]float64, bool) {
	vals := make([]float64, len(o.operands))
	for i, arg := range o.operands {
		if arg.kind != operandNumber {
			return nil, false
		}
		vals[i] = arg.num
	}
	return vals, true
}

// opScanner splits content stream data, or a fragment such as a /DA
// string, into operations
type opScanner struct {
	data []byte
	pos  int
}

func scanOperations(data []byte) ([]operation, error) {
	s := &opScanner{data: data}
	var ops []operation
	var args []operand
	for {
		s.skipWhitespaceAndComments()
		if s.pos >= len(s.data) {
			return ops, nil
		}
		if isOperatorStart(s.data[s.pos]) {
			kw := s.readKeyword()
			switch kw {
			case "true", "false", "null":
				args = append(args, operand{kind: operandKeyword, str: kw})
				continue
			case "ID":
				s.skipInlineImage()
			}
			ops = append(ops, operation{op: kw, operands: args})
			args = nil
			continue
		}
		arg, err := s.readOperand()
		if err != nil {
			return ops, err
		}
		args = append(args, arg)
	}
}

func isOperatorStart(ch byte) bool {
	return !isDelimiter(ch) && !isWhitespace(ch) && !isNumberStart(ch)
}

func isNumberStart(ch byte) bool {
	return ch == '+' || ch == '-' || ch == '.' || (ch >= '0' && ch <= '9')
}

func (s *opScanner) readOperand() (operand, error) {
	switch ch := s.data[s.pos]; {
	case ch == '/':
		return operand{kind: operandName, str: s.readName()}, nil
	case ch == '(':
		s.pos++
		return operand{kind: operandString, str: string(s.readLiteral(true))}, nil
	case ch == '<' && s.pos+1 < len(s.data) && s.data[s.pos+1] == '<':
		return operand{kind: operandKeyword, str: s.readDict()}, nil
	case ch == '<':
		str, err := s.readHexString()
		return operand{kind: operandString, str: str}, err
	case ch == '[':
		return s.readArray()
	case isNumberStart(ch):
		return s.readNumber()
	default:
		s.pos++
		return operand{}, fmt.Errorf("unexpected %q at offset %d", ch, s.pos-1)
	}
}

func (s *opScanner) skipWhitespaceAndComments() {
	for s.pos < len(s.data) {
		ch := s.data[s.pos]
		switch {
		case isWhitespace(ch):
			s.pos++
		case ch == '%':
			for s.pos < len(s.data) && s.data[s.pos] != '\n' && s.data[s.pos] != '\r' {
				s.pos++
			}
		default:
			return
		}
	}
}

func (s *opScanner) readNumber() (operand, error) {
	start := s.pos
	for s.pos < len(s.data) && isNumberStart(s.data[s.pos]) {
		s.pos++
	}
	str := string(s.data[start:s.pos])
	f, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return operand{}, fmt.Errorf("invalid number: %s", str)
	}
	return operand{kind: operandNumber, num: f}, nil
}

// readLiteral reads a literal string body up to its closing parenthesis,
// or to the end of data when closed is false, resolving escapes
func (s *opScanner) readLiteral(closed bool) []byte {
	var buf []byte
	depth := 1
	for s.pos < len(s.data) {
		ch := s.data[s.pos]
		s.pos++
		switch ch {
		case '\\':
			if s.pos >= len(s.data) {
				return buf
			}
			buf = s.readEscape(buf)
		case '(':
			depth++
			buf = append(buf, ch)
		case ')':
			depth--
			if closed && depth == 0 {
				return buf
			}
			buf = append(buf, ch)
		default:
			buf = append(buf, ch)
		}
	}
	return buf
}

func (s *opScanner) readEscape(buf []byte) []byte {
	ch := s.data[s.pos]
	s.pos++
	switch ch {
	case 'n':
		return append(buf, '\n')
	case 'r':
		return append(buf, '\r')
	case 't':
		return append(buf, '\t')
	case 'b':
		return append(buf, '\b')
	case 'f':
		return append(buf, '\f')
	case '\r':
		// line continuation, \r\n counts as one end of line
		if s.pos < len(s.data) && s.data[s.pos] == '\n' {
			s.pos++
		}
		return buf
	case '\n':
		return buf
	}
	if ch < '0' || ch > '7' {
		return append(buf, ch)
	}
	val := int(ch - '0')
	for i := 0; i < 2 && s.pos < len(s.data); i++ {
		d := s.data[s.pos]
		if d < '0' || d > '7' {
			break
		}
		val = val*8 + int(d-'0')
		s.pos++
	}
	return append(buf, byte(val))
}

func (s *opScanner) readHexString() (string, error) {
	s.pos++ // <
	end := bytes.IndexByte(s.data[s.pos:], '>')
	if end < 0 {
		s.pos = len(s.data)
		return "", fmt.Errorf("unterminated hex string")
	}
	var digits []byte
	for _, ch := range s.data[s.pos : s.pos+end] {
		if isHexDigit(ch) {
			digits = append(digits, ch)
		} else if !isWhitespace(ch) {
			s.pos += end + 1
			return "", fmt.Errorf("invalid character in hex string: %c", ch)
		}
	}
	s.pos += end + 1
	if len(digits)%2 != 0 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	for i := range out {
		v, _ := strconv.ParseUint(string(digits[i*2:i*2+2]), 16, 8)
		out[i] = byte(v)
	}
	return string(out), nil
}

func (s *opScanner) readName() string {
	s.pos++ // /
	var buf []byte
	for s.pos < len(s.data) {
		ch := s.data[s.pos]
		if isDelimiter(ch) || isWhitespace(ch) {
			break
		}
		s.pos++
		if ch == '#' && s.pos+2 <= len(s.data) {
			if v, err := strconv.ParseUint(string(s.data[s.pos:s.pos+2]), 16, 8); err == nil {
				buf = append(buf, byte(v))
				s.pos += 2
				continue
			}
		}
		buf = append(buf, ch)
	}
	return string(buf)
}

func (s *opScanner) readKeyword() string {
	start := s.pos
	for s.pos < len(s.data) && !isDelimiter(s.data[s.pos]) && !isWhitespace(s.data[s.pos]) {
		s.pos++
	}
	return string(s.data[start:s.pos])
}

func (s *opScanner) readArray() (operand, error) {
	s.pos++ // [
	arr := operand{kind: operandArray}
	for {
		s.skipWhitespaceAndComments()
		if s.pos >= len(s.data) {
			return arr, fmt.Errorf("unterminated array")
		}
		if s.data[s.pos] == ']' {
			s.pos++
			return arr, nil
		}
		var elem operand
		var err error
		if isOperatorStart(s.data[s.pos]) {
			elem = operand{kind: operandKeyword, str: s.readKeyword()}
		} else if elem, err = s.readOperand(); err != nil {
			return arr, err
		}
		arr.elems = append(arr.elems, elem)
	}
}

// readDict skips a dictionary operand, as used by BDC and inline images,
// and returns its raw text
func (s *opScanner) readDict() string {
	start := s.pos
	depth := 0
	for s.pos < len(s.data) {
		switch {
		case bytes.HasPrefix(s.data[s.pos:], []byte("<<")):
			depth++
			s.pos += 2
		case bytes.HasPrefix(s.data[s.pos:], []byte(">>")):
			depth--
			s.pos += 2
			if depth == 0 {
				return string(s.data[start:s.pos])
			}
		case s.data[s.pos] == '(':
			s.pos++
			s.readLiteral(true)
		default:
			s.pos++
		}
	}
	return string(s.data[start:])
}

// skipInlineImage moves past the binary data following an ID operator
func (s *opScanner) skipInlineImage() {
	for s.pos < len(s.data) {
		i := bytes.Index(s.data[s.pos:], []byte("EI"))
		if i < 0 {
			s.pos = len(s.data)
			return
		}
		s.pos += i + 2
		if s.pos >= 3 && isWhitespace(s.data[s.pos-3]) && (s.pos == len(s.data) || isWhitespace(s.data[s.pos])) {
			return
		}
	}
}

func isWhitespace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' || ch == '\f' || ch == 0
}

func isDelimiter(ch byte) bool {
	return ch == '(' || ch == ')' || ch == '<' || ch == '>' ||
		ch == '[' || ch == ']' || ch == '{' || ch == '}' ||
		ch == '/' || ch == '%'
}

func isHexDigit(ch byte) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'A' && ch <= 'F') || (ch >= 'a' && ch <= 'f')
}
