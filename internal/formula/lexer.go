package formula

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// TokenKind is the lexical class of a token.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokNumber
	TokString
	TokIdent
	TokKeyword
	TokOp
	TokLParen
	TokRParen
	TokLBracket
	TokRBracket
	TokComma
	TokColon
)

func (k TokenKind) String() string {
	switch k {
	case TokEOF:
		return "end of input"
	case TokNumber:
		return "number"
	case TokString:
		return "string"
	case TokIdent:
		return "name"
	case TokKeyword:
		return "keyword"
	case TokOp:
		return "operator"
	case TokLParen:
		return "'('"
	case TokRParen:
		return "')'"
	case TokLBracket:
		return "'['"
	case TokRBracket:
		return "']'"
	case TokComma:
		return "','"
	case TokColon:
		return "':'"
	}
	return "token"
}

// Token is one lexeme with its byte offset in the source.
type Token struct {
	Kind TokenKind
	Text string
	Pos  int
}

var keywords = map[string]bool{
	"for": true, "in": true, "if": true,
	"and": true, "or": true, "not": true,
	"True": true, "False": true,
}

// two-character operators are matched before single characters
var operators = []string{"**", "<=", ">=", "==", "!=", "+", "-", "*", "/", "<", ">"}

// Tokenize splits one formula into tokens. A '#' starts a comment that runs
// to the end of the input.
func Tokenize(src string) ([]Token, error) {
	var toks []Token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++
		case c == '#':
			i = len(src)
		case c == '(':
			toks = append(toks, Token{TokLParen, "(", i})
			i++
		case c == ')':
			toks = append(toks, Token{TokRParen, ")", i})
			i++
		case c == '[':
			toks = append(toks, Token{TokLBracket, "[", i})
			i++
		case c == ']':
			toks = append(toks, Token{TokRBracket, "]", i})
			i++
		case c == ',':
			toks = append(toks, Token{TokComma, ",", i})
			i++
		case c == ':':
			toks = append(toks, Token{TokColon, ":", i})
			i++
		case c == '\'' || c == '"':
			end := strings.IndexByte(src[i+1:], c)
			if end < 0 {
				return nil, errors.Errorf("unterminated string at column %d", i+1)
			}
			toks = append(toks, Token{TokString, src[i+1 : i+1+end], i})
			i += end + 2
		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			start := i
			i = scanNumber(src, i)
			toks = append(toks, Token{TokNumber, src[start:i], start})
		case isIdentStart(src[i:]):
			start := i
			for i < len(src) {
				r, size := utf8.DecodeRuneInString(src[i:])
				if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
					break
				}
				i += size
			}
			word := src[start:i]
			kind := TokIdent
			if keywords[word] {
				kind = TokKeyword
			}
			toks = append(toks, Token{kind, word, start})
		default:
			matched := false
			for _, op := range operators {
				if strings.HasPrefix(src[i:], op) {
					toks = append(toks, Token{TokOp, op, i})
					i += len(op)
					matched = true
					break
				}
			}
			if !matched {
				return nil, errors.Errorf("unexpected character %q at column %d", c, i+1)
			}
		}
	}
	toks = append(toks, Token{TokEOF, "", len(src)})
	return toks, nil
}

func isIdentStart(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r == '_' || unicode.IsLetter(r)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// scanNumber consumes digits, an optional fraction and an optional exponent.
func scanNumber(src string, i int) int {
	for i < len(src) && isDigit(src[i]) {
		i++
	}
	if i < len(src) && src[i] == '.' {
		i++
		for i < len(src) && isDigit(src[i]) {
			i++
		}
	}
	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if j < len(src) && isDigit(src[j]) {
			i = j
			for i < len(src) && isDigit(src[i]) {
				i++
			}
		}
	}
	return i
}
