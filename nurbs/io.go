package nurbs

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// tokenReader scans whitespace separated tokens from a stream. All read
// failures are treated as fatal format errors, matching the panic on bad
// input convention used by the mesh readers.
type tokenReader struct {
	scanner *bufio.Scanner
}

func newTokenReader(r io.Reader) *tokenReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024), 1024*1024)
	scanner.Split(bufio.ScanWords)
	return &tokenReader{scanner: scanner}
}

// tryReadString returns the next token, or ok = false at a clean end of
// input. The optional trailing mesh blocks are read through it.
func (tr *tokenReader) tryReadString() (string, bool) {
	if !tr.scanner.Scan() {
		if err := tr.scanner.Err(); err != nil {
			panic(fmt.Errorf("tokenReader: read error: %v", err))
		}
		return "", false
	}
	return tr.scanner.Text(), true
}

func (tr *tokenReader) readString() string {
	tok, ok := tr.tryReadString()
	if !ok {
		panic(fmt.Errorf("tokenReader: unexpected end of input"))
	}
	return tok
}

func (tr *tokenReader) readInt() int {
	tok := tr.readString()
	n, err := strconv.Atoi(tok)
	if err != nil {
		panic(fmt.Errorf("tokenReader: expected integer, got %q", tok))
	}
	return n
}

func (tr *tokenReader) readFloat() float64 {
	tok := tr.readString()
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		panic(fmt.Errorf("tokenReader: expected float, got %q", tok))
	}
	return f
}

func (tr *tokenReader) expect(ident string) {
	if tok := tr.readString(); tok != ident {
		panic(fmt.Errorf("tokenReader: expected %q, got %q", ident, tok))
	}
}
