// Package reader implements FileReader (spec.md §4.1): a streamed line
// iterator across a stack of files, supporting INCLUDE-driven prepend.
//
// Position tracking (path and 1-based line per file) is grounded on
// teacher's lexer.Lexer cursor in lexer/lexer.go; the stack-of-files
// structure is new (the teacher's Lexer only ever scans one in-memory
// buffer), and afero.Fs replaces the teacher's bare os.ReadFile so
// callers can point FileReader at an in-memory filesystem in tests.
package reader

import (
	"bufio"
	"bytes"
	"io"
	"os"

	"github.com/spf13/afero"

	"github.com/codingersid/blocktemplate/errs"
)

// Position locates a line within its originating file, for diagnostics.
type Position struct {
	Path string
	Line int
}

// Line is one logical line (including its trailing newline, where
// present) together with where it came from.
type Line struct {
	Text string
	Pos  Position
}

type openFile struct {
	path    string
	scanner *bufio.Scanner
	line    int
}

// FileReader streams lines across a stack of open files.
type FileReader struct {
	fs    afero.Fs
	stack []*openFile
}

// New opens the initial file and returns a FileReader positioned at its
// first line. fs may be nil, in which case the OS filesystem is used.
func New(fs afero.Fs, path string) (*FileReader, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	r := &FileReader{fs: fs}
	if err := r.prependOpen(path); err != nil {
		return nil, err
	}
	return r, nil
}

// Prepend pushes a new file onto the stack; the next Fetch returns the
// first line of the pushed file. Used to implement
// "<!-- INCLUDE BLOCK: relative/path -->".
func (r *FileReader) Prepend(path string) error {
	return r.prependOpen(path)
}

func (r *FileReader) prependOpen(path string) error {
	f, err := r.fs.Open(path)
	if err != nil {
		if os.IsPermission(err) {
			return errs.Wrap(errs.PermissionDenied, path, err)
		}
		return errs.Wrap(errs.FileNotFound, path, err)
	}

	content, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return errs.Wrap(errs.FileNotFound, path, err)
	}
	content = stripBOM(content)

	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	sc.Split(scanLinesKeepNewline)

	r.stack = append(r.stack, &openFile{path: path, scanner: sc})
	return nil
}

// Fetch returns the next logical line from the top of the file stack,
// transparently popping exhausted files. Returns (Line{}, false) at
// overall end of input.
func (r *FileReader) Fetch() (Line, bool) {
	for len(r.stack) > 0 {
		top := r.stack[len(r.stack)-1]
		if top.scanner.Scan() {
			top.line++
			return Line{Text: top.scanner.Text(), Pos: Position{Path: top.path, Line: top.line}}, true
		}
		r.stack = r.stack[:len(r.stack)-1]
	}
	return Line{}, false
}

// stripBOM removes a leading UTF-8 byte-order mark, per spec.md §6
// "File encoding. UTF-8. A leading UTF-8 BOM must be stripped before
// parsing."
func stripBOM(b []byte) []byte {
	bom := []byte{0xEF, 0xBB, 0xBF}
	if bytes.HasPrefix(b, bom) {
		return b[len(bom):]
	}
	return b
}

// scanLinesKeepNewline is like bufio.ScanLines but keeps the trailing
// newline, matching spec.md §4.1 ("including trailing newline where
// present").
func scanLinesKeepNewline(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[0 : i+1], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
