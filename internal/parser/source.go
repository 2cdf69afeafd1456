package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/gerrardelliot83-create/bankrecon/internal/domain"
)

// RowSource turns raw file bytes into a header plus tabular rows. One
// implementation per supported file type; unknown types are rejected at
// the registry.
type RowSource interface {
	Rows(data []byte) (header []string, rows [][]string, err error)
	Format() domain.FileType
}

// Registry holds the closed set of row sources.
type Registry struct {
	sources map[domain.FileType]RowSource
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[domain.FileType]RowSource)}
}

// Register adds a source. Panics on duplicate format.
func (r *Registry) Register(s RowSource) {
	if _, ok := r.sources[s.Format()]; ok {
		panic("duplicate row source format: " + string(s.Format()))
	}
	r.sources[s.Format()] = s
}

// Get returns the source for the file type, or nil.
func (r *Registry) Get(ft domain.FileType) RowSource {
	return r.sources[ft]
}

// DefaultRegistry returns a registry with all built-in sources.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&csvSource{})
	r.Register(&ofxSource{})
	r.Register(&pdfSource{})
	return r
}

// csvSource reads delimited text files. The delimiter is sniffed from
// the header line (comma, semicolon, tab or pipe).
type csvSource struct{}

func (s *csvSource) Format() domain.FileType { return domain.FileTypeCSV }

func (s *csvSource) Rows(data []byte) ([]string, [][]string, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if !utf8.Valid(data) {
		return nil, nil, fmt.Errorf("%w: not valid UTF-8", domain.ErrUnparsableFile)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading header: %v", domain.ErrUnparsableFile, err)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed line; the caller counts it as a row error.
			rows = append(rows, nil)
			continue
		}
		rows = append(rows, record)
	}

	return header, rows, nil
}

func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}

	best, bestCount := ',', strings.Count(string(line), ",")
	for _, d := range []rune{';', '\t', '|'} {
		if n := strings.Count(string(line), string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
