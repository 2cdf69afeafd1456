package parser

import (
	"fmt"
	"strings"

	"github.com/gerrardelliot83-create/bankrecon/internal/domain"
)

// ofxHeader is the synthetic header emitted for OFX files. The column
// mapper recognizes these names directly (DTPOSTED, NAME, TRNAMT,
// FITID), so inference works on OFX exactly as on CSV.
var ofxHeader = []string{"DTPOSTED", "NAME", "TRNAMT", "FITID"}

// ofxSource extracts <STMTTRN> blocks from OFX/QFX exports and presents
// them as tabular rows. OFX 1.x is SGML - closing tags on value lines
// are optional - so this scans tags line-wise instead of using an XML
// parser.
type ofxSource struct{}

func (s *ofxSource) Format() domain.FileType { return domain.FileTypeOFX }

func (s *ofxSource) Rows(data []byte) ([]string, [][]string, error) {
	text := string(data)
	if !strings.Contains(strings.ToUpper(text), "<STMTTRN>") {
		return nil, nil, fmt.Errorf("%w: no STMTTRN records", domain.ErrUnparsableFile)
	}

	var rows [][]string
	var current map[string]string

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		upper := strings.ToUpper(line)

		switch {
		case upper == "<STMTTRN>":
			current = make(map[string]string)
		case upper == "</STMTTRN>":
			if current != nil {
				rows = append(rows, ofxRecord(current))
				current = nil
			}
		case current != nil && strings.HasPrefix(line, "<"):
			tag, value, ok := splitOFXTag(line)
			if ok {
				current[tag] = value
			}
		}
	}

	// Unterminated trailing block still counts.
	if current != nil {
		rows = append(rows, ofxRecord(current))
	}

	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%w: no STMTTRN records", domain.ErrUnparsableFile)
	}

	return ofxHeader, rows, nil
}

func ofxRecord(fields map[string]string) []string {
	desc := fields["NAME"]
	if memo := fields["MEMO"]; memo != "" {
		if desc == "" {
			desc = memo
		} else if !strings.EqualFold(desc, memo) {
			desc = desc + " " + memo
		}
	}

	// DTPOSTED carries an optional time and timezone suffix; keep the
	// date part only.
	date := fields["DTPOSTED"]
	if len(date) > 8 {
		date = date[:8]
	}

	return []string{date, desc, fields["TRNAMT"], fields["FITID"]}
}

func splitOFXTag(line string) (tag, value string, ok bool) {
	end := strings.IndexByte(line, '>')
	if end <= 1 {
		return "", "", false
	}
	tag = strings.ToUpper(line[1:end])
	if strings.HasPrefix(tag, "/") {
		return "", "", false
	}
	value = strings.TrimSpace(line[end+1:])
	// Strip an optional closing tag on the same line.
	if i := strings.IndexByte(value, '<'); i >= 0 {
		value = strings.TrimSpace(value[:i])
	}
	return tag, value, value != ""
}
