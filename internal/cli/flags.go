package cli

import (
	"github.com/vburojevic/logview/internal/domain"
	"github.com/vburojevic/logview/internal/filter"
	"github.com/vburojevic/logview/internal/output"
)

// ScanFlags groups the flags that describe a scan request. tail sends them
// to a server, scan runs them locally.
type ScanFlags struct {
	Procedure string   `short:"P" default:"read" enum:"read,search,searchSmart" help:"Scan procedure: read, search (per line) or searchSmart (per entry)"`
	Direction string   `short:"d" default:"forward" enum:"forward,backward" help:"Reading direction"`
	Lines     int      `short:"n" default:"-1" help:"Lines to send before end of request (negative: unlimited)"`
	FromTail  bool     `short:"t" help:"Measure --offset from the end of the file"`
	Offset    int64    `help:"Byte offset to start from"`
	Skip      int      `help:"Lines to skip after the offset (negative skips toward the start)"`
	Follow    bool     `short:"F" help:"Keep streaming lines appended to the file (forward only)"`
	Search    []string `short:"s" help:"Search term (can be repeated, all must appear)"`
}

// startFrame builds the wire form of the request for path
func (f ScanFlags) startFrame(path string) output.StartFrame {
	sf := output.StartFrame{
		Status:      output.StatusStart,
		Path:        path,
		Procedure:   f.Procedure,
		Direction:   f.Direction,
		OffsetBytes: f.Offset,
		SkipLines:   f.Skip,
		Follow:      f.Follow,
		Search:      f.Search,
	}
	if f.FromTail {
		sf.OffsetStart = string(domain.Tail)
	}
	lines := f.Lines
	sf.Lines = &lines
	return sf
}

// FilterFlags groups group-filtering flags applied on top of search terms.
type FilterFlags struct {
	Pattern []string `short:"p" aliases:"filter" help:"Regex pattern (can be repeated); a line or entry passes if any pattern matches one of its lines"`
	Exclude []string `short:"x" help:"Regex pattern to exclude (can be repeated)"`
	Where   []string `short:"w" help:"Field filter (e.g., 'lines>=3', 'text~timeout'). Fields: text, first, pos, len, lines. Operators: =, !=, ~, !~, >=, <=, ^, $"`
}

// buildFilters compiles the filter flags; it returns nil when none are set.
func (f FilterFlags) buildFilters() (filter.Filter, error) {
	p, err := filter.CompilePipeline(f.Pattern, f.Exclude, f.Where)
	if err != nil || p == nil {
		return nil, err
	}
	return p, nil
}
