package routing

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/distsim/distsim/sim"
)

// LoadFile reads a route file (spec §6: ASCII, one route per line, single
// spaces, "\n"-terminated; first two tokens src/dst, remaining tokens the
// hop list) and returns a populated Table. Empty lines and comments are
// not supported — a blank line is a malformed-route configuration error.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, sim.NewConfigError("routing.LoadFile", err)
	}
	defer f.Close()

	t, err := LoadReader(f)
	if err != nil {
		return nil, sim.NewConfigError("routing.LoadFile", fmt.Errorf("%s: %w", path, err))
	}
	return t, nil
}

// LoadReader parses route lines from r into a new Table.
func LoadReader(r io.Reader) (*Table, error) {
	t := NewTable()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			return nil, fmt.Errorf("line %d: empty lines are not supported in a route file", lineNo)
		}
		src, dst, hops, err := parseRouteLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		t.Add(src, dst, hops)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

func parseRouteLine(line string) (src, dst sim.Sid, hops Route, err error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return 0, 0, nil, fmt.Errorf("want at least 3 tokens (src dst hop...), got %d", len(fields))
	}
	s, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("src %q: %w", fields[0], err)
	}
	d, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("dst %q: %w", fields[1], err)
	}
	src, dst = sim.Sid(s), sim.Sid(d)

	hops = make(Route, 0, len(fields)-2)
	for _, tok := range fields[2:] {
		h, err := strconv.ParseUint(tok, 10, 32)
		if err != nil {
			return 0, 0, nil, fmt.Errorf("hop %q: %w", tok, err)
		}
		hop := sim.Sid(h)
		if hop == src || hop == dst {
			return 0, 0, nil, fmt.Errorf("hop %d must not equal src or dst", hop)
		}
		hops = append(hops, hop)
	}
	return src, dst, hops, nil
}
