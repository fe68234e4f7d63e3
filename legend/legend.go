// Package legend maps GLCC category codes to class names.
package legend

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMalformed is returned for legend lines that are not "<code> <name>".
var ErrMalformed = errors.New("legend: malformed line")

// headerLines is the number of lines, title included, before the first class.
const headerLines = 4

// NoData is the code GLCC uses for cells without data.
const NoData = 100

// Legend is an immutable code to class name table.
type Legend struct {
	Name    string
	classes map[int]string
	codes   []int
}

// New builds a legend from a code to name map. The map is copied.
func New(name string, classes map[int]string) *Legend {
	l := &Legend{Name: name, classes: make(map[int]string, len(classes))}
	for code, class := range classes {
		l.classes[code] = class
		l.codes = append(l.codes, code)
	}
	sort.Ints(l.codes)
	return l
}

// Lookup returns the class name of code.
func (l *Legend) Lookup(code int) (string, bool) {
	name, ok := l.classes[code]
	return name, ok
}

// Len is the number of classes.
func (l *Legend) Len() int { return len(l.codes) }

// Codes returns the codes in ascending order.
func (l *Legend) Codes() []int {
	out := make([]int, len(l.codes))
	copy(out, l.codes)
	return out
}

// Names returns the class names in the order of Codes.
func (l *Legend) Names() []string {
	out := make([]string, len(l.codes))
	for i, c := range l.codes {
		out[i] = l.classes[c]
	}
	return out
}

// Map returns a copy of the table.
func (l *Legend) Map() map[int]string {
	out := make(map[int]string, len(l.classes))
	for k, v := range l.classes {
		out[k] = v
	}
	return out
}

// Parse reads a legend file: the first line is the title, the first four
// lines are header, and every following line is "<code> <name>". Blank
// lines are skipped.
func Parse(r io.Reader) (string, map[int]string, error) {
	sc := bufio.NewScanner(r)
	var name string
	classes := make(map[int]string)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if lineNo == 1 {
			name = line
		}
		if lineNo <= headerLines || line == "" {
			continue
		}
		codeText, class, ok := strings.Cut(line, " ")
		if !ok {
			return "", nil, fmt.Errorf("%w %d: %q", ErrMalformed, lineNo, line)
		}
		code, err := strconv.Atoi(codeText)
		if err != nil {
			return "", nil, fmt.Errorf("%w %d: code %q: %v", ErrMalformed, lineNo, codeText, err)
		}
		classes[code] = class
	}
	if err := sc.Err(); err != nil {
		return "", nil, err
	}
	return name, classes, nil
}

// ParseFile parses the legend file at path.
func ParseFile(path string) (*Legend, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	name, classes, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return New(name, classes), nil
}

type yamlLegend struct {
	Name    string         `yaml:"name"`
	Classes map[int]string `yaml:"classes"`
}

// MarshalYAML renders the legend as a name and a code keyed class map.
func (l *Legend) MarshalYAML() (interface{}, error) {
	return yamlLegend{Name: l.Name, Classes: l.classes}, nil
}

// UnmarshalYAML reads the MarshalYAML layout back.
func (l *Legend) UnmarshalYAML(value *yaml.Node) error {
	var y yamlLegend
	if err := value.Decode(&y); err != nil {
		return err
	}
	*l = *New(y.Name, y.Classes)
	return nil
}
