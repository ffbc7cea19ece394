package session

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/goccy/go-yaml"

	"github.com/GriffinCanCode/tabsession/internal/shared/types"
)

// The yaml* types are the on-disk shape of a document. They control scalar
// quoting and tolerate geometry values in foreign formats.

type yamlDocument struct {
	Windows []yamlWindow `yaml:"windows"`
}

type yamlWindow struct {
	Active   bool          `yaml:"active"`
	Geometry *yamlGeometry `yaml:"geometry,omitempty"`
	Tabs     []yamlTab     `yaml:"tabs"`
}

type yamlTab struct {
	Active  bool        `yaml:"active"`
	History []yamlEntry `yaml:"history"`
}

type yamlEntry struct {
	URL         scalar     `yaml:"url"`
	OriginalURL scalar     `yaml:"original-url,omitempty"`
	Title       scalar     `yaml:"title,omitempty"`
	Active      bool       `yaml:"active,omitempty"`
	Zoom        *float64   `yaml:"zoom,omitempty"`
	ScrollPos   *yamlPoint `yaml:"scroll-pos,omitempty"`
}

type yamlPoint struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

type yamlGeometry struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// UnmarshalYAML drops a geometry value that isn't an {x, y, width, height}
// mapping, e.g. a binary blob written by another browser.
func (w *yamlWindow) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plain yamlWindow
	if err := unmarshal((*plain)(w)); err == nil {
		return nil
	}

	var rest struct {
		Active bool      `yaml:"active"`
		Tabs   []yamlTab `yaml:"tabs"`
	}
	if err := unmarshal(&rest); err != nil {
		return err
	}
	*w = yamlWindow{Active: rest.Active, Tabs: rest.Tabs}
	return nil
}

// MarshalYAML writes the point as a flow mapping with plain keys
func (p yamlPoint) MarshalYAML() ([]byte, error) {
	return []byte(fmt.Sprintf("{x: %d, y: %d}", p.X, p.Y)), nil
}

// MarshalYAML writes the geometry as a flow mapping with plain keys
func (g yamlGeometry) MarshalYAML() ([]byte, error) {
	return []byte(fmt.Sprintf("{x: %d, y: %d, width: %d, height: %d}", g.X, g.Y, g.Width, g.Height)), nil
}

// scalar is a string that is written plain only when it reads back unchanged
type scalar string

// MarshalYAML implements yaml.BytesMarshaler
func (s scalar) MarshalYAML() ([]byte, error) {
	v := string(s)
	if plainSafe(v) {
		return yaml.Marshal(v)
	}
	return []byte(doubleQuoted(v)), nil
}

func plainSafe(v string) bool {
	for _, r := range v {
		if needsEscape(r) {
			return false
		}
	}
	out, err := yaml.Marshal(v)
	if err != nil {
		return false
	}
	var back string
	return yaml.Unmarshal(out, &back) == nil && back == v
}

func needsEscape(r rune) bool {
	return r != ' ' && !unicode.IsPrint(r)
}

// doubleQuoted renders v as a YAML double-quoted scalar
func doubleQuoted(v string) string {
	var b strings.Builder
	b.Grow(len(v) + 2)
	b.WriteByte('"')
	for _, r := range v {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			switch {
			case !needsEscape(r):
				b.WriteRune(r)
			case r > 0xFFFF:
				fmt.Fprintf(&b, `\U%08X`, r)
			default:
				fmt.Fprintf(&b, `\u%04X`, r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

func toYAML(doc *types.Document) yamlDocument {
	out := yamlDocument{Windows: make([]yamlWindow, len(doc.Windows))}
	for wi, win := range doc.Windows {
		w := yamlWindow{Active: win.Active, Tabs: make([]yamlTab, len(win.Tabs))}
		if g := win.Geometry; g != nil {
			w.Geometry = &yamlGeometry{X: g.X, Y: g.Y, Width: g.Width, Height: g.Height}
		}
		for ti, tab := range win.Tabs {
			t := yamlTab{Active: tab.Active, History: make([]yamlEntry, len(tab.History))}
			for hi, e := range tab.History {
				entry := yamlEntry{
					URL:         scalar(validText(e.URL)),
					OriginalURL: scalar(validText(e.OriginalURL)),
					Title:       scalar(validText(e.Title)),
					Active:      e.Active,
				}
				if e.Zoom != nil {
					z := *e.Zoom
					entry.Zoom = &z
				}
				if e.ScrollPos != nil {
					entry.ScrollPos = &yamlPoint{X: e.ScrollPos.X, Y: e.ScrollPos.Y}
				}
				t.History[hi] = entry
			}
			w.Tabs[ti] = t
		}
		out.Windows[wi] = w
	}
	return out
}

func (d yamlDocument) toDocument() *types.Document {
	doc := &types.Document{}
	for _, win := range d.Windows {
		w := types.Window{Active: win.Active}
		if g := win.Geometry; g != nil {
			w.Geometry = &types.Geometry{X: g.X, Y: g.Y, Width: g.Width, Height: g.Height}
		}
		for _, tab := range win.Tabs {
			t := types.Tab{Active: tab.Active}
			for _, e := range tab.History {
				entry := types.HistoryEntry{
					URL:         string(e.URL),
					OriginalURL: string(e.OriginalURL),
					Title:       string(e.Title),
					Active:      e.Active,
					Zoom:        e.Zoom,
				}
				if e.ScrollPos != nil {
					entry.ScrollPos = &types.Point{X: e.ScrollPos.X, Y: e.ScrollPos.Y}
				}
				t.History = append(t.History, entry)
			}
			w.Tabs = append(w.Tabs, t)
		}
		doc.Windows = append(doc.Windows, w)
	}
	return doc
}
