package history

import (
	"bufio"
	"encoding/xml"
	"io"
	"strings"
	"time"
)

const itemElementName = "HistoryItem"

type itemField struct {
	name string
	get  func(*Item) string
	set  func(*Item, string)
}

// order in which fields are written
var itemFields = []itemField{
	{"Filename", func(it *Item) string { return it.Filename }, func(it *Item, s string) { it.Filename = s }},
	{"Filepath", func(it *Item) string { return it.Filepath }, func(it *Item, s string) { it.Filepath = s }},
	{"DateTimeUtc", func(it *Item) string { return formatTime(it.DateTime) }, func(it *Item, s string) { it.DateTime = parseTime(s) }},
	{"Type", func(it *Item) string { return it.Type }, func(it *Item, s string) { it.Type = s }},
	{"Host", func(it *Item) string { return it.Host }, func(it *Item, s string) { it.Host = s }},
	{"URL", func(it *Item) string { return it.URL }, func(it *Item, s string) { it.URL = s }},
	{"ThumbnailURL", func(it *Item) string { return it.ThumbnailURL }, func(it *Item, s string) { it.ThumbnailURL = s }},
	{"DeletionURL", func(it *Item) string { return it.DeletionURL }, func(it *Item, s string) { it.DeletionURL = s }},
	{"ShortenedURL", func(it *Item) string { return it.ShortenedURL }, func(it *Item, s string) { it.ShortenedURL = s }},
}

// element name => setter, unknown elements are ignored
var itemFieldSetters = func() map[string]func(*Item, string) {
	m := map[string]func(*Item, string){}
	for _, f := range itemFields {
		m[f.name] = f.set
	}
	return m
}()

// layouts accepted for DateTimeUtc, in order of likelihood.
// time.Parse accepts fractional seconds even if the layout has none.
// Layouts without a zone are interpreted as UTC.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime returns zero time if s can't be parsed
func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func encodeItem(enc *xml.Encoder, it *Item) error {
	start := xml.StartElement{Name: xml.Name{Local: itemElementName}}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, f := range itemFields {
		v := f.get(it)
		if v == "" {
			continue
		}
		el := xml.StartElement{Name: xml.Name{Local: f.name}}
		if err := enc.EncodeToken(el); err != nil {
			return err
		}
		if err := enc.EncodeToken(xml.CharData(v)); err != nil {
			return err
		}
		if err := enc.EncodeToken(el.End()); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// EncodeItems writes items as a sequence of <HistoryItem> elements
// indented with 4 spaces, followed by a newline.
// Fields with empty values are not written. nil items are skipped.
func EncodeItems(w io.Writer, items ...*Item) error {
	enc := xml.NewEncoder(w)
	enc.Indent("", "    ")
	for _, it := range items {
		if it == nil {
			continue
		}
		if err := encodeItem(enc, it); err != nil {
			return err
		}
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

type rawField struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type rawItem struct {
	Fields []rawField `xml:",any"`
}

func (r *rawItem) toItem() *Item {
	it := &Item{}
	for _, f := range r.Fields {
		if set := itemFieldSetters[f.XMLName.Local]; set != nil {
			set(it, f.Value)
		}
	}
	return it
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func skipBOM(br *bufio.Reader) {
	d, err := br.Peek(len(utf8BOM))
	if err == nil && string(d) == string(utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
}

// DecodeItems reads all <HistoryItem> elements from r in order.
// The data doesn't need a root element: a bare sequence of items, as
// written by EncodeItems, is the normal case. Items nested in other
// elements are also found. Anything that is not an item is skipped.
func DecodeItems(r io.Reader) ([]*Item, error) {
	br := bufio.NewReader(r)
	skipBOM(br)
	d := xml.NewDecoder(br)
	var res []*Item
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return res, nil
		}
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != itemElementName {
			continue
		}
		var raw rawItem
		if err = d.DecodeElement(&raw, &se); err != nil {
			return nil, err
		}
		res = append(res, raw.toItem())
	}
}
