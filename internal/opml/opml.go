// Package opml exchanges activity columns with feed readers through OPML files.
package opml

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"
)

// OPML represents the root of an OPML document.
type OPML struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    Head     `xml:"head"`
	Body    Body     `xml:"body"`
}

// Head contains OPML metadata.
type Head struct {
	Title       string `xml:"title,omitempty"`
	DateCreated string `xml:"dateCreated,omitempty"`
}

// Body contains the outlines.
type Body struct {
	Outlines []Outline `xml:"outline"`
}

// Outline is a group or a feed. Feeds carry an xmlUrl.
type Outline struct {
	Text     string    `xml:"text,attr"`
	Title    string    `xml:"title,attr,omitempty"`
	Type     string    `xml:"type,attr,omitempty"`
	XMLURL   string    `xml:"xmlUrl,attr,omitempty"`
	HTMLURL  string    `xml:"htmlUrl,attr,omitempty"`
	Outlines []Outline `xml:"outline,omitempty"`
}

// Entry is a feed outline together with the group it was listed under.
type Entry struct {
	Group   string
	Title   string
	URL     string
	HTMLURL string
}

// Parse reads an OPML document and returns its feeds in document order. Nested groups
// are flattened; an entry keeps the name of its innermost group.
func Parse(r io.Reader) ([]Entry, error) {
	var doc OPML
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode opml: %w", err)
	}

	var entries []Entry
	var walk func(outlines []Outline, group string)
	walk = func(outlines []Outline, group string) {
		for _, o := range outlines {
			switch {
			case o.XMLURL != "":
				title := o.Title
				if title == "" {
					title = o.Text
				}
				entries = append(entries, Entry{Group: group, Title: title, URL: o.XMLURL, HTMLURL: o.HTMLURL})
			case len(o.Outlines) > 0:
				name := o.Text
				if name == "" {
					name = o.Title
				}
				walk(o.Outlines, name)
			}
		}
	}
	walk(doc.Body.Outlines, "")
	return entries, nil
}

// Export renders entries as an OPML 2.0 document. Entries without a group are listed
// at the top level; groups appear in the order they are first used.
func Export(title string, entries []Entry, created time.Time) ([]byte, error) {
	doc := OPML{
		Version: "2.0",
		Head: Head{
			Title:       title,
			DateCreated: created.Format(time.RFC1123Z),
		},
	}

	groups := map[string]int{}
	for _, e := range entries {
		feed := Outline{
			Text:    e.Title,
			Title:   e.Title,
			Type:    "rss",
			XMLURL:  e.URL,
			HTMLURL: e.HTMLURL,
		}
		if e.Group == "" {
			doc.Body.Outlines = append(doc.Body.Outlines, feed)
			continue
		}
		i, ok := groups[e.Group]
		if !ok {
			i = len(doc.Body.Outlines)
			groups[e.Group] = i
			doc.Body.Outlines = append(doc.Body.Outlines, Outline{Text: e.Group, Title: e.Group})
		}
		doc.Body.Outlines[i].Outlines = append(doc.Body.Outlines[i].Outlines, feed)
	}

	output, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), output...), nil
}
