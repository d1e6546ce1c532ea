package tacview

import (
	"encoding/xml"
	"strings"
)

// node is a generic XML element. The debriefing schema drifts between
// recorder versions, so lookups are done by name instead of fixed structs.
type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []node     `xml:",any"`
}

// child returns the first direct child with the given local name.
func (n *node) child(name string) *node {
	for i := range n.Children {
		if n.Children[i].XMLName.Local == name {
			return &n.Children[i]
		}
	}
	return nil
}

// children returns every direct child with the given local name.
func (n *node) children(name string) []*node {
	var out []*node
	for i := range n.Children {
		if n.Children[i].XMLName.Local == name {
			out = append(out, &n.Children[i])
		}
	}
	return out
}

// find returns the first descendant (document order, root excluded) with the
// given local name.
func (n *node) find(name string) *node {
	for i := range n.Children {
		c := &n.Children[i]
		if c.XMLName.Local == name {
			return c
		}
		if found := c.find(name); found != nil {
			return found
		}
	}
	return nil
}

// attr returns the value of the named attribute or "".
func (n *node) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// text returns the trimmed character data of the named child, or def when
// the child is absent.
func (n *node) text(name, def string) string {
	c := n.child(name)
	if c == nil {
		return def
	}
	return strings.TrimSpace(c.Text)
}
