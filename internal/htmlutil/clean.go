package htmlutil

import (
	"strings"

	"github.com/k3a/html2text"
)

// ToText converts HTML to plain text using a proper HTML parser.
func ToText(s string) string {
	return html2text.HTML2Text(s)
}

// QueryText normalises a chat message typed into a rich-text box: markup and
// entities are stripped and runs of whitespace collapse to single spaces.
func QueryText(s string) string {
	if strings.ContainsAny(s, "<&") {
		s = ToText(s)
	}
	return strings.Join(strings.Fields(s), " ")
}
