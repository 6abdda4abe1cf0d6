package dispatch

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Grouped declarations hold a JS object literal; keys are extracted
// textually rather than parsed, matching the declaration surface exactly.
var groupedKeyPattern = regexp.MustCompile(`(?:^|[{,])\s*"?([A-Za-z_$][A-Za-z0-9_$]*)"?\s*:`)

// Scanner derives the declared signal set of one element. It reads the
// element's live attribute list on every call, which is what lets wildcard
// directives pick up signals declared after activation.
type Scanner struct {
	node *html.Node
}

// NewScanner constructs a Scanner over node.
func NewScanner(node *html.Node) *Scanner {
	return &Scanner{node: node}
}

// SignalNames collects names from both declaration forms: individually
// named data-signals-* attributes and the grouped data-signals object
// literal. Order follows attribute order, duplicates removed.
func (s *Scanner) SignalNames() []string {
	if s == nil || s.node == nil {
		return nil
	}
	var names []string
	seen := make(map[string]struct{})
	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	for _, attr := range s.node.Attr {
		switch {
		case strings.HasPrefix(attr.Key, signalsAttrPrefix):
			name := attr.Key[len(signalsAttrPrefix):]
			// Case and other declaration modifiers do not name signals.
			if idx := strings.Index(name, modifierSeparator); idx >= 0 {
				name = name[:idx]
			}
			add(name)
		case attr.Key == signalsAttr:
			for _, match := range groupedKeyPattern.FindAllStringSubmatch(attr.Val, -1) {
				add(match[1])
			}
		}
	}
	return names
}
