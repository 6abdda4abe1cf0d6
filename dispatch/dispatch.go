// Package dispatch discovers persistence directives in markup and feeds them
// to the sync engine. It is the glue between parsed HTML attributes and the
// resolver/activation contract: attribute name → custom key + modifiers,
// attribute value → signal list, element → wildcard signal scope.
package dispatch

import (
	"strings"

	"golang.org/x/net/html"

	persist "github.com/goliatone/go-persist"
)

const (
	directiveAttr     = "data-persist"
	signalsAttr       = "data-signals"
	signalsAttrPrefix = "data-signals-"
	modifierSeparator = "__"
)

// Directive carries the parsed parameters of one data-persist attribute.
type Directive struct {
	Element   *html.Node
	Key       string
	Value     string
	Modifiers []string
}

// FindDirectives walks root in document order and collects every
// persistence directive. Activation order follows this order.
func FindDirectives(root *html.Node) []Directive {
	var directives []Directive
	walk(root, func(node *html.Node) {
		for _, attr := range node.Attr {
			key, modifiers, ok := parseAttrName(attr.Key)
			if !ok {
				continue
			}
			directives = append(directives, Directive{
				Element:   node,
				Key:       key,
				Value:     attr.Val,
				Modifiers: modifiers,
			})
		}
	})
	return directives
}

// Processor resolves and activates directives against a sync engine.
type Processor struct {
	engine *persist.Engine
}

// NewProcessor constructs a Processor over engine.
func NewProcessor(engine *persist.Engine) *Processor {
	return &Processor{engine: engine}
}

// Apply discovers every directive under root and activates it, returning
// one detach function per activated directive. Directives whose backend is
// unavailable are skipped silently; they stay inert by design.
func (p *Processor) Apply(root *html.Node) []persist.DetachFunc {
	if p == nil || p.engine == nil || root == nil {
		return nil
	}
	var detaches []persist.DetachFunc
	for _, directive := range FindDirectives(root) {
		cfg, err := p.engine.Resolve(directive.Key, directive.Value, directive.Modifiers)
		if err != nil {
			continue
		}
		detaches = append(detaches, p.engine.Activate(cfg, NewScanner(directive.Element)))
	}
	return detaches
}

// ApplyHTML parses markup and applies every directive found in it.
func (p *Processor) ApplyHTML(markup string) ([]persist.DetachFunc, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}
	return p.Apply(root), nil
}

// parseAttrName splits a directive attribute name into its custom key and
// modifier set. Returns ok=false for attributes that are not persistence
// directives.
//
//	data-persist                 → "", nil
//	data-persist-prefs           → "prefs", nil
//	data-persist__session        → "", [session]
//	data-persist-prefs__session  → "prefs", [session]
func parseAttrName(name string) (key string, modifiers []string, ok bool) {
	if !strings.HasPrefix(name, directiveAttr) {
		return "", nil, false
	}
	rest := name[len(directiveAttr):]
	if rest == "" {
		return "", nil, true
	}
	parts := strings.Split(rest, modifierSeparator)
	head := parts[0]
	modifiers = parts[1:]
	if head == "" {
		return "", trimEmpty(modifiers), true
	}
	if !strings.HasPrefix(head, "-") {
		// Something like data-persistence; not ours.
		return "", nil, false
	}
	return strings.TrimPrefix(head, "-"), trimEmpty(modifiers), true
}

func trimEmpty(parts []string) []string {
	out := parts[:0]
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func walk(node *html.Node, visit func(*html.Node)) {
	if node == nil {
		return
	}
	if node.Type == html.ElementNode {
		visit(node)
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		walk(child, visit)
	}
}
