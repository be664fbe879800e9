package icon

import (
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
)

// appFilterNames are the mapping files an icon pack may ship, in lookup order.
var appFilterNames = []string{
	"appfilter.xml",
	"appfilter_full.xml",
	"appfilter_custom.xml",
}

// parseAppFilter reads an icon pack's appfilter and returns package name →
// drawable name. Items look like
//
//	<item component="ComponentInfo{com.example/com.example.Main}" drawable="example"/>
//
// The first mapping for a package wins; malformed items are skipped.
func parseAppFilter(r io.Reader) (map[string]string, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse appfilter: %w", err)
	}

	nodes, err := xmlquery.QueryAll(doc, "//item[@component and @drawable]")
	if err != nil {
		return nil, fmt.Errorf("failed to query appfilter: %w", err)
	}

	table := make(map[string]string, len(nodes))
	for _, n := range nodes {
		pkg := componentPackage(n.SelectAttr("component"))
		drawable := strings.TrimSpace(n.SelectAttr("drawable"))
		if pkg == "" || drawable == "" {
			continue
		}
		if _, seen := table[pkg]; !seen {
			table[pkg] = drawable
		}
	}

	return table, nil
}

// componentPackage extracts "pkg" from "ComponentInfo{pkg/activity}".
func componentPackage(component string) string {
	s := strings.TrimSpace(component)
	s, ok := strings.CutPrefix(s, "ComponentInfo{")
	if !ok {
		return ""
	}
	s, ok = strings.CutSuffix(s, "}")
	if !ok {
		return ""
	}

	pkg, _, _ := strings.Cut(s, "/")
	return strings.TrimSpace(pkg)
}
