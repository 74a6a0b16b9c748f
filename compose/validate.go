package compose

import (
	"fmt"

	"github.com/cameronsjo/stevedore/compose/schema"
	"github.com/cameronsjo/stevedore/tree"
)

// ValidateReferences checks cross-service references in a decoded
// document: depends_on entries and link targets must name services that
// exist. Run it after merging, since an overlay may supply services a
// base layer depends on. All violations are collected.
func ValidateReferences(doc *Document) schema.Violations {
	var out schema.Violations

	servicesPath := tree.Path("").Key("services")
	if doc.Version == "1" {
		servicesPath = tree.Path("")
	}

	doc.Services.Range(func(name string, svc *Service) bool {
		base := servicesPath.Key(name)
		for i, dep := range svc.DependsOn {
			if _, ok := doc.Services.Get(dep); !ok {
				out = append(out, schema.Violation{
					Path:    base.Key("depends_on").Index(i),
					Rule:    schema.RuleUnknownDependency,
					Message: fmt.Sprintf("depends on undefined service %q", dep),
				})
			}
		}
		for i, link := range svc.Links {
			target, ok := link.Value()
			if !ok {
				continue
			}
			if _, ok := doc.Services.Get(target.Name); !ok {
				out = append(out, schema.Violation{
					Path:    base.Key("links").Index(i),
					Rule:    schema.RuleUnknownDependency,
					Message: fmt.Sprintf("links to undefined service %q", target.Name),
				})
			}
		}
		return true
	})
	return out
}
