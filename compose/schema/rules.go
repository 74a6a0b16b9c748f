package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cameronsjo/stevedore/tree"
)

// namePattern restricts service, volume and network names.
var namePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// fieldRule describes the shapes one known key may take. Keys absent
// from the table are unknown and pass through unvalidated.
type fieldRule struct {
	// kinds lists the accepted node kinds.
	kinds []tree.Kind

	// enum restricts a scalar to a fixed literal set when non-empty.
	enum []string

	// itemKinds restricts sequence elements when non-empty.
	itemKinds []tree.Kind
}

func scalarRule() fieldRule   { return fieldRule{kinds: []tree.Kind{tree.Scalar}} }
func sequenceRule() fieldRule { return fieldRule{kinds: []tree.Kind{tree.Sequence}} }
func mappingRule() fieldRule  { return fieldRule{kinds: []tree.Kind{tree.Mapping}} }

func scalarSeqRule() fieldRule {
	return fieldRule{kinds: []tree.Kind{tree.Scalar, tree.Sequence}}
}

// v2ServiceRules is the shared service-level table for the version 2
// family. Later revisions extend a copy.
func v2ServiceRules() map[string]fieldRule {
	return map[string]fieldRule{
		"build":          {kinds: []tree.Kind{tree.Scalar, tree.Mapping}},
		"cap_add":        sequenceRule(),
		"cap_drop":       sequenceRule(),
		"command":        scalarSeqRule(),
		"container_name": scalarRule(),
		"depends_on":     {kinds: []tree.Kind{tree.Sequence}, itemKinds: []tree.Kind{tree.Scalar}},
		"dns":            scalarSeqRule(),
		"dns_search":     scalarSeqRule(),
		"domainname":     scalarRule(),
		"entrypoint":     scalarSeqRule(),
		"env_file":       scalarSeqRule(),
		"environment":    {kinds: []tree.Kind{tree.Mapping, tree.Sequence}},
		"expose":         sequenceRule(),
		"external_links": sequenceRule(),
		"extra_hosts":    sequenceRule(),
		"hostname":       scalarRule(),
		"image":          scalarRule(),
		"labels":         {kinds: []tree.Kind{tree.Mapping, tree.Sequence}},
		"links":          sequenceRule(),
		"mem_limit":      scalarRule(),
		"network_mode":   scalarRule(),
		"networks":       {kinds: []tree.Kind{tree.Sequence, tree.Mapping}},
		"pid":            {kinds: []tree.Kind{tree.Scalar}, enum: []string{"host"}},
		"ports":          sequenceRule(),
		"privileged":     scalarRule(),
		"restart":        scalarRule(),
		"security_opt":   sequenceRule(),
		"shm_size":       scalarRule(),
		"stdin_open":     scalarRule(),
		"stop_signal":    scalarRule(),
		"tmpfs":          scalarSeqRule(),
		"tty":            scalarRule(),
		"user":           scalarRule(),
		"volumes":        sequenceRule(),
		"working_dir":    scalarRule(),
	}
}

// v2Ruleset validates the version 2 document family.
type v2Ruleset struct {
	version      string
	serviceRules map[string]fieldRule
}

func (r *v2Ruleset) Version() string { return r.version }

func (r *v2Ruleset) Validate(root *tree.Node) Violations {
	var vs Violations
	if root.Kind != tree.Mapping {
		return Violations{{Path: root.Path, Rule: RuleInvalidType, Message: "document root must be a mapping"}}
	}

	services := root.Get("services")
	if services == nil {
		vs = append(vs, Violation{Path: root.Path.Key("services"), Rule: RuleRequired, Message: "missing required key services"})
	} else if services.Kind != tree.Mapping {
		vs = append(vs, Violation{Path: services.Path, Rule: RuleInvalidType, Message: "services must be a mapping"})
	} else {
		for _, p := range services.Pairs {
			vs = append(vs, r.validateService(p.Key, p.Value)...)
		}
	}

	for _, section := range []string{"volumes", "networks"} {
		node := root.Get(section)
		if node == nil {
			continue
		}
		if node.Kind != tree.Mapping {
			vs = append(vs, Violation{Path: node.Path, Rule: RuleInvalidType, Message: section + " must be a mapping"})
			continue
		}
		for _, p := range node.Pairs {
			if !namePattern.MatchString(p.Key) {
				vs = append(vs, Violation{Path: p.Value.Path, Rule: RuleInvalidName, Message: fmt.Sprintf("invalid %s name %q", strings.TrimSuffix(section, "s"), p.Key)})
			}
			if p.Value.Kind != tree.Mapping && !p.Value.IsNull() {
				vs = append(vs, Violation{Path: p.Value.Path, Rule: RuleInvalidType, Message: "definition must be a mapping or empty"})
			}
		}
	}
	return vs
}

func (r *v2Ruleset) validateService(name string, node *tree.Node) Violations {
	var vs Violations
	if !namePattern.MatchString(name) {
		vs = append(vs, Violation{Path: node.Path, Rule: RuleInvalidName, Message: fmt.Sprintf("invalid service name %q", name)})
	}
	if node.Kind != tree.Mapping {
		vs = append(vs, Violation{Path: node.Path, Rule: RuleInvalidType, Message: "service must be a mapping"})
		return vs
	}
	for _, p := range node.Pairs {
		rule, known := r.serviceRules[p.Key]
		if !known {
			continue // unknown keys are passthrough data
		}
		vs = append(vs, checkField(p.Value, rule)...)
	}
	// Cross-field constraints registered for this version.
	if node.Has("network_mode") && node.Has("networks") {
		vs = append(vs, Violation{
			Path:    node.Path.Key("network_mode"),
			Rule:    RuleMutuallyExclusive,
			Message: "network_mode and networks are mutually exclusive",
		})
	}
	return vs
}

// checkField verifies a value against its rule, accumulating every
// independent problem.
func checkField(node *tree.Node, rule fieldRule) Violations {
	var vs Violations
	if !kindAllowed(node.Kind, rule.kinds) {
		vs = append(vs, Violation{
			Path:    node.Path,
			Rule:    RuleInvalidType,
			Message: fmt.Sprintf("expected %s, found %s", kindList(rule.kinds), node.Kind),
		})
		return vs
	}
	if node.Kind == tree.Scalar && len(rule.enum) > 0 {
		ok := false
		for _, allowed := range rule.enum {
			if node.Value == allowed {
				ok = true
				break
			}
		}
		if !ok {
			vs = append(vs, Violation{
				Path:    node.Path,
				Rule:    RuleInvalidEnum,
				Message: fmt.Sprintf("value %q not one of [%s]", node.Value, strings.Join(rule.enum, ", ")),
			})
		}
	}
	if node.Kind == tree.Sequence && len(rule.itemKinds) > 0 {
		for _, item := range node.Items {
			if !kindAllowed(item.Kind, rule.itemKinds) {
				vs = append(vs, Violation{
					Path:    item.Path,
					Rule:    RuleInvalidType,
					Message: fmt.Sprintf("expected %s, found %s", kindList(rule.itemKinds), item.Kind),
				})
			}
		}
	}
	return vs
}

func kindAllowed(k tree.Kind, kinds []tree.Kind) bool {
	for _, allowed := range kinds {
		if k == allowed {
			return true
		}
	}
	return false
}

func kindList(kinds []tree.Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, " or ")
}

// v1Ruleset validates the legacy format, where services live at the
// document root with no version key or top-level sections.
type v1Ruleset struct {
	serviceRules map[string]fieldRule
}

func (r *v1Ruleset) Version() string { return "1" }

func (r *v1Ruleset) Validate(root *tree.Node) Violations {
	var vs Violations
	if root.Kind != tree.Mapping {
		return Violations{{Path: root.Path, Rule: RuleInvalidType, Message: "document root must be a mapping"}}
	}
	inner := &v2Ruleset{version: "1", serviceRules: r.serviceRules}
	for _, p := range root.Pairs {
		vs = append(vs, inner.validateService(p.Key, p.Value)...)
	}
	return vs
}

func init() {
	base := v2ServiceRules()
	register(&v1Ruleset{serviceRules: base})
	register(&v2Ruleset{version: "2", serviceRules: base})

	// 2.1 onward adds healthcheck and service-level init.
	extended := v2ServiceRules()
	extended["healthcheck"] = mappingRule()
	extended["init"] = scalarRule()
	for _, v := range []string{"2.1", "2.2", "2.3", "2.4"} {
		register(&v2Ruleset{version: v, serviceRules: extended})
	}
}
