package compose

import (
	"fmt"

	"github.com/cameronsjo/stevedore/compose/interp"
	"github.com/cameronsjo/stevedore/tree"
)

// Resolve substitutes variables throughout a document and returns a new
// document in which every value is fully canonical. The input document
// is never modified. In lenient mode undefined plain references expand
// to the empty string; in strict mode they fail with
// *interp.UndefinedVariableError.
func Resolve(doc *Document, vars interp.Mapping, mode interp.Mode) (*Document, error) {
	out := NewDocument(doc.Version)

	var err error
	doc.Services.Range(func(name string, svc *Service) bool {
		var resolved *Service
		resolved, err = resolveService(svc, vars, mode)
		if err != nil {
			err = fmt.Errorf("service %q: %w", name, err)
			return false
		}
		out.Services.Set(name, resolved)
		return true
	})
	if err != nil {
		return nil, err
	}

	doc.Volumes.Range(func(name string, vol *Volume) bool {
		var r *Volume
		r, err = resolveVolume(vol, vars, mode)
		if err != nil {
			err = fmt.Errorf("volume %q: %w", name, err)
			return false
		}
		out.Volumes.Set(name, r)
		return true
	})
	if err != nil {
		return nil, err
	}

	doc.Networks.Range(func(name string, net *Network) bool {
		var r *Network
		r, err = resolveNetwork(net, vars, mode)
		if err != nil {
			err = fmt.Errorf("network %q: %w", name, err)
			return false
		}
		out.Networks.Set(name, r)
		return true
	})
	if err != nil {
		return nil, err
	}

	out.Extra, err = resolveNode(doc.Extra, vars, mode)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func resolveService(svc *Service, vars interp.Mapping, mode interp.Mode) (*Service, error) {
	out := *svc
	var err error

	if svc.Build != nil {
		b := &Build{}
		if b.Context, err = resolveString(svc.Build.Context, vars, mode); err != nil {
			return nil, err
		}
		if b.Dockerfile, err = resolveString(svc.Build.Dockerfile, vars, mode); err != nil {
			return nil, err
		}
		if b.Args, err = resolveDict(svc.Build.Args, vars, mode); err != nil {
			return nil, err
		}
		out.Build = b
	}
	if out.CapAdd, err = resolveStringList(svc.CapAdd, vars, mode); err != nil {
		return nil, err
	}
	if out.CapDrop, err = resolveStringList(svc.CapDrop, vars, mode); err != nil {
		return nil, err
	}
	if out.Command, err = resolveCommandLine(svc.Command, vars, mode); err != nil {
		return nil, err
	}
	if out.ContainerName, err = resolveString(svc.ContainerName, vars, mode); err != nil {
		return nil, err
	}
	if out.DNS, err = resolveStringList(svc.DNS, vars, mode); err != nil {
		return nil, err
	}
	if out.DNSSearch, err = resolveStringList(svc.DNSSearch, vars, mode); err != nil {
		return nil, err
	}
	if out.Domainname, err = resolveString(svc.Domainname, vars, mode); err != nil {
		return nil, err
	}
	if out.Entrypoint, err = resolveCommandLine(svc.Entrypoint, vars, mode); err != nil {
		return nil, err
	}
	if out.EnvFiles, err = resolveStringList(svc.EnvFiles, vars, mode); err != nil {
		return nil, err
	}
	if out.Environment, err = resolveDict(svc.Environment, vars, mode); err != nil {
		return nil, err
	}
	if out.Expose, err = resolveStringList(svc.Expose, vars, mode); err != nil {
		return nil, err
	}
	if out.ExternalLinks, err = resolveRawList(svc.ExternalLinks, vars, mode, ParseAliasedName); err != nil {
		return nil, err
	}
	if out.ExtraHosts, err = resolveRawList(svc.ExtraHosts, vars, mode, ParseHostMapping); err != nil {
		return nil, err
	}
	if out.Hostname, err = resolveString(svc.Hostname, vars, mode); err != nil {
		return nil, err
	}
	if !svc.Image.IsZero() {
		if out.Image, err = svc.Image.Resolve(vars, mode, ParseImage); err != nil {
			return nil, err
		}
	}
	if out.Labels, err = resolveDict(svc.Labels, vars, mode); err != nil {
		return nil, err
	}
	if out.Links, err = resolveRawList(svc.Links, vars, mode, ParseAliasedName); err != nil {
		return nil, err
	}
	if !svc.MemLimit.IsZero() {
		if out.MemLimit, err = svc.MemLimit.Resolve(vars, mode, ParseMemorySize); err != nil {
			return nil, err
		}
	}
	if out.NetworkMode, err = resolveString(svc.NetworkMode, vars, mode); err != nil {
		return nil, err
	}
	if out.Ports, err = resolveRawList(svc.Ports, vars, mode, ParsePortMapping); err != nil {
		return nil, err
	}
	if !svc.Restart.IsZero() {
		if out.Restart, err = svc.Restart.Resolve(vars, mode, ParseRestartMode); err != nil {
			return nil, err
		}
	}
	if out.SecurityOpt, err = resolveStringList(svc.SecurityOpt, vars, mode); err != nil {
		return nil, err
	}
	if !svc.ShmSize.IsZero() {
		if out.ShmSize, err = svc.ShmSize.Resolve(vars, mode, ParseMemorySize); err != nil {
			return nil, err
		}
	}
	if out.StopSignal, err = resolveString(svc.StopSignal, vars, mode); err != nil {
		return nil, err
	}
	if out.Tmpfs, err = resolveStringList(svc.Tmpfs, vars, mode); err != nil {
		return nil, err
	}
	if out.User, err = resolveString(svc.User, vars, mode); err != nil {
		return nil, err
	}
	if out.Volumes, err = resolveRawList(svc.Volumes, vars, mode, ParseVolumeMount); err != nil {
		return nil, err
	}
	if out.WorkingDir, err = resolveString(svc.WorkingDir, vars, mode); err != nil {
		return nil, err
	}
	if out.Extra, err = resolveNode(svc.Extra, vars, mode); err != nil {
		return nil, err
	}
	return &out, nil
}

func resolveVolume(vol *Volume, vars interp.Mapping, mode interp.Mode) (*Volume, error) {
	out := *vol
	var err error
	if out.Driver, err = resolveString(vol.Driver, vars, mode); err != nil {
		return nil, err
	}
	if out.DriverOpts, err = resolveDict(vol.DriverOpts, vars, mode); err != nil {
		return nil, err
	}
	if out.External, err = resolveExternal(vol.External, vars, mode); err != nil {
		return nil, err
	}
	if out.Extra, err = resolveNode(vol.Extra, vars, mode); err != nil {
		return nil, err
	}
	return &out, nil
}

func resolveNetwork(net *Network, vars interp.Mapping, mode interp.Mode) (*Network, error) {
	out := *net
	var err error
	if out.Driver, err = resolveString(net.Driver, vars, mode); err != nil {
		return nil, err
	}
	if out.DriverOpts, err = resolveDict(net.DriverOpts, vars, mode); err != nil {
		return nil, err
	}
	if out.External, err = resolveExternal(net.External, vars, mode); err != nil {
		return nil, err
	}
	if out.Extra, err = resolveNode(net.Extra, vars, mode); err != nil {
		return nil, err
	}
	return &out, nil
}

func resolveExternal(ext *External, vars interp.Mapping, mode interp.Mode) (*External, error) {
	if ext == nil {
		return nil, nil
	}
	name, err := resolveString(ext.Name, vars, mode)
	if err != nil {
		return nil, err
	}
	return &External{Name: name}, nil
}

func resolveString(s *interp.String, vars interp.Mapping, mode interp.Mode) (*interp.String, error) {
	if s == nil {
		return nil, nil
	}
	resolved, err := s.Resolve(vars, mode)
	if err != nil {
		return nil, err
	}
	return interp.Literal(resolved), nil
}

func resolveStringList(list []*interp.String, vars interp.Mapping, mode interp.Mode) ([]*interp.String, error) {
	if list == nil {
		return nil, nil
	}
	out := make([]*interp.String, len(list))
	for i, s := range list {
		r, err := resolveString(s, vars, mode)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

func resolveDict(d *Dict, vars interp.Mapping, mode interp.Mode) (*Dict, error) {
	if d == nil {
		return nil, nil
	}
	out := NewMap[*interp.String]()
	var err error
	d.Range(func(name string, value *interp.String) bool {
		var r *interp.String
		if r, err = resolveString(value, vars, mode); err != nil {
			return false
		}
		out.Set(name, r)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func resolveCommandLine(c *CommandLine, vars interp.Mapping, mode interp.Mode) (*CommandLine, error) {
	if c == nil {
		return nil, nil
	}
	shell, err := resolveString(c.Shell, vars, mode)
	if err != nil {
		return nil, err
	}
	argv, err := resolveStringList(c.Argv, vars, mode)
	if err != nil {
		return nil, err
	}
	return &CommandLine{Shell: shell, Argv: argv}, nil
}

func resolveRawList[T fmt.Stringer](list []Raw[T], vars interp.Mapping, mode interp.Mode, parse func(string) (T, error)) ([]Raw[T], error) {
	if list == nil {
		return nil, nil
	}
	out := make([]Raw[T], len(list))
	for i, v := range list {
		r, err := v.Resolve(vars, mode, parse)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// resolveNode substitutes variables in every string scalar of a
// passthrough tree. Scalars tagged as other YAML types are left alone.
func resolveNode(n *tree.Node, vars interp.Mapping, mode interp.Mode) (*tree.Node, error) {
	if n == nil {
		return nil, nil
	}
	out := n.Clone(n.Path)
	var walk func(node *tree.Node) error
	walk = func(node *tree.Node) error {
		switch node.Kind {
		case tree.Scalar:
			if node.Tag != "" && node.Tag != "!!str" {
				return nil
			}
			s, err := interp.Parse(node.Value)
			if err != nil {
				// Passthrough text was never syntax-checked; leave
				// anything unparseable untouched.
				return nil
			}
			resolved, err := s.Resolve(vars, mode)
			if err != nil {
				return err
			}
			node.Value = interp.Escape(resolved)
		case tree.Sequence:
			for _, item := range node.Items {
				if err := walk(item); err != nil {
					return err
				}
			}
		case tree.Mapping:
			for _, p := range node.Pairs {
				if err := walk(p.Value); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(out); err != nil {
		return nil, err
	}
	return out, nil
}
