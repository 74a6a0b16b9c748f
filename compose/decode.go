package compose

import (
	"fmt"
	"strings"

	"github.com/cameronsjo/stevedore/compose/interp"
	"github.com/cameronsjo/stevedore/compose/schema"
	"github.com/cameronsjo/stevedore/tree"
)

// Decode validates a node tree against its declared schema version and
// decodes it into a typed Document. Validation collects every violation
// before returning; decoding stops at the first malformed field.
func Decode(root *tree.Node) (*Document, error) {
	rs, err := schema.Detect(root)
	if err != nil {
		return nil, err
	}
	if vs := rs.Validate(root); len(vs) > 0 {
		return nil, vs
	}
	return decodeDocument(root, rs.Version())
}

func decodeDocument(root *tree.Node, version string) (*Document, error) {
	doc := NewDocument(version)

	if version == "1" {
		// Legacy format: services live at the document root.
		for _, p := range root.Pairs {
			svc, err := decodeService(p.Value)
			if err != nil {
				return nil, err
			}
			doc.Services.Set(p.Key, svc)
		}
		return doc, nil
	}

	for _, p := range root.Pairs {
		switch p.Key {
		case "version":
			// Recorded via schema detection.
		case "services":
			for _, sp := range p.Value.Pairs {
				svc, err := decodeService(sp.Value)
				if err != nil {
					return nil, err
				}
				doc.Services.Set(sp.Key, svc)
			}
		case "volumes":
			for _, vp := range p.Value.Pairs {
				vol, err := decodeVolume(vp.Value)
				if err != nil {
					return nil, err
				}
				doc.Volumes.Set(vp.Key, vol)
			}
		case "networks":
			for _, np := range p.Value.Pairs {
				net, err := decodeNetwork(np.Value)
				if err != nil {
					return nil, err
				}
				doc.Networks.Set(np.Key, net)
			}
		default:
			if doc.Extra == nil {
				doc.Extra = tree.NewMapping(root.Path)
			}
			doc.Extra.Put(p.Key, p.Value.Clone(p.Value.Path))
		}
	}
	return doc, nil
}

func decodeService(node *tree.Node) (*Service, error) {
	svc := &Service{}
	var err error
	for _, p := range node.Pairs {
		switch p.Key {
		case "build":
			svc.Build, err = decodeBuild(p.Value)
		case "cap_add":
			svc.CapAdd, err = decodeStringList(p.Value)
		case "cap_drop":
			svc.CapDrop, err = decodeStringList(p.Value)
		case "command":
			svc.Command, err = decodeCommandLine(p.Value)
		case "container_name":
			svc.ContainerName, err = decodeScalar(p.Value)
		case "depends_on":
			for _, item := range p.Value.Items {
				svc.DependsOn = append(svc.DependsOn, item.Value)
			}
		case "dns":
			svc.DNS, err = decodeStringList(p.Value)
		case "dns_search":
			svc.DNSSearch, err = decodeStringList(p.Value)
		case "domainname":
			svc.Domainname, err = decodeScalar(p.Value)
		case "entrypoint":
			svc.Entrypoint, err = decodeCommandLine(p.Value)
		case "env_file":
			svc.EnvFiles, err = decodeStringList(p.Value)
		case "environment":
			svc.Environment, err = decodeDict(p.Value)
		case "expose":
			svc.Expose, err = decodeStringList(p.Value)
		case "external_links":
			svc.ExternalLinks, err = decodeRawList(p.Value, "NAME[:ALIAS] string", ParseAliasedName)
		case "extra_hosts":
			svc.ExtraHosts, err = decodeRawList(p.Value, "HOST:IP string", ParseHostMapping)
		case "hostname":
			svc.Hostname, err = decodeScalar(p.Value)
		case "image":
			svc.Image, err = decodeImage(p.Value)
		case "labels":
			svc.Labels, err = decodeDict(p.Value)
		case "links":
			svc.Links, err = decodeRawList(p.Value, "NAME[:ALIAS] string", ParseAliasedName)
		case "mem_limit":
			svc.MemLimit, err = decodeRawScalar(p.Value, "memory size", ParseMemorySize)
		case "network_mode":
			svc.NetworkMode, err = decodeScalar(p.Value)
		case "ports":
			svc.Ports, err = decodePorts(p.Value)
		case "privileged":
			svc.Privileged, err = decodeBool(p.Value)
		case "restart":
			svc.Restart, err = decodeRawScalar(p.Value, "restart mode", ParseRestartMode)
		case "security_opt":
			svc.SecurityOpt, err = decodeStringList(p.Value)
		case "shm_size":
			svc.ShmSize, err = decodeRawScalar(p.Value, "memory size", ParseMemorySize)
		case "stdin_open":
			svc.StdinOpen, err = decodeBool(p.Value)
		case "stop_signal":
			svc.StopSignal, err = decodeScalar(p.Value)
		case "tmpfs":
			svc.Tmpfs, err = decodeStringList(p.Value)
		case "tty":
			svc.TTY, err = decodeBool(p.Value)
		case "user":
			svc.User, err = decodeScalar(p.Value)
		case "volumes":
			svc.Volumes, err = decodeVolumeMounts(p.Value)
		case "working_dir":
			svc.WorkingDir, err = decodeScalar(p.Value)
		default:
			if svc.Extra == nil {
				svc.Extra = tree.NewMapping(node.Path)
			}
			svc.Extra.Put(p.Key, p.Value.Clone(p.Value.Path))
		}
		if err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// decodeScalar parses one scalar into an interpolation string.
func decodeScalar(node *tree.Node) (*interp.String, error) {
	if node.Kind != tree.Scalar {
		return nil, &MalformedFieldError{Path: node.Path, Expected: "scalar"}
	}
	s, err := interp.Parse(node.Value)
	if err != nil {
		return nil, &MalformedFieldError{Path: node.Path, Expected: "valid interpolation string", Cause: err}
	}
	return s, nil
}

// decodeStringList accepts a bare scalar (treated as a one-element list)
// or a sequence of scalars.
func decodeStringList(node *tree.Node) ([]*interp.String, error) {
	switch node.Kind {
	case tree.Scalar:
		s, err := decodeScalar(node)
		if err != nil {
			return nil, err
		}
		return []*interp.String{s}, nil
	case tree.Sequence:
		out := make([]*interp.String, 0, len(node.Items))
		for _, item := range node.Items {
			s, err := decodeScalar(item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, &MalformedFieldError{Path: node.Path, Expected: "string or list of strings"}
	}
}

// decodeDict accepts the two environment/labels shapes: a mapping of
// name to value, or a sequence of "NAME=VALUE" strings. A name without a
// value (null mapping value, or a list entry with no "=") decodes to a
// nil value.
func decodeDict(node *tree.Node) (*Dict, error) {
	out := NewMap[*interp.String]()
	switch node.Kind {
	case tree.Mapping:
		for _, p := range node.Pairs {
			if p.Value.IsNull() {
				out.Set(p.Key, nil)
				continue
			}
			v, err := decodeScalar(p.Value)
			if err != nil {
				return nil, err
			}
			out.Set(p.Key, v)
		}
		return out, nil
	case tree.Sequence:
		for _, item := range node.Items {
			if item.Kind != tree.Scalar {
				return nil, &MalformedFieldError{Path: item.Path, Expected: `"NAME=VALUE" string`}
			}
			name, value, hasValue := strings.Cut(item.Value, "=")
			if name == "" {
				return nil, &MalformedFieldError{Path: item.Path, Expected: `"NAME=VALUE" string`}
			}
			if !hasValue {
				out.Set(name, nil)
				continue
			}
			v, err := interp.Parse(value)
			if err != nil {
				return nil, &MalformedFieldError{Path: item.Path, Expected: "valid interpolation string", Cause: err}
			}
			out.Set(name, v)
		}
		return out, nil
	default:
		return nil, &MalformedFieldError{Path: node.Path, Expected: "mapping or list of NAME=VALUE strings"}
	}
}

// decodeCommandLine accepts shell-code scalars and argv sequences.
func decodeCommandLine(node *tree.Node) (*CommandLine, error) {
	switch node.Kind {
	case tree.Scalar:
		s, err := decodeScalar(node)
		if err != nil {
			return nil, err
		}
		return &CommandLine{Shell: s}, nil
	case tree.Sequence:
		argv, err := decodeStringList(node)
		if err != nil {
			return nil, err
		}
		if argv == nil {
			argv = []*interp.String{}
		}
		return &CommandLine{Argv: argv}, nil
	default:
		return nil, &MalformedFieldError{Path: node.Path, Expected: "shell string or argument list"}
	}
}

// decodeRawScalar parses one scalar with a field-specific value grammar.
func decodeRawScalar[T fmt.Stringer](node *tree.Node, expected string, parse func(string) (T, error)) (Raw[T], error) {
	if node.Kind != tree.Scalar {
		return Raw[T]{}, &MalformedFieldError{Path: node.Path, Expected: expected}
	}
	v, err := ParseRaw(node.Value, parse)
	if err != nil {
		return Raw[T]{}, &MalformedFieldError{Path: node.Path, Expected: expected, Cause: err}
	}
	return v, nil
}

// decodeRawList parses a sequence of scalars with a value grammar.
func decodeRawList[T fmt.Stringer](node *tree.Node, expected string, parse func(string) (T, error)) ([]Raw[T], error) {
	if node.Kind != tree.Sequence {
		return nil, &MalformedFieldError{Path: node.Path, Expected: "list of " + expected}
	}
	out := make([]Raw[T], 0, len(node.Items))
	for _, item := range node.Items {
		v, err := decodeRawScalar(item, expected, parse)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeBool(node *tree.Node) (bool, error) {
	if node.Kind == tree.Scalar {
		switch node.Value {
		case "true", "True", "yes":
			return true, nil
		case "false", "False", "no":
			return false, nil
		}
	}
	return false, &MalformedFieldError{Path: node.Path, Expected: "boolean"}
}

func decodeImage(node *tree.Node) (Raw[ImageSpec], error) {
	if node.Kind != tree.Scalar {
		return Raw[ImageSpec]{}, &MalformedFieldError{Path: node.Path, Expected: "image reference string"}
	}
	v, err := ParseRaw(node.Value, ParseImage)
	if err != nil {
		// Image references keep their dedicated error kind; only
		// interpolation syntax problems become malformed-field errors.
		if _, ok := err.(*InvalidImageReferenceError); ok {
			return Raw[ImageSpec]{}, err
		}
		return Raw[ImageSpec]{}, &MalformedFieldError{Path: node.Path, Expected: "image reference string", Cause: err}
	}
	return v, nil
}

// decodePorts accepts short "HOST:CONTAINER" strings and long mappings
// with target/published/host_ip/protocol keys.
func decodePorts(node *tree.Node) ([]Raw[PortMapping], error) {
	if node.Kind != tree.Sequence {
		return nil, &MalformedFieldError{Path: node.Path, Expected: "list of port mappings"}
	}
	out := make([]Raw[PortMapping], 0, len(node.Items))
	for _, item := range node.Items {
		switch item.Kind {
		case tree.Scalar:
			v, err := decodeRawScalar(item, `"[HOST:]CONTAINER[/PROTOCOL]" string`, ParsePortMapping)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		case tree.Mapping:
			m, err := decodeLongPort(item)
			if err != nil {
				return nil, err
			}
			out = append(out, Lit(m))
		default:
			return nil, &MalformedFieldError{Path: item.Path, Expected: "port mapping string or mapping"}
		}
	}
	return out, nil
}

func decodeLongPort(node *tree.Node) (PortMapping, error) {
	var m PortMapping
	for _, p := range node.Pairs {
		if p.Value.Kind != tree.Scalar {
			return PortMapping{}, &MalformedFieldError{Path: p.Value.Path, Expected: "scalar"}
		}
		var err error
		switch p.Key {
		case "target":
			m.Container, err = ParsePortRange(p.Value.Value)
		case "published":
			var r PortRange
			if r, err = ParsePortRange(p.Value.Value); err == nil {
				m.Host = &r
			}
		case "host_ip":
			m.HostIP = p.Value.Value
		case "protocol":
			switch p.Value.Value {
			case "tcp", "udp":
				m.Protocol = p.Value.Value
			default:
				err = fmt.Errorf("invalid port protocol %q", p.Value.Value)
			}
		default:
			err = fmt.Errorf("unknown port mapping key %q", p.Key)
		}
		if err != nil {
			return PortMapping{}, &MalformedFieldError{Path: p.Value.Path, Expected: "port mapping", Cause: err}
		}
	}
	if m.Container == (PortRange{}) {
		return PortMapping{}, &MalformedFieldError{Path: node.Path, Expected: `port mapping with "target"`}
	}
	// The short form cannot express a host address without a host port,
	// or ranges of different sizes; reject them here so every decoded
	// mapping re-parses from its canonical string.
	if m.HostIP != "" && m.Host == nil {
		return PortMapping{}, &MalformedFieldError{Path: node.Path, Expected: "port mapping", Cause: fmt.Errorf(`"host_ip" requires "published"`)}
	}
	if m.Host != nil && m.Host.Size() != m.Container.Size() {
		return PortMapping{}, &MalformedFieldError{Path: node.Path, Expected: "port mapping", Cause: fmt.Errorf("host and container ranges differ in size")}
	}
	return m, nil
}

// decodeVolumeMounts accepts short "SOURCE:TARGET[:MODE]" strings and
// long mappings with type/source/target/read_only keys.
func decodeVolumeMounts(node *tree.Node) ([]Raw[VolumeMount], error) {
	if node.Kind != tree.Sequence {
		return nil, &MalformedFieldError{Path: node.Path, Expected: "list of volume mounts"}
	}
	out := make([]Raw[VolumeMount], 0, len(node.Items))
	for _, item := range node.Items {
		switch item.Kind {
		case tree.Scalar:
			v, err := decodeRawScalar(item, `"[SOURCE:]TARGET[:MODE]" string`, ParseVolumeMount)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		case tree.Mapping:
			m, err := decodeLongVolume(item)
			if err != nil {
				return nil, err
			}
			out = append(out, Lit(m))
		default:
			return nil, &MalformedFieldError{Path: item.Path, Expected: "volume mount string or mapping"}
		}
	}
	return out, nil
}

func decodeLongVolume(node *tree.Node) (VolumeMount, error) {
	var m VolumeMount
	for _, p := range node.Pairs {
		switch p.Key {
		case "type":
			if p.Value.Kind != tree.Scalar || (p.Value.Value != "bind" && p.Value.Value != "volume") {
				return VolumeMount{}, &MalformedFieldError{Path: p.Value.Path, Expected: `"bind" or "volume"`}
			}
		case "source":
			m.Source = p.Value.Value
		case "target":
			m.Target = p.Value.Value
		case "read_only":
			ro, err := decodeBool(p.Value)
			if err != nil {
				return VolumeMount{}, err
			}
			m.ReadOnly = ro
		default:
			return VolumeMount{}, &MalformedFieldError{Path: p.Value.Path, Expected: "volume mount", Cause: fmt.Errorf("unknown volume mount key %q", p.Key)}
		}
	}
	if m.Target == "" {
		return VolumeMount{}, &MalformedFieldError{Path: node.Path, Expected: `volume mount with "target"`}
	}
	// "TARGET:ro" would re-parse as source and target, so a read-only
	// anonymous mount has no short encoding.
	if m.ReadOnly && m.Source == "" {
		return VolumeMount{}, &MalformedFieldError{Path: node.Path, Expected: "volume mount", Cause: fmt.Errorf(`"read_only" requires "source"`)}
	}
	return m, nil
}

// decodeBuild accepts a bare context string or the long build mapping.
func decodeBuild(node *tree.Node) (*Build, error) {
	switch node.Kind {
	case tree.Scalar:
		ctx, err := decodeScalar(node)
		if err != nil {
			return nil, err
		}
		return &Build{Context: ctx}, nil
	case tree.Mapping:
		b := &Build{}
		var err error
		for _, p := range node.Pairs {
			switch p.Key {
			case "context":
				b.Context, err = decodeScalar(p.Value)
			case "dockerfile":
				b.Dockerfile, err = decodeScalar(p.Value)
			case "args":
				b.Args, err = decodeDict(p.Value)
			default:
				err = &MalformedFieldError{Path: p.Value.Path, Expected: "build specification", Cause: fmt.Errorf("unknown build key %q", p.Key)}
			}
			if err != nil {
				return nil, err
			}
		}
		if b.Context == nil {
			return nil, &MalformedFieldError{Path: node.Path, Expected: `build specification with "context"`}
		}
		return b, nil
	default:
		return nil, &MalformedFieldError{Path: node.Path, Expected: "context string or build mapping"}
	}
}

func decodeVolume(node *tree.Node) (*Volume, error) {
	vol := &Volume{}
	if node.IsNull() {
		return vol, nil
	}
	driver, opts, external, extra, err := decodeResource(node)
	if err != nil {
		return nil, err
	}
	vol.Driver, vol.DriverOpts, vol.External, vol.Extra = driver, opts, external, extra
	return vol, nil
}

func decodeNetwork(node *tree.Node) (*Network, error) {
	net := &Network{}
	if node.IsNull() {
		return net, nil
	}
	driver, opts, external, extra, err := decodeResource(node)
	if err != nil {
		return nil, err
	}
	net.Driver, net.DriverOpts, net.External, net.Extra = driver, opts, external, extra
	return net, nil
}

// decodeResource handles the shape shared by top-level volumes and
// networks: driver, driver_opts, the polymorphic external key, and a
// passthrough bag for the rest.
func decodeResource(node *tree.Node) (driver *interp.String, opts *Dict, external *External, extra *tree.Node, err error) {
	for _, p := range node.Pairs {
		switch p.Key {
		case "driver":
			driver, err = decodeScalar(p.Value)
		case "driver_opts":
			opts, err = decodeDict(p.Value)
		case "external":
			external, err = decodeExternal(p.Value)
		default:
			if extra == nil {
				extra = tree.NewMapping(node.Path)
			}
			extra.Put(p.Key, p.Value.Clone(p.Value.Path))
		}
		if err != nil {
			return nil, nil, nil, nil, err
		}
	}
	return driver, opts, external, extra, nil
}

// decodeExternal accepts `external: true` and `external: {name: ...}`.
// `external: false` decodes to nil, same as an absent key.
func decodeExternal(node *tree.Node) (*External, error) {
	switch node.Kind {
	case tree.Scalar:
		b, err := decodeBool(node)
		if err != nil {
			return nil, &MalformedFieldError{Path: node.Path, Expected: `boolean or mapping with "name"`}
		}
		if !b {
			return nil, nil
		}
		return &External{}, nil
	case tree.Mapping:
		name := node.Get("name")
		if name == nil || len(node.Pairs) != 1 {
			return nil, &MalformedFieldError{Path: node.Path, Expected: `boolean or mapping with "name"`}
		}
		s, err := decodeScalar(name)
		if err != nil {
			return nil, err
		}
		return &External{Name: s}, nil
	default:
		return nil, &MalformedFieldError{Path: node.Path, Expected: `boolean or mapping with "name"`}
	}
}
