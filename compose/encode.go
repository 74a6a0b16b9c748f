package compose

import (
	"fmt"

	"github.com/cameronsjo/stevedore/compose/interp"
	"github.com/cameronsjo/stevedore/tree"
)

// Encode serializes a document into a node tree in canonical shape:
// environment, labels and build args as mappings, ports and volumes in
// their short string form, command lines in whichever variant they were
// decoded from. Passthrough keys are re-emitted verbatim. Encoding a
// decoded document and decoding it again yields an equal document.
func Encode(doc *Document) *tree.Node {
	var root tree.Path
	out := tree.NewMapping(root)

	if doc.Version == "1" {
		doc.Services.Range(func(name string, svc *Service) bool {
			out.Put(name, encodeService(root.Key(name), svc))
			return true
		})
		return out
	}

	out.Put("version", tree.NewScalar(root.Key("version"), doc.Version))
	if doc.Services.Len() > 0 {
		p := root.Key("services")
		services := tree.NewMapping(p)
		doc.Services.Range(func(name string, svc *Service) bool {
			services.Put(name, encodeService(p.Key(name), svc))
			return true
		})
		out.Put("services", services)
	}
	if doc.Volumes.Len() > 0 {
		p := root.Key("volumes")
		volumes := tree.NewMapping(p)
		doc.Volumes.Range(func(name string, vol *Volume) bool {
			volumes.Put(name, encodeResource(p.Key(name), vol.Driver, vol.DriverOpts, vol.External, vol.Extra))
			return true
		})
		out.Put("volumes", volumes)
	}
	if doc.Networks.Len() > 0 {
		p := root.Key("networks")
		networks := tree.NewMapping(p)
		doc.Networks.Range(func(name string, net *Network) bool {
			networks.Put(name, encodeResource(p.Key(name), net.Driver, net.DriverOpts, net.External, net.Extra))
			return true
		})
		out.Put("networks", networks)
	}
	putExtra(out, doc.Extra)
	return out
}

// EncodeYAML serializes a document straight to YAML text.
func EncodeYAML(doc *Document) ([]byte, error) {
	return tree.MarshalYAML(Encode(doc))
}

func encodeService(path tree.Path, svc *Service) *tree.Node {
	out := tree.NewMapping(path)

	if svc.Build != nil {
		out.Put("build", encodeBuild(path.Key("build"), svc.Build))
	}
	putStringList(out, path, "cap_add", svc.CapAdd)
	putStringList(out, path, "cap_drop", svc.CapDrop)
	if svc.Command != nil {
		out.Put("command", encodeCommandLine(path.Key("command"), svc.Command))
	}
	putString(out, path, "container_name", svc.ContainerName)
	if len(svc.DependsOn) > 0 {
		p := path.Key("depends_on")
		items := make([]*tree.Node, len(svc.DependsOn))
		for i, dep := range svc.DependsOn {
			items[i] = tree.NewScalar(p.Index(i), dep)
		}
		out.Put("depends_on", tree.NewSequence(p, items...))
	}
	putStringList(out, path, "dns", svc.DNS)
	putStringList(out, path, "dns_search", svc.DNSSearch)
	putString(out, path, "domainname", svc.Domainname)
	if svc.Entrypoint != nil {
		out.Put("entrypoint", encodeCommandLine(path.Key("entrypoint"), svc.Entrypoint))
	}
	putStringList(out, path, "env_file", svc.EnvFiles)
	putDict(out, path, "environment", svc.Environment)
	putStringList(out, path, "expose", svc.Expose)
	putRawList(out, path, "external_links", svc.ExternalLinks)
	putRawList(out, path, "extra_hosts", svc.ExtraHosts)
	putString(out, path, "hostname", svc.Hostname)
	putRaw(out, path, "image", svc.Image)
	putDict(out, path, "labels", svc.Labels)
	putRawList(out, path, "links", svc.Links)
	putRaw(out, path, "mem_limit", svc.MemLimit)
	putString(out, path, "network_mode", svc.NetworkMode)
	putRawList(out, path, "ports", svc.Ports)
	putBool(out, path, "privileged", svc.Privileged)
	putRaw(out, path, "restart", svc.Restart)
	putStringList(out, path, "security_opt", svc.SecurityOpt)
	putRaw(out, path, "shm_size", svc.ShmSize)
	putBool(out, path, "stdin_open", svc.StdinOpen)
	putString(out, path, "stop_signal", svc.StopSignal)
	putStringList(out, path, "tmpfs", svc.Tmpfs)
	putBool(out, path, "tty", svc.TTY)
	putString(out, path, "user", svc.User)
	putRawList(out, path, "volumes", svc.Volumes)
	putString(out, path, "working_dir", svc.WorkingDir)
	putExtra(out, svc.Extra)
	return out
}

// encodeBuild keeps the short context-only shape when nothing else is
// set.
func encodeBuild(path tree.Path, b *Build) *tree.Node {
	if b.Dockerfile == nil && b.Args.Len() == 0 {
		return tree.NewScalar(path, b.Context.Raw())
	}
	out := tree.NewMapping(path)
	putString(out, path, "context", b.Context)
	putString(out, path, "dockerfile", b.Dockerfile)
	putDict(out, path, "args", b.Args)
	return out
}

func encodeCommandLine(path tree.Path, c *CommandLine) *tree.Node {
	if c.IsShell() {
		return tree.NewScalar(path, c.Shell.Raw())
	}
	items := make([]*tree.Node, len(c.Argv))
	for i, arg := range c.Argv {
		items[i] = tree.NewScalar(path.Index(i), arg.Raw())
	}
	return tree.NewSequence(path, items...)
}

func encodeResource(path tree.Path, driver *interp.String, opts *Dict, external *External, extra *tree.Node) *tree.Node {
	out := tree.NewMapping(path)
	putString(out, path, "driver", driver)
	putDict(out, path, "driver_opts", opts)
	if external != nil {
		p := path.Key("external")
		if external.Name == nil {
			out.Put("external", &tree.Node{Kind: tree.Scalar, Path: p, Value: "true", Tag: "!!bool"})
		} else {
			ext := tree.NewMapping(p)
			ext.Put("name", tree.NewScalar(p.Key("name"), external.Name.Raw()))
			out.Put("external", ext)
		}
	}
	putExtra(out, extra)
	return out
}

func putString(out *tree.Node, path tree.Path, key string, s *interp.String) {
	if s != nil {
		out.Put(key, tree.NewScalar(path.Key(key), s.Raw()))
	}
}

func putStringList(out *tree.Node, path tree.Path, key string, list []*interp.String) {
	if len(list) == 0 {
		return
	}
	p := path.Key(key)
	items := make([]*tree.Node, len(list))
	for i, s := range list {
		items[i] = tree.NewScalar(p.Index(i), s.Raw())
	}
	out.Put(key, tree.NewSequence(p, items...))
}

func putDict(out *tree.Node, path tree.Path, key string, d *Dict) {
	if d.Len() == 0 {
		return
	}
	p := path.Key(key)
	node := tree.NewMapping(p)
	d.Range(func(name string, value *interp.String) bool {
		if value == nil {
			node.Put(name, &tree.Node{Kind: tree.Scalar, Path: p.Key(name), Value: "null", Tag: "!!null"})
		} else {
			node.Put(name, tree.NewScalar(p.Key(name), value.Raw()))
		}
		return true
	})
	out.Put(key, node)
}

func putRaw[T fmt.Stringer](out *tree.Node, path tree.Path, key string, v Raw[T]) {
	if !v.IsZero() {
		out.Put(key, tree.NewScalar(path.Key(key), v.Encode()))
	}
}

func putRawList[T fmt.Stringer](out *tree.Node, path tree.Path, key string, list []Raw[T]) {
	if len(list) == 0 {
		return
	}
	p := path.Key(key)
	items := make([]*tree.Node, len(list))
	for i, v := range list {
		items[i] = tree.NewScalar(p.Index(i), v.Encode())
	}
	out.Put(key, tree.NewSequence(p, items...))
}

func putBool(out *tree.Node, path tree.Path, key string, v bool) {
	if v {
		out.Put(key, &tree.Node{Kind: tree.Scalar, Path: path.Key(key), Value: "true", Tag: "!!bool"})
	}
}

// putExtra re-emits passthrough keys after the modeled ones.
func putExtra(out *tree.Node, extra *tree.Node) {
	if extra == nil {
		return
	}
	for _, p := range extra.Pairs {
		child := out.Path.Key(p.Key)
		out.Put(p.Key, p.Value.Clone(child))
	}
}
