// Package merge combines an ordered sequence of decoded compose
// documents, base first and overrides last, into a single document.
//
// Strategies per field kind: scalar fields take the last non-absent
// value, mapping fields (environment, labels, build args, driver
// options) union key-wise with override values winning for shared keys,
// dependency lists union with duplicates dropped, and ordered sequences
// (ports, volumes, dns and friends) are replaced wholesale by an
// override that sets them. Passthrough keys deep-merge when both layers
// hold mappings and are replaced otherwise.
//
// Merging is not commutative but it is associative, and inputs are
// never modified: the result is always a fresh document.
package merge

import (
	"errors"
	"fmt"

	"github.com/cameronsjo/stevedore/compose"
	"github.com/cameronsjo/stevedore/compose/interp"
	"github.com/cameronsjo/stevedore/tree"
)

// ErrNoDocuments is returned when Merge is called with nothing to merge.
var ErrNoDocuments = errors.New("no documents to merge")

// ErrVersionMismatch is returned when layers declare different schema
// versions. Overlays must share the base document's version.
var ErrVersionMismatch = errors.New("version mismatch between merge layers")

// TypeConflictError reports two structured layers that cannot be
// reconciled: the same passthrough path holds a mapping in one layer
// and a sequence in the other, so neither key-union nor replacement is
// clearly intended.
type TypeConflictError struct {
	Path     tree.Path
	Base     tree.Kind
	Override tree.Kind
}

func (e *TypeConflictError) Error() string {
	return fmt.Sprintf("%s: cannot merge %s over %s", e.Path, e.Override, e.Base)
}

// Merge folds the given layers left to right into a new document.
// Merging a single document returns a copy equal to it.
func Merge(layers ...*compose.Document) (*compose.Document, error) {
	if len(layers) == 0 {
		return nil, ErrNoDocuments
	}
	out := cloneDocument(layers[0])
	for _, overlay := range layers[1:] {
		if overlay.Version != out.Version {
			return nil, fmt.Errorf("%w: %q and %q", ErrVersionMismatch, out.Version, overlay.Version)
		}
		if err := mergeDocument(out, overlay); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func mergeDocument(out, overlay *compose.Document) error {
	var err error
	overlay.Services.Range(func(name string, svc *compose.Service) bool {
		base, ok := out.Services.Get(name)
		if !ok {
			out.Services.Set(name, cloneService(svc))
			return true
		}
		var merged *compose.Service
		if merged, err = mergeService(base, svc); err != nil {
			err = fmt.Errorf("service %q: %w", name, err)
			return false
		}
		out.Services.Set(name, merged)
		return true
	})
	if err != nil {
		return err
	}

	overlay.Volumes.Range(func(name string, vol *compose.Volume) bool {
		base, ok := out.Volumes.Get(name)
		if !ok {
			out.Volumes.Set(name, cloneVolume(vol))
			return true
		}
		var merged *compose.Volume
		if merged, err = mergeVolume(base, vol); err != nil {
			err = fmt.Errorf("volume %q: %w", name, err)
			return false
		}
		out.Volumes.Set(name, merged)
		return true
	})
	if err != nil {
		return err
	}

	overlay.Networks.Range(func(name string, net *compose.Network) bool {
		base, ok := out.Networks.Get(name)
		if !ok {
			out.Networks.Set(name, cloneNetwork(net))
			return true
		}
		var merged *compose.Network
		if merged, err = mergeNetwork(base, net); err != nil {
			err = fmt.Errorf("network %q: %w", name, err)
			return false
		}
		out.Networks.Set(name, merged)
		return true
	})
	if err != nil {
		return err
	}

	out.Extra, err = mergeNodes(out.Extra, overlay.Extra)
	return err
}

func mergeService(base, overlay *compose.Service) (*compose.Service, error) {
	out := cloneService(base)

	if overlay.Build != nil {
		if out.Build == nil {
			out.Build = &compose.Build{}
		}
		if overlay.Build.Context != nil {
			out.Build.Context = overlay.Build.Context
		}
		if overlay.Build.Dockerfile != nil {
			out.Build.Dockerfile = overlay.Build.Dockerfile
		}
		out.Build.Args = mergeDict(out.Build.Args, overlay.Build.Args)
	}
	if overlay.CapAdd != nil {
		out.CapAdd = cloneStrings(overlay.CapAdd)
	}
	if overlay.CapDrop != nil {
		out.CapDrop = cloneStrings(overlay.CapDrop)
	}
	if overlay.Command != nil {
		out.Command = overlay.Command
	}
	if overlay.ContainerName != nil {
		out.ContainerName = overlay.ContainerName
	}
	out.DependsOn = mergeNameSet(out.DependsOn, overlay.DependsOn)
	if overlay.DNS != nil {
		out.DNS = cloneStrings(overlay.DNS)
	}
	if overlay.DNSSearch != nil {
		out.DNSSearch = cloneStrings(overlay.DNSSearch)
	}
	if overlay.Domainname != nil {
		out.Domainname = overlay.Domainname
	}
	if overlay.Entrypoint != nil {
		out.Entrypoint = overlay.Entrypoint
	}
	if overlay.EnvFiles != nil {
		out.EnvFiles = cloneStrings(overlay.EnvFiles)
	}
	out.Environment = mergeDict(out.Environment, overlay.Environment)
	if overlay.Expose != nil {
		out.Expose = cloneStrings(overlay.Expose)
	}
	if overlay.ExternalLinks != nil {
		out.ExternalLinks = cloneRaws(overlay.ExternalLinks)
	}
	if overlay.ExtraHosts != nil {
		out.ExtraHosts = cloneRaws(overlay.ExtraHosts)
	}
	if overlay.Hostname != nil {
		out.Hostname = overlay.Hostname
	}
	if !overlay.Image.IsZero() {
		out.Image = overlay.Image
	}
	out.Labels = mergeDict(out.Labels, overlay.Labels)
	if overlay.Links != nil {
		out.Links = cloneRaws(overlay.Links)
	}
	if !overlay.MemLimit.IsZero() {
		out.MemLimit = overlay.MemLimit
	}
	if overlay.NetworkMode != nil {
		out.NetworkMode = overlay.NetworkMode
	}
	if overlay.Ports != nil {
		out.Ports = cloneRaws(overlay.Ports)
	}
	out.Privileged = out.Privileged || overlay.Privileged
	if !overlay.Restart.IsZero() {
		out.Restart = overlay.Restart
	}
	if overlay.SecurityOpt != nil {
		out.SecurityOpt = cloneStrings(overlay.SecurityOpt)
	}
	if !overlay.ShmSize.IsZero() {
		out.ShmSize = overlay.ShmSize
	}
	out.StdinOpen = out.StdinOpen || overlay.StdinOpen
	if overlay.StopSignal != nil {
		out.StopSignal = overlay.StopSignal
	}
	if overlay.Tmpfs != nil {
		out.Tmpfs = cloneStrings(overlay.Tmpfs)
	}
	out.TTY = out.TTY || overlay.TTY
	if overlay.User != nil {
		out.User = overlay.User
	}
	if overlay.Volumes != nil {
		out.Volumes = cloneRaws(overlay.Volumes)
	}
	if overlay.WorkingDir != nil {
		out.WorkingDir = overlay.WorkingDir
	}

	var err error
	out.Extra, err = mergeNodes(out.Extra, overlay.Extra)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func mergeVolume(base, overlay *compose.Volume) (*compose.Volume, error) {
	out := cloneVolume(base)
	if overlay.Driver != nil {
		out.Driver = overlay.Driver
	}
	out.DriverOpts = mergeDict(out.DriverOpts, overlay.DriverOpts)
	if overlay.External != nil {
		out.External = overlay.External
	}
	var err error
	out.Extra, err = mergeNodes(out.Extra, overlay.Extra)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func mergeNetwork(base, overlay *compose.Network) (*compose.Network, error) {
	out := cloneNetwork(base)
	if overlay.Driver != nil {
		out.Driver = overlay.Driver
	}
	out.DriverOpts = mergeDict(out.DriverOpts, overlay.DriverOpts)
	if overlay.External != nil {
		out.External = overlay.External
	}
	var err error
	out.Extra, err = mergeNodes(out.Extra, overlay.Extra)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// mergeDict unions two ordered mappings. Base keys keep their order;
// override values win for shared keys and new keys append.
func mergeDict(base, overlay *compose.Dict) *compose.Dict {
	if overlay.Len() == 0 {
		return base
	}
	out := base.Clone()
	overlay.Range(func(name string, value *interp.String) bool {
		out.Set(name, value)
		return true
	})
	return out
}

// mergeNameSet unions two dependency lists, base order first, override
// additions appended, duplicates dropped.
func mergeNameSet(base, overlay []string) []string {
	if len(overlay) == 0 {
		return base
	}
	seen := make(map[string]bool, len(base))
	out := make([]string, 0, len(base)+len(overlay))
	for _, name := range base {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, name := range overlay {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// mergeNodes merges passthrough trees. Mappings merge key-wise, a
// scalar override replaces whatever the base held, and a mapping on one
// side with a sequence on the other is a type conflict.
func mergeNodes(base, overlay *tree.Node) (*tree.Node, error) {
	if overlay == nil {
		return base, nil
	}
	if base == nil {
		return overlay.Clone(overlay.Path), nil
	}
	if base.Kind != overlay.Kind {
		if base.Kind != tree.Scalar && overlay.Kind != tree.Scalar {
			return nil, &TypeConflictError{Path: overlay.Path, Base: base.Kind, Override: overlay.Kind}
		}
		return overlay.Clone(base.Path), nil
	}
	if base.Kind != tree.Mapping {
		return overlay.Clone(base.Path), nil
	}
	out := base.Clone(base.Path)
	for _, p := range overlay.Pairs {
		existing := out.Get(p.Key)
		merged, err := mergeNodes(existing, p.Value)
		if err != nil {
			return nil, err
		}
		out.Put(p.Key, merged)
	}
	return out, nil
}

func cloneDocument(doc *compose.Document) *compose.Document {
	out := compose.NewDocument(doc.Version)
	doc.Services.Range(func(name string, svc *compose.Service) bool {
		out.Services.Set(name, cloneService(svc))
		return true
	})
	doc.Volumes.Range(func(name string, vol *compose.Volume) bool {
		out.Volumes.Set(name, cloneVolume(vol))
		return true
	})
	doc.Networks.Range(func(name string, net *compose.Network) bool {
		out.Networks.Set(name, cloneNetwork(net))
		return true
	})
	if doc.Extra != nil {
		out.Extra = doc.Extra.Clone(doc.Extra.Path)
	}
	return out
}

// cloneService copies the mutable containers of a service. Leaf values
// are immutable once decoded and are shared between the copy and the
// original.
func cloneService(svc *compose.Service) *compose.Service {
	out := *svc
	if svc.Build != nil {
		b := *svc.Build
		b.Args = svc.Build.Args.Clone()
		out.Build = &b
	}
	out.CapAdd = cloneStrings(svc.CapAdd)
	out.CapDrop = cloneStrings(svc.CapDrop)
	out.DependsOn = append([]string(nil), svc.DependsOn...)
	out.DNS = cloneStrings(svc.DNS)
	out.DNSSearch = cloneStrings(svc.DNSSearch)
	out.EnvFiles = cloneStrings(svc.EnvFiles)
	out.Environment = svc.Environment.Clone()
	out.Expose = cloneStrings(svc.Expose)
	out.ExternalLinks = cloneRaws(svc.ExternalLinks)
	out.ExtraHosts = cloneRaws(svc.ExtraHosts)
	out.Labels = svc.Labels.Clone()
	out.Links = cloneRaws(svc.Links)
	out.Ports = cloneRaws(svc.Ports)
	out.SecurityOpt = cloneStrings(svc.SecurityOpt)
	out.Tmpfs = cloneStrings(svc.Tmpfs)
	out.Volumes = cloneRaws(svc.Volumes)
	if svc.Extra != nil {
		out.Extra = svc.Extra.Clone(svc.Extra.Path)
	}
	return &out
}

func cloneVolume(vol *compose.Volume) *compose.Volume {
	out := *vol
	out.DriverOpts = vol.DriverOpts.Clone()
	if vol.Extra != nil {
		out.Extra = vol.Extra.Clone(vol.Extra.Path)
	}
	return &out
}

func cloneNetwork(net *compose.Network) *compose.Network {
	out := *net
	out.DriverOpts = net.DriverOpts.Clone()
	if net.Extra != nil {
		out.Extra = net.Extra.Clone(net.Extra.Path)
	}
	return &out
}

func cloneStrings(list []*interp.String) []*interp.String {
	if list == nil {
		return nil
	}
	return append([]*interp.String(nil), list...)
}

func cloneRaws[T fmt.Stringer](list []compose.Raw[T]) []compose.Raw[T] {
	if list == nil {
		return nil
	}
	return append([]compose.Raw[T](nil), list...)
}
