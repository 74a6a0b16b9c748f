// Package compose implements a typed, round-trippable in-memory model
// for docker-compose documents.
//
// The pipeline runs NodeTree -> version detection -> schema validation ->
// field decoding -> typed Document, with optional interpolation and
// multi-document merge passes, and back out through the encoder. Decoded
// documents are treated as immutable: the merge engine always builds a
// new Document rather than touching its inputs, so documents can be
// shared freely across goroutines.
package compose

import (
	"github.com/cameronsjo/stevedore/compose/interp"
	"github.com/cameronsjo/stevedore/tree"
)

// Document is one parsed compose file.
type Document struct {
	// Version is the schema version tag ("2", "2.1", ...). "1" for
	// legacy files without a version key.
	Version string

	// Services maps service name to definition, preserving file order.
	Services *Map[*Service]

	// Volumes and Networks are the optional top-level sections.
	Volumes  *Map[*Volume]
	Networks *Map[*Network]

	// Extra holds unmodeled top-level keys (x- extension fields and
	// keys from newer schema revisions), preserved verbatim.
	Extra *tree.Node
}

// NewDocument returns an empty document for the given version.
func NewDocument(version string) *Document {
	return &Document{
		Version:  version,
		Services: NewMap[*Service](),
		Volumes:  NewMap[*Volume](),
		Networks: NewMap[*Network](),
	}
}

// Service is one service definition. Fields correspond to compose v2
// service keys; anything unmodeled lands in Extra.
type Service struct {
	Build         *Build
	CapAdd        []*interp.String
	CapDrop       []*interp.String
	Command       *CommandLine
	ContainerName *interp.String
	DependsOn     []string
	DNS           []*interp.String
	DNSSearch     []*interp.String
	Domainname    *interp.String
	Entrypoint    *CommandLine
	EnvFiles      []*interp.String
	Environment   *Dict
	Expose        []*interp.String
	ExternalLinks []Raw[AliasedName]
	ExtraHosts    []Raw[HostMapping]
	Hostname      *interp.String
	Image         Raw[ImageSpec]
	Labels        *Dict
	Links         []Raw[AliasedName]
	MemLimit      Raw[MemorySize]
	NetworkMode   *interp.String
	Ports         []Raw[PortMapping]
	Privileged    bool
	Restart       Raw[RestartMode]
	SecurityOpt   []*interp.String
	ShmSize       Raw[MemorySize]
	StdinOpen     bool
	StopSignal    *interp.String
	Tmpfs         []*interp.String
	TTY           bool
	User          *interp.String
	Volumes       []Raw[VolumeMount]
	WorkingDir    *interp.String

	// Extra holds unmodeled service keys, preserved verbatim through
	// decode, merge and encode.
	Extra *tree.Node
}

// Build is a service build specification. The short on-disk shape is a
// bare context string; the long shape is a mapping with context,
// dockerfile and args keys.
type Build struct {
	Context    *interp.String
	Dockerfile *interp.String
	Args       *Dict
}

// Volume is one top-level volume definition.
type Volume struct {
	Driver     *interp.String
	DriverOpts *Dict
	External   *External
	Extra      *tree.Node
}

// Network is one top-level network definition.
type Network struct {
	Driver     *interp.String
	DriverOpts *Dict
	External   *External
	Extra      *tree.Node
}

// External marks a volume or network as managed outside this document.
// The on-disk shapes are `external: true` and `external: {name: ...}`.
type External struct {
	// Name is the out-of-document resource name; nil means the section
	// key doubles as the name.
	Name *interp.String
}
