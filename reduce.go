package instrument

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-instrument/internal/hydrate"
)

// ReconstructorName identifies the reconstructor recorded in a Reduction.
const ReconstructorName = "instrument.reconstruct_getter"

// Reduction is the persisted form of a Getter. It carries no cache state and
// no reference to the original globals; reconstruction resolves them again.
type Reduction struct {
	Reconstructor string     `json:"reconstructor"`
	Args          ReduceArgs `json:"args"`
}

// ReduceArgs are the arguments handed to the reconstructor.
type ReduceArgs struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// Reduce returns the persisted form of g.
func (g *Getter) Reduce() Reduction {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Reduction{
		Reconstructor: ReconstructorName,
		Args: ReduceArgs{
			Type: g.typeTag,
			Name: g.name,
		},
	}
}

// Reconstruct rebuilds a Getter from args using the default registry.
func Reconstruct(args ReduceArgs, opts ...Option) (*Getter, error) {
	return defaultRegistry.Reconstruct(args, opts...)
}

// Reconstruct rebuilds a Getter bound to the globals published under
// GlobalsName, with the reduced name and an empty cache.
func (r *Registry) Reconstruct(args ReduceArgs, opts ...Option) (*Getter, error) {
	globals, err := r.Globals(GlobalsName)
	if err != nil {
		return nil, err
	}
	g, err := r.Allocate(args.Type)
	if err != nil {
		return nil, err
	}
	cfg := applyOptions(opts)
	cfg.typeTag = args.Type
	return g.init(globals, args.Name, cfg), nil
}

// ToJSON serialises the reduction.
func (r Reduction) ToJSON() ([]byte, error) {
	type alias Reduction
	return json.Marshal(alias(r))
}

var reductionDecoder = hydrate.New[Reduction](
	hydrate.Strict[Reduction](),
	hydrate.Validate[Reduction](validateReduction),
)

// ReductionFromJSON deserialises a payload generated via ToJSON. Unknown
// fields are rejected.
func ReductionFromJSON(payload []byte) (Reduction, error) {
	return reductionDecoder.DecodeJSON(hydrate.Source{Origin: "json", Kind: "reduction"}, payload)
}

// DecodeReduction converts a generic map, e.g. a document column, into a
// Reduction. Unknown fields are rejected.
func DecodeReduction(payload map[string]any) (Reduction, error) {
	return reductionDecoder.Decode(hydrate.Source{Origin: "map", Kind: "reduction"}, payload)
}

func validateReduction(_ hydrate.Source, r *Reduction) error {
	if r.Reconstructor != ReconstructorName {
		return fmt.Errorf("instrument: unknown reconstructor %q", r.Reconstructor)
	}
	if strings.TrimSpace(r.Args.Type) == "" {
		return fmt.Errorf("%w: reduction is missing a type", ErrAllocation)
	}
	return nil
}
