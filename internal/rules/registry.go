package rules

// GenericPackType is the registry key of the fallback pack used for
// unknown decision types.
const GenericPackType = "generic"

// Registry holds rule packs keyed by decision type. It is constructed once
// at process start, passed explicitly to callers, and treated as read-only
// reference data thereafter.
type Registry struct {
	packs    map[string]RulePack
	fallback RulePack
}

// NewRegistry builds a registry from the given packs. The pack whose
// DecisionType is GenericPackType becomes the fallback; registries without
// one fall back to an empty pack, which scores as fully passing.
func NewRegistry(packs ...RulePack) *Registry {
	r := &Registry{packs: make(map[string]RulePack, len(packs))}
	for _, p := range packs {
		r.packs[p.DecisionType] = p
		if p.DecisionType == GenericPackType {
			r.fallback = p
		}
	}
	return r
}

// Pack returns the rule pack for a decision type, or the generic fallback
// when the type is unknown.
func (r *Registry) Pack(decisionType string) RulePack {
	if p, ok := r.packs[decisionType]; ok {
		return p
	}
	return r.fallback
}

// DecisionTypes returns the registered decision types, fallback included.
func (r *Registry) DecisionTypes() []string {
	types := make([]string, 0, len(r.packs))
	for t := range r.packs {
		types = append(types, t)
	}
	return types
}
