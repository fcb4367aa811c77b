package router

import (
	"fmt"
	"net/url"
)

// Step is one named hop of a generation target: a route name plus the
// params for the levels that hop introduces.
type Step struct {
	Name   string
	Params Params
}

// Generate builds the instruction for a named route. The name is looked up
// on this level first, then in descendants; the instruction covers every
// level from here down to the named route and stops there.
func (rc *Recognizer) Generate(name string, params Params) (*Instruction, error) {
	return rc.GenerateChain([]Step{{Name: name, Params: params}})
}

// GenerateURL is Generate followed by Instruction.URL.
func (rc *Recognizer) GenerateURL(name string, params Params) (string, error) {
	instr, err := rc.GenerateChain([]Step{{Name: name, Params: params}})
	if err != nil {
		return "", err
	}
	return instr.URL(), nil
}

// GenerateChain builds an instruction for an explicit nested target such as
// Parent{id} > Child{post}. Each step is looked up below the route the
// previous step resolved to. Params a step does not consume carry over to
// the next step, where that step's own params win on conflict.
//
// Params still unconsumed after the last step become the query string, or
// fail with ErrUnknownParam when the recognizer rejects extra params.
func (rc *Recognizer) GenerateChain(steps []Step) (*Instruction, error) {
	if len(steps) == 0 {
		return nil, unknownRouteName("")
	}

	type level struct {
		rt     *route
		params Params
	}
	var levels []level
	var carried Params

	cur := rc
	for _, step := range steps {
		if cur == nil {
			return nil, unknownRouteName(step.Name)
		}
		chain := cur.lookup(step.Name)
		if chain == nil {
			return nil, unknownRouteName(step.Name)
		}

		params := make(Params, len(carried)+len(step.Params))
		for k, v := range carried {
			params[k] = v
		}
		for k, v := range step.Params {
			params[k] = v
		}

		used := make(map[string]bool)
		for _, rt := range chain {
			bound, err := bind(rt, step.Name, params)
			if err != nil {
				return nil, err
			}
			for k := range bound {
				used[k] = true
			}
			levels = append(levels, level{rt: rt, params: bound})
		}

		carried = make(Params)
		for k, v := range params {
			if !used[k] {
				carried[k] = v
			}
		}

		cur = chain[len(chain)-1].children
	}

	extras := make(url.Values)
	if len(carried) > 0 {
		leftover := carried.Keys()
		if rc.extra == ExtraParamsReject {
			return nil, unknownParam(steps[len(steps)-1].Name, leftover)
		}
		for _, k := range leftover {
			extras.Set(k, carried[k])
		}
	}

	var instr *Instruction
	for i := len(levels) - 1; i >= 0; i-- {
		instr = newInstruction(levels[i].rt, levels[i].params, instr)
	}
	if len(extras) > 0 {
		instr = instr.withQuery(extras)
	}
	return instr, nil
}

// bind picks the params a route's pattern needs out of params.
func bind(rt *route, name string, params Params) (Params, error) {
	bound := make(Params)
	for _, seg := range rt.pattern.segments {
		if !seg.isParam {
			continue
		}
		val, ok := params[seg.value]
		if !ok {
			return nil, missingParam(name, seg.value)
		}
		if err := ValidateParam(val, seg.paramType); err != nil {
			return nil, fmt.Errorf("%w: %w", missingParam(name, seg.value), err)
		}
		bound[seg.value] = val
	}
	return bound, nil
}
