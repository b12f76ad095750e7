package compile

import (
	"context"
	"sort"

	"github.com/vk/qresgo/internal/dag"
	"github.com/vk/qresgo/internal/model"
	"github.com/vk/qresgo/internal/symbolic"
)

// compileNode compiles a single routine given the substitutions handed down
// by its parent, recursing into children in dependency order. Information
// flows both ways in the one pass: parent inputs and linked-param values
// flow down, compiled child port sizes and resources flow back up into
// sibling and parent resolution, which is why children are visited in
// topological order rather than in two independent sweeps.
func compileNode[T any](ctx context.Context, r *model.Routine[T], b symbolic.Backend[T], inputs map[string]T, path string) (*model.Routine[T], error) {
	for _, protected := range r.Repetition.ProtectedSymbols() {
		if _, bound := inputs[protected]; bound {
			return nil, errorf(path, "substitution target %q shadows the repetition's reserved symbol", protected)
		}
	}

	out := r.WithChildren(nil)

	// Constraints: substitute and classify. Satisfied constraints vanish,
	// violated ones abort with both the symbolic and the evaluated forms,
	// anything undecidable is carried forward.
	var surviving []model.Constraint[T]
	for _, c := range r.Constraints {
		lhs, err := b.SubstituteAll(c.LHS, inputs)
		if err != nil {
			return nil, wrapf(path, err, "substituting constraint")
		}
		rhs, err := b.SubstituteAll(c.RHS, inputs)
		if err != nil {
			return nil, wrapf(path, err, "substituting constraint")
		}
		switch b.Compare(lhs, rhs) {
		case symbolic.Equal:
		case symbolic.Unequal:
			return nil, errorf(path, "violated constraint: %s = %s evaluated to %s = %s",
				b.Serialize(c.LHS), b.Serialize(c.RHS), b.Serialize(lhs), b.Serialize(rhs))
		default:
			surviving = append(surviving, model.Constraint[T]{LHS: lhs, RHS: rhs, Status: model.Inconclusive})
		}
	}
	out.Constraints = surviving

	// Local variables, in dependency order. scope accumulates inputs plus
	// every local resolved so far.
	scope := make(map[string]T, len(inputs)+len(r.LocalVariables))
	for k, v := range inputs {
		scope[k] = v
	}
	localOrder, err := localVariableOrder(r, b, path)
	if err != nil {
		return nil, err
	}
	resolvedLocals := make(map[string]T, len(r.LocalVariables))
	for _, name := range localOrder {
		v, err := b.SubstituteAll(r.LocalVariables[name], scope)
		if err != nil {
			return nil, wrapf(path, err, "resolving local variable %q", name)
		}
		resolvedLocals[name] = v
		scope[name] = v
	}
	out.LocalVariables = resolvedLocals

	// Linked-parameter inversion: the substituted source value of each link
	// becomes the inbound binding of the targeted child input param.
	childParamSubs := make(map[string]map[string]T)
	for _, src := range r.SortedLinkSources() {
		srcExpr, err := b.AsExpression(src)
		if err != nil {
			return nil, wrapf(path, err, "parsing linked param source %q", src)
		}
		val, err := b.SubstituteAll(srcExpr, scope)
		if err != nil {
			return nil, wrapf(path, err, "substituting linked param source %q", src)
		}
		for _, tgt := range r.LinkedParams[src] {
			m := childParamSubs[tgt.Path]
			if m == nil {
				m = make(map[string]T)
				childParamSubs[tgt.Path] = m
			}
			m[tgt.Param] = val
		}
	}
	out.LinkedParams = nil

	// Non-output ports resolve against the inbound scope; every resolved
	// size that feeds a connection becomes available to its target.
	portValues := make(map[string]T, len(r.Ports))
	available := make(map[model.Endpoint]T)
	for _, name := range out.SortedPortNames() {
		port := out.Ports[name]
		if port.IsOutput() {
			continue
		}
		size, err := portSize(port, b)
		if err != nil {
			return nil, wrapf(path, err, "resolving port %q", name)
		}
		v, err := b.SubstituteAll(size, scope)
		if err != nil {
			return nil, wrapf(path, err, "resolving port %q", name)
		}
		port.Size = &v
		portValues[model.PortSymbol(name)] = v
	}
	for src, tgt := range r.Connections {
		if !src.IsOwn() {
			continue
		}
		if v, ok := portValues[model.PortSymbol(src.Port)]; ok {
			available[tgt] = v
		}
	}

	// Children, in topological order: the declared order when already
	// valid, a full sort otherwise.
	childOrder, _, err := r.SortedChildren()
	if err != nil {
		return nil, wrapf(path, err, "ordering children")
	}
	children := make(map[string]*model.Routine[T], len(childOrder))
	for _, childName := range childOrder {
		child := r.Children[childName]
		childInputs := make(map[string]T)
		for k, v := range childParamSubs[childName] {
			childInputs[k] = v
		}
		for portName := range child.Ports {
			if v, ok := available[model.Endpoint{Routine: childName, Port: portName}]; ok {
				childInputs[model.PortSymbol(portName)] = v
			}
		}
		compiledChild, err := compileNode(ctx, child, b, childInputs, path+"."+childName)
		if err != nil {
			return nil, err
		}
		children[childName] = compiledChild

		// Harvest the child's resolved port sizes for not-yet-compiled
		// siblings and for our own output ports.
		for src, tgt := range r.Connections {
			if src.Routine != childName {
				continue
			}
			if p, ok := compiledChild.Ports[src.Port]; ok && p.Size != nil {
				available[tgt] = *p.Size
			}
		}
	}
	out.Children = children

	// Output ports resolve last, against everything harvested.
	outputScope := make(map[string]T, len(scope)+len(portValues))
	for k, v := range scope {
		outputScope[k] = v
	}
	for k, v := range portValues {
		outputScope[k] = v
	}
	for _, name := range out.SortedPortNames() {
		port := out.Ports[name]
		if !port.IsOutput() {
			continue
		}
		if v, ok := available[model.Endpoint{Port: name}]; ok {
			if port.Size == nil {
				size := v
				port.Size = &size
				continue
			}
			outputScope[model.PortSymbol(name)] = v
		}
		if port.Size == nil {
			continue
		}
		v, err := b.SubstituteAll(*port.Size, outputScope)
		if err != nil {
			return nil, wrapf(path, err, "resolving output port %q", name)
		}
		port.Size = &v
	}

	// Resources resolve against inputs, locals, port values and every
	// compiled child resource addressed as "<child>.<resource>". Port
	// values belong in this scope: a resource expression may reference a
	// #port symbol and must see the same resolved width the ports do.
	resourceScope := make(map[string]T, len(outputScope))
	for k, v := range outputScope {
		resourceScope[k] = v
	}
	for childName, compiledChild := range children {
		for resName, res := range compiledChild.Resources {
			resourceScope[model.ResourceRef(childName, resName)] = res.Value
		}
	}
	for _, name := range out.SortedResourceNames() {
		res := out.Resources[name]
		v, err := b.SubstituteAll(res.Value, resourceScope)
		if err != nil {
			return nil, wrapf(path, err, "resolving resource %q", name)
		}
		res.Value = v
	}

	if r.Repetition != nil {
		rep, err := r.Repetition.Transform(func(e T) (T, error) {
			return b.SubstituteAll(e, scope)
		})
		if err != nil {
			return nil, wrapf(path, err, "resolving repetition")
		}
		out.Repetition = rep
	}

	out.InputParams = surviveInputParams(out, b)
	return out, nil
}

// portSize returns the port's size expression, defaulting to the canonical
// port symbol when the size is still underived.
func portSize[T any](port *model.Port[T], b symbolic.Backend[T]) (T, error) {
	if port.Size != nil {
		return *port.Size, nil
	}
	return b.AsExpression(model.PortSymbol(port.Name))
}

// localVariableOrder topologically sorts local variables by their
// inter-dependencies; a cycle has no valid resolution order and aborts.
func localVariableOrder[T any](r *model.Routine[T], b symbolic.Backend[T], path string) ([]string, error) {
	g := dag.New()
	for name := range r.LocalVariables {
		g.AddNode(name)
	}
	for name, expr := range r.LocalVariables {
		for _, sym := range b.FreeSymbols(expr) {
			if sym == name {
				return nil, errorf(path, "local variable %q depends on itself", name)
			}
			if _, isLocal := r.LocalVariables[sym]; isLocal {
				if err := g.AddEdge(sym, name); err != nil {
					return nil, wrapf(path, err, "ordering local variables")
				}
			}
		}
	}
	order, err := g.Sort(r.SortedLocalVariableNames())
	if err != nil {
		return nil, wrapf(path, err, "ordering local variables")
	}
	return order, nil
}

// surviveInputParams recomputes a compiled unit's input params as whatever
// free symbols survived substitution in its resources and port sizes, plus
// the params its compiled children still report.
func surviveInputParams[T any](r *model.Routine[T], b symbolic.Backend[T]) []string {
	free := map[string]struct{}{}
	for _, name := range r.SortedResourceNames() {
		for _, sym := range b.FreeSymbols(r.Resources[name].Value) {
			free[sym] = struct{}{}
		}
	}
	for _, name := range r.SortedPortNames() {
		if port := r.Ports[name]; port.Size != nil {
			for _, sym := range b.FreeSymbols(*port.Size) {
				free[sym] = struct{}{}
			}
		}
	}
	for _, child := range r.Children {
		for _, p := range child.InputParams {
			free[p] = struct{}{}
		}
	}
	out := make([]string, 0, len(free))
	for sym := range free {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
