package config

// Diff describes which named components changed between two documents, the
// unit the reload coordinator uses to decide which running components need
// rebuilding versus which can keep running untouched.
type Diff struct {
	AddedSources, RemovedSources, ChangedSources       []string
	AddedTransforms, RemovedTransforms, ChangedTransforms []string
	AddedSinks, RemovedSinks, ChangedSinks             []string
}

// Empty reports whether the diff found no differences at all.
func (d Diff) Empty() bool {
	return len(d.AddedSources) == 0 && len(d.RemovedSources) == 0 && len(d.ChangedSources) == 0 &&
		len(d.AddedTransforms) == 0 && len(d.RemovedTransforms) == 0 && len(d.ChangedTransforms) == 0 &&
		len(d.AddedSinks) == 0 && len(d.RemovedSinks) == 0 && len(d.ChangedSinks) == 0
}

// AffectedComponents lists every component name the diff touches, the set
// the runtime needs to rebuild on reload.
func (d Diff) AffectedComponents() []string {
	var all []string
	all = append(all, d.AddedSources...)
	all = append(all, d.RemovedSources...)
	all = append(all, d.ChangedSources...)
	all = append(all, d.AddedTransforms...)
	all = append(all, d.RemovedTransforms...)
	all = append(all, d.ChangedTransforms...)
	all = append(all, d.AddedSinks...)
	all = append(all, d.RemovedSinks...)
	all = append(all, d.ChangedSinks...)
	return all
}

// DiffDocuments compares two documents component-by-component. Equality is
// by Hash of the individual spec (cheap, JSON-based — matching the
// document-wide Hash used for the no-op short-circuit).
func DiffDocuments(old, new *Document) Diff {
	var d Diff
	d.AddedSources, d.RemovedSources, d.ChangedSources = diffSet(old.Sources, new.Sources, hashAny)
	d.AddedTransforms, d.RemovedTransforms, d.ChangedTransforms = diffSet(old.Transforms, new.Transforms, hashAny)
	d.AddedSinks, d.RemovedSinks, d.ChangedSinks = diffSet(old.Sinks, new.Sinks, hashAny)
	return d
}

func diffSet[T any](oldM, newM map[string]T, hash func(T) string) (added, removed, changed []string) {
	for name := range newM {
		if _, ok := oldM[name]; !ok {
			added = append(added, name)
		}
	}
	for name := range oldM {
		if _, ok := newM[name]; !ok {
			removed = append(removed, name)
		}
	}
	for name, ov := range oldM {
		if nv, ok := newM[name]; ok && hash(ov) != hash(nv) {
			changed = append(changed, name)
		}
	}
	return
}

func hashAny[T any](v T) string {
	return hashDocumentPart(v)
}
