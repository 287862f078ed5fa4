package job

// FileRef is a CWL input binding for a file or directory.
type FileRef struct {
	Class string `yaml:"class"`
	Path  string `yaml:"path"`
}

// NewFile returns a CWL File reference for path.
func NewFile(path string) FileRef {
	return FileRef{Class: "File", Path: path}
}

// NewDirectory returns a CWL Directory reference for path.
func NewDirectory(path string) FileRef {
	return FileRef{Class: "Directory", Path: path}
}

// WithStagingDir returns a copy of doc with a "staging_dir" key mapped
// to a Directory reference for dir. The input document is not mutated.
func WithStagingDir(doc Document, dir string) Document {
	out := clone(doc)
	out["staging_dir"] = NewDirectory(dir)
	return out
}

// WithReads returns a copy of doc with key mapped to an ordered list of
// File references, one per path, preserving the given order. The input
// document is not mutated.
func WithReads(doc Document, key string, paths []string) Document {
	refs := make([]FileRef, 0, len(paths))
	for _, p := range paths {
		refs = append(refs, NewFile(p))
	}
	out := clone(doc)
	out[key] = refs
	return out
}

// clone makes a shallow copy of doc. Merges only add top-level keys, so
// nested values can be shared.
func clone(doc Document) Document {
	out := make(Document, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}
	return out
}
