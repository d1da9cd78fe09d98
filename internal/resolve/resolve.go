// Package resolve matches alias keys against secondary-corpus declarations. Each needed alias resolves to the structured comment of the first documented declaration
// with that exact name, or stays unresolved.
package resolve

import (
	"sort"

	"github.com/codalotl/docsync/internal/cheader"
)

// resolvable are the declaration kinds an alias may name. Unions, variables and macros are never matched.
var resolvable = map[cheader.Kind]bool{
	cheader.KindFunction:     true,
	cheader.KindStruct:       true,
	cheader.KindTypedef:      true,
	cheader.KindEnum:         true,
	cheader.KindEnumConstant: true,
}

// Resolver accumulates resolutions over one or more batches of declarations. The first match for an alias wins; later matches are ignored.
type Resolver struct {
	needed map[string]bool
	found  map[string]cheader.Decl
}

// New returns a Resolver for the aliases in needed.
func New(needed []string) *Resolver {
	r := &Resolver{needed: make(map[string]bool, len(needed)), found: make(map[string]cheader.Decl)}
	for _, a := range needed {
		r.needed[a] = true
	}
	return r
}

// Add considers decls in order.
func (r *Resolver) Add(decls []cheader.Decl) {
	for _, d := range decls {
		if !resolvable[d.Kind] || d.Comment == "" || !r.needed[d.Name] {
			continue
		}
		if _, ok := r.found[d.Name]; ok {
			continue
		}
		r.found[d.Name] = d
	}
}

// Done reports whether every needed alias is resolved.
func (r *Resolver) Done() bool {
	return len(r.found) == len(r.needed)
}

// Lookup returns the declaration alias resolved to.
func (r *Resolver) Lookup(alias string) (cheader.Decl, bool) {
	d, ok := r.found[alias]
	return d, ok
}

// Resolutions returns a comment for every needed alias. Unresolved aliases map to "".
func (r *Resolver) Resolutions() map[string]string {
	out := make(map[string]string, len(r.needed))
	for a := range r.needed {
		out[a] = r.found[a].Comment
	}
	return out
}

// Unresolved returns the sorted aliases with no match.
func (r *Resolver) Unresolved() []string {
	var out []string
	for a := range r.needed {
		if _, ok := r.found[a]; !ok {
			out = append(out, a)
		}
	}
	sort.Strings(out)
	return out
}

// Resolve is New(needed), Add(decls), Resolutions().
func Resolve(needed []string, decls []cheader.Decl) map[string]string {
	r := New(needed)
	r.Add(decls)
	return r.Resolutions()
}
