// Package token contains the placeholder families that a provisioning
// template may embed, and the pure single-pass substitution over them.
// Remote lookups are delegated through the Lookup interface; nothing in this
// package performs I/O on its own.
package token

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
)

// Kind identifies a token family.
type Kind int

const (
	KindContentTypeID Kind = iota + 1
	KindFieldTitle
	KindGroupID
	KindListID
	KindListURL
	KindParameter
	KindRoleDefinition
	KindSiteCollectionTermStoreID
	KindTermSetID
	KindTermStoreID
)

var kindNames = map[Kind]string{
	KindContentTypeID:             "contenttypeid",
	KindFieldTitle:                "fieldtitle",
	KindGroupID:                   "groupid",
	KindListID:                    "listid",
	KindListURL:                   "listurl",
	KindParameter:                 "parameter",
	KindRoleDefinition:            "roledefinition",
	KindSiteCollectionTermStoreID: "sitecollectiontermstoreid",
	KindTermSetID:                 "termsetid",
	KindTermStoreID:               "termstoreid",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// WebRef is the site context a token was computed against.
type WebRef struct {
	ID                string
	ServerRelativeURL string
}

// Lookup performs the remote resolutions some token kinds need.
type Lookup interface {
	// SiteCollectionTermStoreID returns the default term store of the site
	// collection that owns web.
	SiteCollectionTermStoreID(ctx context.Context, web WebRef) (string, error)
}

// ErrNoLookup is returned when a token needs a remote lookup and none was given.
var ErrNoLookup = errors.New("token requires a remote lookup")

// Definition is one substitutable placeholder family.
type Definition struct {
	kind     Kind
	patterns []string
	regexes  []*regexp.Regexp
	value    string

	mu    sync.Mutex
	web   WebRef
	cache cell
}

// cell memoizes a resolved value. The generation advances on every clear so
// that a resolution started before a clear never repopulates the cache.
type cell struct {
	value      string
	valid      bool
	generation uint64
}

func newDefinition(kind Kind, web WebRef, value string, patterns ...string) *Definition {
	d := &Definition{
		kind:     kind,
		patterns: patterns,
		value:    value,
		web:      web,
	}
	d.regexes = make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		d.regexes[i] = compile(p)
	}
	return d
}

// Kind returns the token family.
func (d *Definition) Kind() Kind { return d.kind }

// Tokens returns the match patterns.
func (d *Definition) Tokens() []string {
	out := make([]string, len(d.patterns))
	copy(out, d.patterns)
	return out
}

// Regex returns one case-insensitive matcher per pattern.
func (d *Definition) Regex() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(d.regexes))
	copy(out, d.regexes)
	return out
}

// RegexForToken compiles a single pattern into a case-insensitive matcher.
func (d *Definition) RegexForToken(pattern string) *regexp.Regexp {
	for i, p := range d.patterns {
		if p == pattern {
			return d.regexes[i]
		}
	}
	return compile(pattern)
}

// TokenLength returns the length of the longest pattern.
func (d *Definition) TokenLength() int {
	longest := 0
	for _, p := range d.patterns {
		if len(p) > longest {
			longest = len(p)
		}
	}
	return longest
}

// Web returns the site context the token is bound to.
func (d *Definition) Web() WebRef {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.web
}

// Rebind moves the token onto another site context and clears its cache.
func (d *Definition) Rebind(web WebRef) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.web = web
	d.clearLocked()
}

// ClearCache invalidates the memoized value.
func (d *Definition) ClearCache() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clearLocked()
}

func (d *Definition) clearLocked() {
	d.cache.value = ""
	d.cache.valid = false
	d.cache.generation++
}

// Generation returns the number of times the cache has been cleared.
func (d *Definition) Generation() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cache.generation
}

// Cached returns the memoized value, if any.
func (d *Definition) Cached() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cache.value, d.cache.valid
}

// ReplaceValue returns the replacement for this token, resolving it on first
// use and memoizing the result until the cache is cleared.
func (d *Definition) ReplaceValue(ctx context.Context, lookup Lookup) (string, error) {
	d.mu.Lock()
	if d.cache.valid {
		v := d.cache.value
		d.mu.Unlock()
		return v, nil
	}
	gen := d.cache.generation
	web := d.web
	d.mu.Unlock()

	var v string
	switch d.kind {
	case KindSiteCollectionTermStoreID:
		if lookup == nil {
			return "", ErrNoLookup
		}
		id, err := lookup.SiteCollectionTermStoreID(ctx, web)
		if err != nil {
			return "", fmt.Errorf("failed to resolve %s: %w", d.patterns[0], err)
		}
		v = id
	default:
		v = d.value
	}

	d.mu.Lock()
	if d.cache.generation == gen {
		d.cache.value = v
		d.cache.valid = true
	}
	d.mu.Unlock()
	return v, nil
}

func (d *Definition) String() string {
	return fmt.Sprintf("%s %v", d.kind, d.patterns)
}
