// Copyright 2022 Harald Albrecht.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sparouter

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"regexp"
	"strings"

	"github.com/gorilla/mux"
)

// baseRe matches the base element in the entry document so that it can be
// rewritten to the base path the SPA is actually served from. The non-greedy
// "*?" keeps it from swallowing everything up to the last empty element.
var baseRe = regexp.MustCompile(`(<base href=").*?("\s*/?>)`)

// Router implements an http.Handler serving an SPA's entry document on the
// root path as well as on all client routes, and static assets on all other
// paths. Which is which is decided by Classify, evaluated as part of an
// explicit, ordered routing table.
type Router struct {
	fs            fs.FS         // the FS to serve the entry document and static assets from.
	entry         string        // unrooted, slash-separated path of the entry document inside fs.
	maxDepth      int           // maximum number of path segments of client routes; <= 0 is unlimited.
	entryRewriter EntryRewriter // optional application-specific entry document rewriting.
	mux           *mux.Router
}

// Option sets optional properties at the time of creating a Router.
type Option func(*Router)

// EntryRewriter rewrites (parts of) the entry document contents before
// delivering it to a client, after the base element has been updated.
type EntryRewriter func(r *http.Request, entry string) string

// WithMaxDepth sets the maximum number of path segments a client route might
// have in order to still get forwarded to the entry document. Zero or a
// negative depth removes the limit.
func WithMaxDepth(depth int) Option {
	return func(h *Router) {
		h.maxDepth = depth
	}
}

// WithEntryRewriter sets an EntryRewriter that gets called before delivering
// the entry document contents, allowing for application-specific changes.
func WithEntryRewriter(rewriter EntryRewriter) Option {
	return func(h *Router) {
		h.entryRewriter = rewriter
	}
}

// NewRouter returns a new HTTP handler serving the entry document and static
// assets from the specified fs. The entry document typically is "index.html";
// it gets sanitized into an unrooted path anyway.
//
// In order to serve an SPA from a directory on the OS file system, use
// os.DirFS:
//
//	h := NewRouter(os.DirFS("/opt/data/myspa"), "index.html")
func NewRouter(fsys fs.FS, entry string, opts ...Option) *Router {
	h := &Router{
		fs:       fsys,
		entry:    path.Clean("/" + entry)[1:],
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(h)
	}
	// Order matters: the first matching route wins. We sanitize paths
	// ourselves, so mux must not redirect to cleaned paths.
	h.mux = mux.NewRouter().SkipClean(true)
	h.mux.Methods(http.MethodGet, http.MethodHead).
		Path("/").
		HandlerFunc(h.serveEntry)
	h.mux.Methods(http.MethodGet, http.MethodHead).
		MatcherFunc(h.isClientRoute).
		HandlerFunc(h.serveEntry)
	h.mux.Methods(http.MethodGet, http.MethodHead).
		PathPrefix("/").
		HandlerFunc(h.serveStaticAsset)
	return h
}

// Entry returns the unrooted path of the entry document.
func (h *Router) Entry() string { return h.entry }

// MaxDepth returns the maximum number of path segments of client routes.
func (h *Router) MaxDepth() int { return h.maxDepth }

// Validate checks that the entry document is present as a regular file. A
// missing entry document is a deployment defect: every client route would
// fail.
func (h *Router) Validate() error {
	info, err := fs.Stat(h.fs, h.entry)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrMissingEntryDocument, h.entry, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %q is not a regular file", ErrMissingEntryDocument, h.entry)
	}
	return nil
}

// ServeHTTP serves the entry document on the root path and all client routes,
// and static assets otherwise. Forwarding to the entry document happens
// server-side, so the client keeps its URL.
func (h *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Slapping "/" in front ensures that path.Clean never resolves relative to
	// some current working directory, and it prevents parent directory
	// traversal outside the fs.
	r.URL.Path = path.Clean("/" + r.URL.Path)
	h.mux.ServeHTTP(w, r)
}

func (h *Router) isClientRoute(r *http.Request, _ *mux.RouteMatch) bool {
	return Classify(r.URL.Path, h.maxDepth) == ClientRoute
}

// serveEntry serves the entry document, with its HTML base element rewritten
// to the base path of the SPA as seen by the client.
func (h *Router) serveEntry(w http.ResponseWriter, r *http.Request) {
	var err error
	defer func() {
		if err != nil {
			NormalizedHTTPError(w, err)
		}
	}()
	// "$" would interfere with the "$1" and "$2" back references below, and
	// SPA paths don't need it anyway.
	base := strings.ReplaceAll(h.basename(r), "$", "")
	f, err := h.fs.Open(h.entry)
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		return
	}
	contents, err := io.ReadAll(f)
	if err != nil {
		return
	}
	doc := baseRe.ReplaceAllString(string(contents), "${1}"+base+"${2}")
	if h.entryRewriter != nil {
		doc = h.entryRewriter(r, doc)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, path.Base(h.entry), info.ModTime(), strings.NewReader(doc))
}

// serveStaticAsset serves the regular file at the (sanitized) request path,
// or a normalized error if there is no such regular file. The entry document
// itself is always served through serveEntry.
func (h *Router) serveStaticAsset(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Path[1:] // ...fs.FS uses unrooted paths.
	if name == h.entry {
		h.serveEntry(w, r)
		return
	}
	f, err := h.fs.Open(name)
	if err != nil {
		NormalizedHTTPError(w, err)
		return
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		NormalizedHTTPError(w, err)
		return
	}
	// Directories and other non-regular things are never served: there are
	// no listings and no index redirects.
	if !info.Mode().IsRegular() {
		NormalizedHTTPError(w, fs.ErrNotExist)
		return
	}
	content, ok := f.(io.ReadSeeker)
	if !ok {
		b, err := io.ReadAll(f)
		if err != nil {
			NormalizedHTTPError(w, err)
			return
		}
		content = bytes.NewReader(b)
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), content)
}
