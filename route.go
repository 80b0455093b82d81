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
	"path"
	"strings"
)

// DefaultMaxDepth is the number of path segments below (and including) the
// root level that still get forwarded to the entry document, that is, from
// "/{seg}" up to "/{seg}/{seg}/{seg}/{seg}".
const DefaultMaxDepth = 4

// RouteKind tells how a particular request path is to be served.
type RouteKind int

const (
	// EntryRoute is the root path "/", always served the entry document.
	EntryRoute RouteKind = iota
	// ClientRoute is a path the SPA's client-side router takes care of, so it
	// gets forwarded to the entry document.
	ClientRoute
	// AssetRoute is a path with a dot in its final element, referencing a
	// static asset.
	AssetRoute
	// UnmatchedRoute is a dot-less path nested deeper than the maximum route
	// depth; it is left to the static asset handler.
	UnmatchedRoute
)

func (k RouteKind) String() string {
	switch k {
	case EntryRoute:
		return "entry"
	case ClientRoute:
		return "client"
	case AssetRoute:
		return "asset"
	case UnmatchedRoute:
		return "unmatched"
	}
	return "unknown"
}

// Classify returns the kind of route the specified URL path refers to. The path
// gets sanitized first, so "/a/./b/" and "/a//b" are the same as "/a/b". Only
// the final path element is checked for a dot; a maxDepth of zero or less
// removes the depth limit for client routes.
func Classify(urlpath string, maxDepth int) RouteKind {
	p := path.Clean("/" + urlpath)
	if p == "/" {
		return EntryRoute
	}
	segments := strings.Count(p, "/")
	if strings.Contains(p[strings.LastIndexByte(p, '/')+1:], ".") {
		return AssetRoute
	}
	if maxDepth > 0 && segments > maxDepth {
		return UnmatchedRoute
	}
	return ClientRoute
}
