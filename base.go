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
	"net/http"
	"net/url"
	"path"
	"strings"
)

// ForwardedPrefixHeader, if present, specifies the prefix a path rewriting
// proxy stripped off the original request path.
const ForwardedPrefixHeader = "X-Forwarded-Prefix"

// ForwardedUriHeader, if present, specifies the original URI (or only its
// path) of a request when it hit the first path rewriting proxy.
const ForwardedUriHeader = "X-Forwarded-Uri"

// clientPath returns the request path as originally sent by the client, as far
// as proxy headers tell. Without such headers it is the (already sanitized)
// request path itself.
func clientPath(r *http.Request) string {
	if prefix := r.Header.Get(ForwardedPrefixHeader); prefix != "" {
		return path.Join(path.Clean("/"+prefix), r.URL.Path)
	}
	// Some proxies pass only the original path, others the full URI.
	if uri := r.Header.Get(ForwardedUriHeader); uri != "" {
		if strings.HasPrefix(uri, "/") {
			return path.Clean(uri)
		}
		if u, err := url.Parse(uri); err == nil {
			return path.Clean("/" + u.Path)
		}
	}
	return r.URL.Path
}

// basename returns the base path of the SPA from the client's perspective,
// always ending in "/". If it can't be derived, it is "/".
func (h *Router) basename(r *http.Request) string {
	reqPath := r.URL.Path
	origPath := clientPath(r)
	// A proxy might have redirected /foo to /foo/ and then rewritten the
	// path to "/".
	if strings.HasSuffix(reqPath, "/") && !strings.HasSuffix(origPath, "/") {
		origPath += "/"
	}
	var base string
	if strings.HasSuffix(origPath, reqPath) {
		base = strings.TrimSuffix(origPath, reqPath)
	}
	// Without the trailing "/" browsers would treat the final element as a
	// file name and drop it.
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}
