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
	"errors"
	"io/fs"
	"net/http"
	"syscall"
)

// ErrMissingEntryDocument signals a misconfigured deployment where the entry
// document cannot be found.
var ErrMissingEntryDocument = errors.New("missing SPA entry document")

// NormalizedHTTPError writes an HTTP status code and message based on the
// specified error, without leaking any internal server details.
func NormalizedHTTPError(w http.ResponseWriter, err error) {
	switch {
	// Opening a path below a regular file fails with ENOTDIR on OS file
	// systems; there's nothing there either.
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		http.Error(w, "404 page not found", http.StatusNotFound)
	case errors.Is(err, fs.ErrPermission):
		http.Error(w, "403 Forbidden", http.StatusForbidden)
	default:
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
	}
}
