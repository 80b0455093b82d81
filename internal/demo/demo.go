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

// Package demo embeds a tiny SPA with client-side routing, served when no SPA
// bundle directory has been configured.
package demo

import (
	"embed"
	"io/fs"
)

// EntryDocument is the demo SPA's entry document.
const EntryDocument = "index.html"

//go:embed dist
var dist embed.FS

// FS returns the demo SPA bundle, rooted at its entry document's directory.
func FS() fs.FS {
	sub, err := fs.Sub(dist, "dist")
	if err != nil {
		panic(err) // "dist" is a valid path, so this cannot happen.
	}
	return sub
}
