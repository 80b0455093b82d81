// Copyright 2023 Harald Albrecht.
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

/*
Package httptest wraps the standard library's httptest.ResponseRecorder in order
to fail any test where a handler writes its response header more than once or
answers with a redirect where none is allowed.
*/
package httptest

import (
	stdhttptest "net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// StrictRecorder wraps httptest.ResponseRecorder in order to fail tests doing
// superfluous WriteHeader calls.
type StrictRecorder struct {
	*stdhttptest.ResponseRecorder
	codes []int
}

// NewRecorder returns a new strict response recorder.
func NewRecorder() *StrictRecorder {
	return &StrictRecorder{
		ResponseRecorder: stdhttptest.NewRecorder(),
	}
}

// WriteHeader implements http.ResponseWriter, failing the current test on
// superfluous calls.
func (w *StrictRecorder) WriteHeader(code int) {
	GinkgoHelper()
	w.codes = append(w.codes, code)
	Expect(w.codes).To(HaveLen(1), "superfluous response.WriteHeader call")
	w.ResponseRecorder.WriteHeader(code)
}

// StatusCodes returns all status codes passed to WriteHeader so far.
func (w *StrictRecorder) StatusCodes() []int {
	return append([]int(nil), w.codes...)
}

// ExpectNoRedirect fails the current test if the recorded response is a
// redirect or carries a Location header.
func (w *StrictRecorder) ExpectNoRedirect() {
	GinkgoHelper()
	Expect(w.Code).NotTo(And(
		BeNumerically(">=", 300), BeNumerically("<", 400)), "unexpected redirect")
	Expect(w.Header().Get("Location")).To(BeEmpty(), "unexpected Location header")
}
