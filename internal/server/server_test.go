// Copyright 2022 Harald Albrecht.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy
// of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations
// under the License.

package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing/fstest"
	"time"

	"github.com/onsi/gomega/gbytes"
	"github.com/thediveo/sparouter"
	"github.com/thediveo/sparouter/internal/config"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

const entryCanary = "CANARY ENTRY"

var spaFS = fstest.MapFS{
	"index.html":    {Data: []byte(`<html><head><base href="/"></head><body>` + entryCanary + `</body></html>`)},
	"assets/app.js": {Data: []byte(`console.log("app")`)},
}

// noRedirects makes redirects visible instead of following them.
var noRedirects = &http.Client{
	CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	},
	Timeout: 5 * time.Second,
}

func get(url string) (int, string) {
	GinkgoHelper()
	resp := Successful(noRedirects.Get(url))
	defer resp.Body.Close()
	Expect(resp.Header.Get("Location")).To(BeEmpty())
	return resp.StatusCode, string(Successful(io.ReadAll(resp.Body)))
}

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.Listen = "127.0.0.1:0"
	cfg.ShutdownTimeout = 2 * time.Second
	return cfg
}

var _ = Describe("server", func() {

	var logbuf *gbytes.Buffer
	var logger *slog.Logger

	BeforeEach(func() {
		logbuf = gbytes.NewBuffer()
		logger = slog.New(slog.NewTextHandler(logbuf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	})

	start := func(cfg config.Config) *Server {
		GinkgoHelper()
		srv := New(cfg, sparouter.NewRouter(spaFS, cfg.Entry), logger)
		Expect(srv.Start(context.Background())).To(Succeed())
		DeferCleanup(func() {
			Expect(srv.Shutdown(context.Background())).To(Succeed())
			Eventually(srv.Done()).Should(Receive(BeNil()))
		})
		return srv
	}

	It("serves the SPA over HTTP", func() {
		srv := start(testConfig())
		Expect(srv.URL()).To(HavePrefix("http://127.0.0.1:"))
		Expect(logbuf).To(gbytes.Say(`msg=listening address=127\.0\.0\.1:\d+`))

		status, body := get(srv.URL())
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring(entryCanary))

		status, body = get(srv.URL() + "projects/42/edit")
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring(entryCanary))

		status, body = get(srv.URL() + "assets/app.js")
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(Equal(`console.log("app")`))

		status, _ = get(srv.URL() + "a/b/c/d/e")
		Expect(status).To(Equal(http.StatusNotFound))
	})

	It("logs requests at debug level", func() {
		srv := start(testConfig())
		status, _ := get(srv.URL() + "dashboard")
		Expect(status).To(Equal(http.StatusOK))
		Eventually(logbuf).Should(gbytes.Say(`msg=request method=GET path=/dashboard status=200`))
	})

	It("doesn't log requests above debug level", func() {
		logger = slog.New(slog.NewTextHandler(logbuf, &slog.HandlerOptions{Level: slog.LevelInfo}))
		srv := start(testConfig())
		_, _ = get(srv.URL() + "dashboard")
		Consistently(logbuf, "250ms").ShouldNot(gbytes.Say(`msg=request`))
	})

	It("refuses to start twice", func() {
		srv := start(testConfig())
		Expect(srv.Start(context.Background())).To(MatchError(ContainSubstring("already started")))
	})

	It("reports listen errors", func() {
		cfg := testConfig()
		cfg.Listen = "127.0.0.1:-1"
		srv := New(cfg, http.NotFoundHandler(), logger)
		Expect(srv.Start(context.Background())).To(MatchError(ContainSubstring("cannot listen")))
		Expect(srv.Addr()).To(BeNil())
		Expect(srv.URL()).To(BeEmpty())
	})

	It("records status codes", func() {
		rec := &statusRecorder{ResponseWriter: &nopWriter{header: http.Header{}}}
		_, _ = rec.Write([]byte("implicit OK"))
		rec.WriteHeader(http.StatusTeapot)
		Expect(rec.status).To(Equal(http.StatusOK))
	})

})

type nopWriter struct{ header http.Header }

func (w *nopWriter) Header() http.Header         { return w.header }
func (w *nopWriter) Write(b []byte) (int, error) { return len(b), nil }
func (w *nopWriter) WriteHeader(int)             {}
