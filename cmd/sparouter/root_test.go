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

package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/onsi/gomega/gbytes"
	"github.com/thediveo/sparouter"
	"github.com/thediveo/sparouter/internal/config"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

var urlRe = regexp.MustCompile(`url=(http://\S+/)`)

func bundleDir() string {
	GinkgoHelper()
	dir := GinkgoT().TempDir()
	Expect(os.WriteFile(filepath.Join(dir, "index.html"),
		[]byte(`<html><head><base href="/"></head><body>CANARY BUNDLE</body></html>`), 0o644)).To(Succeed())
	Expect(os.MkdirAll(filepath.Join(dir, "assets"), 0o755)).To(Succeed())
	Expect(os.WriteFile(filepath.Join(dir, "assets", "app.js"),
		[]byte(`CANARY APP`), 0o644)).To(Succeed())
	return dir
}

func resolved(args ...string) (config.Config, error) {
	cmd := newRootCmd()
	Expect(cmd.ParseFlags(append([]string{"--env-file", ""}, args...))).To(Succeed())
	return resolveConfig(cmd)
}

var _ = Describe("sparouter command", func() {

	Context("configuration", func() {

		It("defaults without flags", func() {
			cfg := Successful(resolved())
			Expect(cfg.MaxDepth).To(Equal(sparouter.DefaultMaxDepth))
			Expect(cfg.Entry).To(Equal("index.html"))
		})

		It("shows the effective route depth default", func() {
			flag := newRootCmd().Flags().Lookup("max-depth")
			Expect(flag).NotTo(BeNil())
			Expect(flag.DefValue).To(Equal(strconv.Itoa(sparouter.DefaultMaxDepth)))
		})

		It("lets flags override the configuration file", func() {
			path := filepath.Join(GinkgoT().TempDir(), "sparouter.yaml")
			Expect(os.WriteFile(path, []byte("listen: \":1234\"\nentry: main.html\nmax_depth: 7\n"), 0o600)).To(Succeed())
			cfg := Successful(resolved("--config", path, "--entry", "app.html", "--max-depth", "0", "--open"))
			Expect(cfg.Listen).To(Equal(":1234"))
			Expect(cfg.Entry).To(Equal("app.html"))
			Expect(cfg.MaxDepth).To(BeZero())
			Expect(cfg.Open).To(BeTrue())
		})

		It("rejects invalid configurations", func() {
			Expect(resolved("--log-level", "chatty")).Error().To(MatchError(ContainSubstring("invalid configuration")))
		})

	})

	Context("SPA bundle", func() {

		It("falls back to the demo bundle", func() {
			cfg := config.Defaults()
			router := Successful(newRouter(cfg))
			Expect(router.Validate()).To(Succeed())
		})

		It("serves a bundle directory", func() {
			cfg := config.Defaults()
			cfg.Root = bundleDir()
			cfg.MaxDepth = 2
			router := Successful(newRouter(cfg))
			Expect(router.MaxDepth()).To(Equal(2))
		})

		It("refuses bundles without entry document", func() {
			cfg := config.Defaults()
			cfg.Root = bundleDir()
			cfg.Entry = "missing.html"
			Expect(newRouter(cfg)).Error().To(MatchError(sparouter.ErrMissingEntryDocument))
		})

		It("refuses missing bundle directories", func() {
			cfg := config.Defaults()
			cfg.Root = filepath.Join(GinkgoT().TempDir(), "missing")
			Expect(newRouter(cfg)).Error().To(MatchError(ContainSubstring("invalid SPA bundle directory")))
			cfg.Root = filepath.Join(bundleDir(), "index.html")
			Expect(newRouter(cfg)).Error().To(MatchError(ContainSubstring("not a directory")))
		})

	})

	It("serves until cancelled", func() {
		var opened string
		orig := openBrowser
		openBrowser = func(url string) error {
			opened = url
			return errors.New("no browser here")
		}
		DeferCleanup(func() { openBrowser = orig })

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		logs := gbytes.NewBuffer()
		cmd := newRootCmd()
		cmd.SetErr(logs)
		cmd.SetArgs([]string{
			"--env-file", "",
			"--listen", "127.0.0.1:0",
			"--root", bundleDir(),
			"--open",
		})
		done := make(chan error, 1)
		go func() {
			defer GinkgoRecover()
			done <- cmd.ExecuteContext(ctx)
		}()
		Eventually(logs).Should(gbytes.Say(`msg="serving SPA"`))
		m := urlRe.FindSubmatch(logs.Contents())
		Expect(m).To(HaveLen(2))
		url := string(m[1])
		Eventually(logs).Should(gbytes.Say(`cannot open browser`))
		Expect(opened).To(Equal(url))

		resp := Successful(http.Get(url + "projects/42/edit"))
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(string(Successful(io.ReadAll(resp.Body)))).To(ContainSubstring("CANARY BUNDLE"))
		resp.Body.Close()

		resp = Successful(http.Get(url + "assets/app.js"))
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(string(Successful(io.ReadAll(resp.Body)))).To(Equal("CANARY APP"))
		resp.Body.Close()

		cancel()
		Eventually(done).Should(Receive(BeNil()))
	})

	It("fails on a bundle without entry document", func() {
		logs := gbytes.NewBuffer()
		cmd := newRootCmd()
		cmd.SetErr(logs)
		cmd.SetArgs([]string{
			"--env-file", "",
			"--listen", "127.0.0.1:0",
			"--root", bundleDir(),
			"--entry", "missing.html",
		})
		Expect(cmd.ExecuteContext(context.Background())).To(MatchError(sparouter.ErrMissingEntryDocument))
		Expect(logs).To(gbytes.Say(`level=ERROR msg=fatal`))
	})

})
