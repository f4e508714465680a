// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2023, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package cli_test

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2" //nolint:stylecheck
	. "github.com/onsi/gomega"    //nolint:stylecheck

	"kraftkit.sh/cpiokit/archive"
	fcmd "kraftkit.sh/cpiokit/test/e2e/framework/cmd"
	fcfg "kraftkit.sh/cpiokit/test/e2e/framework/config"
	. "kraftkit.sh/cpiokit/test/e2e/framework/matchers" //nolint:stylecheck
)

var _ = Describe("cpiokit", func() {
	var stdout *fcmd.IOStream
	var stderr *fcmd.IOStream

	var cfg *fcfg.Config
	var initrd string

	run := func(args ...string) error {
		stdout = fcmd.NewIOStream()
		stderr = fcmd.NewIOStream()

		cmd := fcmd.NewCpioKit(stdout, stderr, cfg.Path())
		cmd.Args = args

		return cmd.Run()
	}

	BeforeEach(func() {
		cfg = fcfg.NewTempConfig()
		initrd = filepath.Join(cfg.Dir(), "initrd.cpio.gz")

		Expect(run("pack", "-o", initrd, rootfs(cfg.Dir()))).To(Succeed())
	})

	Describe("pack", func() {
		It("should store parents before their contents", func() {
			Expect(initrd).To(ContainEntries("bin", "bin/busybox", "bin/sh", "etc", "etc/hostname", "init"))
		})

		It("should compress according to the extension", func() {
			Expect(initrd).To(BeCompressedWith(archive.CompressionGzip))
		})
	})

	Describe("list", func() {
		It("should print one row per entry", func() {
			Expect(run("list", initrd)).To(Succeed())

			lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
			Expect(lines).To(HaveLen(7))
			Expect(lines[0]).To(MatchRegexp(`^MODE\s+OWNER\s+SIZE\s+TYPE\s+PATH$`))
			Expect(lines[3]).To(HaveSuffix("bin/sh -> busybox"))
		})

		When("the archive is corrupt", func() {
			BeforeEach(func() {
				raw, err := os.ReadFile(initrd)
				Expect(err).ToNot(HaveOccurred())
				Expect(os.WriteFile(initrd, raw[:len(raw)/2], 0o644)).To(Succeed())
			})

			It("should fail", func() {
				err := run("list", initrd)
				Expect(err).To(MatchError("exit status 1"))
				Expect(stdout.String()).To(BeEmpty())
			})
		})
	})

	Describe("editing", func() {
		var motd string

		BeforeEach(func() {
			motd = filepath.Join(cfg.Dir(), "motd")
			Expect(os.WriteFile(motd, []byte("welcome\n"), 0o644)).To(Succeed())
		})

		It("should add, modify and delete entries in place", func() {
			Expect(run("add", initrd, "etc/motd", motd)).To(Succeed())
			Expect(run("modify", "-u", "0", "-g", "0", "-m", "0600", initrd, "etc/motd")).To(Succeed())
			Expect(run("delete", initrd, "init")).To(Succeed())

			Expect(initrd).To(ContainEntries("bin", "bin/busybox", "bin/sh", "etc", "etc/hostname", "etc/motd"))
			Expect(initrd).To(BeCompressedWith(archive.CompressionGzip))

			Expect(run("list", "-o", "json", "-m", "etc/motd", initrd)).To(Succeed())
			Expect(stdout.String()).To(ContainSubstring(`"mode":"100600"`))
			Expect(stdout.String()).To(ContainSubstring(`"owner":"0:0"`))
		})

		It("should refuse to add below a missing directory", func() {
			err := run("add", initrd, "usr/share/motd", motd)
			Expect(err).To(MatchError("exit status 1"))
			Expect(stderr).To(ContainSubstring("not in the archive"))

			Expect(run("add", "--force", initrd, "usr/share/motd", motd)).To(Succeed())
		})

		It("should leave the archive untouched when an apply step fails", func() {
			before, err := os.ReadFile(initrd)
			Expect(err).ToNot(HaveOccurred())

			plan := filepath.Join(cfg.Dir(), "plan.yaml")
			Expect(os.WriteFile(plan, []byte("steps:\n  - delete: {paths: [init]}\n  - delete: {paths: [init]}\n"), 0o644)).To(Succeed())

			Expect(run("apply", "-f", plan, initrd)).To(MatchError("exit status 1"))

			after, err := os.ReadFile(initrd)
			Expect(err).ToNot(HaveOccurred())
			Expect(after).To(Equal(before))
		})

		It("should honour the configured compression", func() {
			cfg.Set("zstd", "compression")

			output := filepath.Join(cfg.Dir(), "initrd.cpio.zst")
			Expect(run("delete", "-o", output, initrd, "init")).To(Succeed())

			Expect(output).To(BeCompressedWith(archive.CompressionZstd))
			Expect(initrd).To(BeCompressedWith(archive.CompressionGzip))
		})
	})

	Describe("unpack", func() {
		It("should unpack below the configured directory by default", func() {
			Expect(run("unpack", initrd)).To(Succeed())

			dst := strings.TrimSpace(stdout.String())
			Expect(filepath.Dir(dst)).To(Equal(cfg.Read("paths", "unpack")))
			Expect(dst).To(ContainFiles("bin/busybox", "etc/hostname", "init"))

			target, err := os.Readlink(filepath.Join(dst, "bin", "sh"))
			Expect(err).ToNot(HaveOccurred())
			Expect(target).To(Equal("busybox"))
		})

		It("should refuse a non-empty destination without --force", func() {
			dst := filepath.Join(cfg.Dir(), "out")
			Expect(run("unpack", "-o", dst, initrd)).To(Succeed())
			Expect(run("unpack", "-o", dst, initrd)).To(MatchError("exit status 1"))
			Expect(run("unpack", "-f", "-o", dst, initrd)).To(Succeed())
		})
	})
})
