// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The KraftKit Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package utils

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"kraftkit.sh/cpiokit/archive"
	"kraftkit.sh/cpiokit/config"
	"kraftkit.sh/cpiokit/cpio"
	"kraftkit.sh/cpiokit/internal/session"
	"kraftkit.sh/cpiokit/log"
)

// SessionOptions returns the session options derived from the configuration
// in ctx.
func SessionOptions(ctx context.Context) ([]session.Option, error) {
	cfg := config.G(ctx)

	compression, err := archive.ParseCompression(cfg.Compression)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	return []session.Option{
		session.WithCompression(compression),
		session.WithCompressionLevel(cfg.CompressionLevel),
		session.WithReadOptions(cpio.WithConcurrency(concurrency)),
	}, nil
}

// OpenArchive opens the archive at path using the configured compression and
// verification settings.  Options given by the caller take precedence.
func OpenArchive(ctx context.Context, path string, opts ...session.Option) (*session.Session, error) {
	sopts, err := SessionOptions(ctx)
	if err != nil {
		return nil, err
	}

	return session.Open(ctx, path, append(sopts, opts...)...)
}

// SaveArchive writes back the archive held by sess if anything changed.
func SaveArchive(ctx context.Context, sess *session.Session) error {
	dest, err := sess.Save(ctx)
	if err != nil {
		return err
	}

	if dest == "" {
		log.G(ctx).Info("no modifications done, skipping file write")
		return nil
	}

	log.G(ctx).
		WithField("entries", sess.Store().Len()).
		Infof("saved %s", dest)

	return nil
}

// ParseMode parses permission bits given in octal, e.g. "0644" or "4755".
func ParseMode(s string) (cpio.FileMode, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0o"), 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid mode %q: expected an octal number", s)
	}

	if v&^0o7777 != 0 {
		return 0, fmt.Errorf("invalid mode %q: only permission, setuid, setgid and sticky bits may be set", s)
	}

	return cpio.FileMode(v), nil
}

// ParseTime parses either seconds since the epoch or an RFC 3339 timestamp.
func ParseTime(s string) (time.Time, error) {
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0), nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: expected seconds since the epoch or RFC 3339", s)
	}

	return t, nil
}

// ParseOwner parses "UID:GID".
func ParseOwner(s string) (uint64, uint64, error) {
	u, g, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid owner %q: expected UID:GID", s)
	}

	uid, err := strconv.ParseUint(u, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid uid %q", u)
	}

	gid, err := strconv.ParseUint(g, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid gid %q", g)
	}

	return uid, gid, nil
}

// ID converts an optional numeric flag into an optional owner or group id.
func ID(name string, v *int) (*uint64, error) {
	if v == nil {
		return nil, nil
	}

	if *v < 0 || uint64(*v) > cpio.MaxFieldValue {
		return nil, fmt.Errorf("invalid %s: %d", name, *v)
	}

	id := uint64(*v)
	return &id, nil
}
