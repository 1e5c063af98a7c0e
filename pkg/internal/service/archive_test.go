package service

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"testing"
)

func newTestArchiveService(t *testing.T) *ArchiveService {
	t.Helper()

	fs, _ := newTestFileService(t)

	return &ArchiveService{&ShareService{fs}}
}

func uploadBytes(t *testing.T, fs *FileService, owner, name string, data []byte) uint {
	t.Helper()

	resp := fs.Upload(context.Background(), owner, []UploadInput{{
		FileName:    name,
		Size:        int64(len(data)),
		ContentType: "application/octet-stream",
		Reader:      bytes.NewReader(data),
	}})
	if resp.Stored != 1 {
		t.Fatalf("upload %s: %+v", name, resp.Results)
	}

	return resp.Results[0].File.ID
}

func buildZip(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	if _, err := zw.Create("docs/"); err != nil {
		t.Fatalf("zip dir: %v", err)
	}

	w, err := zw.Create("docs/readme.md")
	if err != nil {
		t.Fatalf("zip entry: %v", err)
	}

	if _, err := w.Write([]byte("# readme")); err != nil {
		t.Fatalf("zip write: %v", err)
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}

	return buf.Bytes()
}

func buildTarGz(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	if err := tw.WriteHeader(&tar.Header{Name: "bin/", Typeflag: tar.TypeDir, Mode: 0o755}); err != nil {
		t.Fatalf("tar dir: %v", err)
	}

	content := []byte("#!/bin/sh\n")
	if err := tw.WriteHeader(&tar.Header{Name: "bin/run.sh", Size: int64(len(content)), Mode: 0o755}); err != nil {
		t.Fatalf("tar header: %v", err)
	}

	if _, err := tw.Write(content); err != nil {
		t.Fatalf("tar write: %v", err)
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("tar close: %v", err)
	}

	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}

	return buf.Bytes()
}

func buildGz(t *testing.T, name string, content []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Name = name

	if _, err := gz.Write(content); err != nil {
		t.Fatalf("gzip write: %v", err)
	}

	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}

	return buf.Bytes()
}

func TestDetectArchiveFormat(t *testing.T) {
	cases := map[string]string{
		"bundle.zip":     "zip",
		"Backup.TaR.Gz":  "tar.gz",
		"snapshot.tgz":   "tar.gz",
		"dump.tar":       "tar",
		"log.gz":         "gzip",
		"plain.txt":      "",
		"noextension":    "",
		"archive.tar.xz": "",
	}

	for name, want := range cases {
		if got := detectArchiveFormat(name); got != want {
			t.Errorf("detect(%q)=%q, want %q", name, got, want)
		}
	}
}

func TestEntriesListsZip(t *testing.T) {
	as := newTestArchiveService(t)
	ctx := context.Background()

	id := uploadBytes(t, as.FileService, "alice", "bundle.zip", buildZip(t))

	resp, err := as.Entries(ctx, "alice", id)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}

	if resp.Format != "zip" || resp.Total != 2 {
		t.Fatalf("format=%q total=%d", resp.Format, resp.Total)
	}

	if !resp.Entries[0].IsDir || resp.Entries[0].Path != "docs/" {
		t.Fatalf("first entry: %+v", resp.Entries[0])
	}

	if resp.Entries[1].Path != "docs/readme.md" || resp.Entries[1].Size != int64(len("# readme")) {
		t.Fatalf("second entry: %+v", resp.Entries[1])
	}
}

func TestEntriesListsTarGz(t *testing.T) {
	as := newTestArchiveService(t)
	ctx := context.Background()

	id := uploadBytes(t, as.FileService, "alice", "backup.tar.gz", buildTarGz(t))

	resp, err := as.Entries(ctx, "alice", id)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}

	if resp.Format != "tar.gz" || resp.Total != 2 {
		t.Fatalf("format=%q total=%d", resp.Format, resp.Total)
	}

	if !resp.Entries[0].IsDir || resp.Entries[1].Path != "bin/run.sh" {
		t.Fatalf("entries: %+v", resp.Entries)
	}
}

func TestEntriesListsSingleGzipMember(t *testing.T) {
	as := newTestArchiveService(t)
	ctx := context.Background()

	content := []byte("2026-08-29 some log line\n")
	id := uploadBytes(t, as.FileService, "alice", "app.log.gz", buildGz(t, "app.log", content))

	resp, err := as.Entries(ctx, "alice", id)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}

	if resp.Format != "gzip" || resp.Total != 1 {
		t.Fatalf("format=%q total=%d", resp.Format, resp.Total)
	}

	if resp.Entries[0].Path != "app.log" || resp.Entries[0].Size != int64(len(content)) {
		t.Fatalf("entry: %+v", resp.Entries[0])
	}
}

func TestEntriesRejectsNonArchive(t *testing.T) {
	as := newTestArchiveService(t)
	ctx := context.Background()

	id := uploadText(t, as.FileService, "alice", "plain.txt", "not an archive")

	if _, err := as.Entries(ctx, "alice", id); !errors.Is(err, ErrNotArchive) {
		t.Fatalf("got %v, want ErrNotArchive", err)
	}
}

func TestEntriesEnforcesOwnership(t *testing.T) {
	as := newTestArchiveService(t)
	ctx := context.Background()

	id := uploadBytes(t, as.FileService, "alice", "bundle.zip", buildZip(t))

	if _, err := as.Entries(ctx, "bob", id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestEntriesByToken(t *testing.T) {
	as := newTestArchiveService(t)
	ctx := context.Background()

	id := uploadBytes(t, as.FileService, "alice", "bundle.zip", buildZip(t))

	share, err := as.CreateShare(ctx, "alice", id)
	if err != nil {
		t.Fatalf("create share: %v", err)
	}

	resp, err := as.EntriesByToken(ctx, share.Token)
	if err != nil {
		t.Fatalf("entries by token: %v", err)
	}

	if resp.Format != "zip" || resp.Total != 2 {
		t.Fatalf("format=%q total=%d", resp.Format, resp.Total)
	}

	if _, err := as.EntriesByToken(ctx, "unknown-token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown token: got %v, want ErrNotFound", err)
	}
}
