package service

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/yeisme/dropvault/pkg/internal/types"
)

// ArchiveService 读取已存储对象并列出归档条目.
// 只做只读检视，不解包落盘.
type ArchiveService struct{ *ShareService }

// NewArchiveService 构造 ArchiveService.
func NewArchiveService(c context.Context) *ArchiveService {
	return &ArchiveService{NewShareService(c)}
}

const (
	// maxArchiveReadBytes 检视时读入内存的归档大小上限.
	maxArchiveReadBytes = 256 << 20
	// maxArchiveEntries 返回条目数上限，超过时 Truncated 为 true.
	maxArchiveEntries = 1000
)

// Entries 列出 owner 拥有的归档文件的条目.
func (s *ArchiveService) Entries(ctx context.Context, owner string, id uint) (*types.ArchiveEntriesResponse, error) {
	rec, err := s.getOwned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	format := detectArchiveFormat(rec.OriginalName)
	if format == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotArchive, rec.OriginalName)
	}

	rd, err := s.openBlob(ctx, rec)
	if err != nil {
		return nil, err
	}
	defer rd.Close()

	return listEntries(rd, format, rec.Size)
}

// EntriesByToken 通过分享令牌列出归档条目，无所有权检查.
func (s *ArchiveService) EntriesByToken(ctx context.Context, token string) (*types.ArchiveEntriesResponse, error) {
	rd, info, err := s.OpenShared(ctx, token)
	if err != nil {
		return nil, err
	}
	defer rd.Close()

	format := detectArchiveFormat(info.OriginalName)
	if format == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotArchive, info.OriginalName)
	}

	return listEntries(rd, format, info.Size)
}

// detectArchiveFormat 按文件名后缀识别归档格式，返回空串表示不支持.
func detectArchiveFormat(fileName string) string {
	name := strings.ToLower(fileName)

	switch {
	case strings.HasSuffix(name, ".zip"):
		return "zip"
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return "tar.gz"
	case strings.HasSuffix(name, ".tar"):
		return "tar"
	case strings.HasSuffix(name, ".gz"):
		return "gzip"
	default:
		return ""
	}
}

// listEntries 按格式分发到具体的解析器.
func listEntries(rd io.Reader, format string, size int64) (*types.ArchiveEntriesResponse, error) {
	switch format {
	case "zip":
		return listZipEntries(rd, size)
	case "tar":
		return listTarEntries(rd, "tar")
	case "tar.gz":
		gz, err := gzip.NewReader(rd)
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		defer gz.Close()

		return listTarEntries(gz, "tar.gz")
	case "gzip":
		return listGzipEntry(rd)
	default:
		return nil, fmt.Errorf("%w: unsupported format %s", ErrNotArchive, format)
	}
}

// listZipEntries zip 需要 ReaderAt，读入内存后再解析.
func listZipEntries(rd io.Reader, size int64) (*types.ArchiveEntriesResponse, error) {
	if size > maxArchiveReadBytes {
		return nil, fmt.Errorf("archive too large to inspect: %d bytes", size)
	}

	data, err := io.ReadAll(io.LimitReader(rd, maxArchiveReadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}

	if int64(len(data)) > maxArchiveReadBytes {
		return nil, errors.New("archive larger than declared size")
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}

	resp := &types.ArchiveEntriesResponse{Format: "zip"}

	for _, f := range zr.File {
		if len(resp.Entries) >= maxArchiveEntries {
			resp.Truncated = true
			break
		}

		resp.Entries = append(resp.Entries, types.ArchiveEntry{
			Path:  f.Name,
			Size:  int64(f.UncompressedSize64),
			IsDir: f.FileInfo().IsDir(),
		})
	}

	resp.Total = len(resp.Entries)

	return resp, nil
}

// listTarEntries 流式遍历 tar 头部，不读取文件内容.
func listTarEntries(rd io.Reader, format string) (*types.ArchiveEntriesResponse, error) {
	tr := tar.NewReader(rd)
	resp := &types.ArchiveEntriesResponse{Format: format}

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("read tar: %w", err)
		}

		if len(resp.Entries) >= maxArchiveEntries {
			resp.Truncated = true
			break
		}

		resp.Entries = append(resp.Entries, types.ArchiveEntry{
			Path:  hdr.Name,
			Size:  hdr.Size,
			IsDir: hdr.Typeflag == tar.TypeDir,
		})
	}

	resp.Total = len(resp.Entries)

	return resp, nil
}

// listGzipEntry 单文件 gzip，只有一个条目；头部未携带原名时从扩展名推断.
func listGzipEntry(rd io.Reader) (*types.ArchiveEntriesResponse, error) {
	gz, err := gzip.NewReader(rd)
	if err != nil {
		return nil, fmt.Errorf("open gzip: %w", err)
	}
	defer gz.Close()

	name := gz.Name

	n, err := io.Copy(io.Discard, io.LimitReader(gz, maxArchiveReadBytes))
	if err != nil {
		return nil, fmt.Errorf("read gzip: %w", err)
	}

	if name == "" {
		name = "-"
	} else {
		name = path.Base(name)
	}

	return &types.ArchiveEntriesResponse{
		Format:  "gzip",
		Entries: []types.ArchiveEntry{{Path: name, Size: n}},
		Total:   1,
	}, nil
}
