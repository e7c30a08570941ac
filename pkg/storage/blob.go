package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
)

const pdfContentType = "application/pdf"

// azure maps the archive tree onto a flat blob namespace. Folders are
// implicit key prefixes, so EnsurePath only guarantees the container.
type azure struct {
	client    *azblob.Client
	container string
	prefix    string
	logger    *slog.Logger

	mu    sync.Mutex
	ready bool
}

func newAzure(cfg *Config, logger *slog.Logger) (System, error) {
	client, err := azblob.NewClientFromConnectionString(cfg.Blob.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &azure{
		client:    client,
		container: cfg.Blob.ContainerName,
		prefix:    strings.Trim(cfg.Root, "/"),
		logger:    logger,
	}, nil
}

func (a *azure) Backend() string {
	return BackendBlob
}

func (a *azure) EnsurePath(ctx context.Context, segments ...string) error {
	if err := validateSegments(segments); err != nil {
		return err
	}
	return a.ensureContainer(ctx)
}

func (a *azure) Exists(ctx context.Context, key string) (bool, string, error) {
	if err := validateKey(key); err != nil {
		return false, "", err
	}

	blobClient := a.containerClient().NewBlobClient(a.key(key))

	_, err := blobClient.GetProperties(ctx, nil)
	if err == nil {
		return true, blobClient.URL(), nil
	}
	if !bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return false, "", fmt.Errorf("%w: check blob existence %s: %w", ErrRemote, key, err)
	}

	// folders exist only as prefixes of the blobs beneath them
	found, err := a.hasPrefix(ctx, a.key(key)+"/")
	if err != nil || !found {
		return false, "", err
	}
	return true, a.Locator(key), nil
}

func (a *azure) ListChildren(ctx context.Context, parent string) ([]Entry, error) {
	if err := validateKey(parent); err != nil {
		return nil, err
	}

	prefix := a.key(parent) + "/"
	pager := a.containerClient().NewListBlobsHierarchyPager("/", &container.ListBlobsHierarchyOptions{
		Prefix: to.Ptr(prefix),
	})

	children := make([]Entry, 0)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			if bloberror.HasCode(err, bloberror.ContainerNotFound) {
				return []Entry{}, nil
			}
			return nil, fmt.Errorf("%w: list %s: %w", ErrRemote, parent, err)
		}

		for _, p := range page.Segment.BlobPrefixes {
			if p.Name == nil {
				continue
			}
			name := strings.TrimSuffix(strings.TrimPrefix(*p.Name, prefix), "/")
			children = append(children, Entry{Name: name, Folder: true})
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name == nil {
				continue
			}
			children = append(children, Entry{Name: strings.TrimPrefix(*item.Name, prefix)})
		}
	}
	return children, nil
}

func (a *azure) Put(ctx context.Context, key string, data []byte) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	if err := a.ensureContainer(ctx); err != nil {
		return "", err
	}

	if err := a.upload(ctx, a.key(key), bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("%w: upload blob %s: %w", ErrRemote, key, err)
	}

	a.logger.Debug("blob uploaded", "key", a.key(key), "size", len(data))
	return a.Locator(key), nil
}

// Rename moves every blob under parent/oldName to parent/newName. Blob
// Storage has no rename primitive, so each blob is copied then deleted.
func (a *azure) Rename(ctx context.Context, parent, oldName, newName string) error {
	if oldName == newName {
		return nil
	}
	if err := validateSegments([]string{oldName, newName}); err != nil {
		return err
	}

	from := a.key(Join(parent, oldName)) + "/"
	dest := a.key(Join(parent, newName)) + "/"

	taken, err := a.hasPrefix(ctx, dest)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: rename %s to %s", ErrConflict, oldName, newName)
	}

	keys, err := a.listFlat(ctx, from)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return fmt.Errorf("%w: rename %s", ErrNotFound, Join(parent, oldName))
	}

	for _, src := range keys {
		dst := dest + strings.TrimPrefix(src, from)
		if err := a.move(ctx, src, dst); err != nil {
			return err
		}
	}

	a.logger.Info("folder renamed", "parent", parent, "from", oldName, "to", newName, "blobs", len(keys))
	return nil
}

func (a *azure) Locator(key string) string {
	return a.containerClient().NewBlobClient(a.key(key)).URL()
}

func (a *azure) ensureContainer(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ready {
		return nil
	}

	_, err := a.client.CreateContainer(ctx, a.container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return fmt.Errorf("%w: create container %s: %w", ErrRemote, a.container, err)
	}

	a.ready = true
	a.logger.Info("storage container ready", "container", a.container)
	return nil
}

func (a *azure) move(ctx context.Context, src, dst string) error {
	resp, err := a.client.DownloadStream(ctx, a.container, src, nil)
	if err != nil {
		return fmt.Errorf("%w: download blob %s: %w", ErrRemote, src, err)
	}
	defer resp.Body.Close()

	if err := a.upload(ctx, dst, resp.Body); err != nil {
		return fmt.Errorf("%w: copy blob %s: %w", ErrRemote, dst, err)
	}

	if _, err := a.client.DeleteBlob(ctx, a.container, src, nil); err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil
		}
		return fmt.Errorf("%w: delete blob %s: %w", ErrRemote, src, err)
	}
	return nil
}

func (a *azure) upload(ctx context.Context, key string, r io.Reader) error {
	opts := &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: to.Ptr(pdfContentType),
		},
	}

	_, err := a.client.UploadStream(ctx, a.container, key, r, opts)
	return err
}

func (a *azure) hasPrefix(ctx context.Context, prefix string) (bool, error) {
	pager := a.client.NewListBlobsFlatPager(a.container, &azblob.ListBlobsFlatOptions{
		Prefix:     to.Ptr(prefix),
		MaxResults: to.Ptr(int32(1)),
	})

	if !pager.More() {
		return false, nil
	}
	page, err := pager.NextPage(ctx)
	if err != nil {
		if bloberror.HasCode(err, bloberror.ContainerNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%w: list %s: %w", ErrRemote, prefix, err)
	}
	return len(page.Segment.BlobItems) > 0, nil
}

func (a *azure) listFlat(ctx context.Context, prefix string) ([]string, error) {
	pager := a.client.NewListBlobsFlatPager(a.container, &azblob.ListBlobsFlatOptions{
		Prefix: to.Ptr(prefix),
	})

	var keys []string
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			if bloberror.HasCode(err, bloberror.ContainerNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("%w: list %s: %w", ErrRemote, prefix, err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				keys = append(keys, *item.Name)
			}
		}
	}
	return keys, nil
}

func (a *azure) containerClient() *container.Client {
	return a.client.ServiceClient().NewContainerClient(a.container)
}

func (a *azure) key(p string) string {
	return Join(a.prefix, p)
}
