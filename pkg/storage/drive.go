package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	conflictBehaviorKey = "@microsoft.graph.conflictBehavior"
	childrenPageSize    = 200
	baseRetryDelay      = 250 * time.Millisecond
	maxErrorBody        = 512
)

// drive addresses a Microsoft Graph drive by path:
// {base}/drives/{id}/root:/{path} for lookups, :/children for folder
// creation, and :/content for file bytes.
type drive struct {
	baseURL       string
	root          string
	tokens        TokenProvider
	http          *http.Client
	timeout       time.Duration
	uploadTimeout time.Duration
	maxRetries    int
	maxDelay      time.Duration
	logger        *slog.Logger

	mu      sync.Mutex
	driveID string
}

type driveItem struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	WebURL string    `json:"webUrl"`
	Folder *struct{} `json:"folder,omitempty"`
}

type childrenPage struct {
	Value    []driveItem `json:"value"`
	NextLink string      `json:"@odata.nextLink"`
}

func newDrive(cfg *Config, tokens TokenProvider, logger *slog.Logger) (System, error) {
	if tokens == nil {
		return nil, fmt.Errorf("drive backend requires a token provider")
	}

	return &drive{
		baseURL:       strings.TrimRight(cfg.Drive.BaseURL, "/"),
		root:          strings.Trim(cfg.Root, "/"),
		tokens:        tokens,
		http:          &http.Client{},
		timeout:       cfg.Drive.TimeoutDuration(),
		uploadTimeout: cfg.Drive.UploadTimeoutDuration(),
		maxRetries:    cfg.Drive.MaxRetries,
		maxDelay:      cfg.Drive.MaxDelayDuration(),
		logger:        logger,
		driveID:       cfg.Drive.DriveID,
	}, nil
}

// NewDrive creates a drive backend over an explicit HTTP client.
func NewDrive(cfg *Config, tokens TokenProvider, client *http.Client, logger *slog.Logger) (System, error) {
	s, err := newDrive(cfg, tokens, logger.With("system", "storage", "backend", BackendDrive))
	if err != nil {
		return nil, err
	}
	if client != nil {
		s.(*drive).http = client
	}
	return s, nil
}

func (d *drive) Backend() string {
	return BackendDrive
}

func (d *drive) EnsurePath(ctx context.Context, segments ...string) error {
	if err := validateSegments(segments); err != nil {
		return err
	}

	var all []string
	if d.root != "" {
		all = append(all, strings.Split(d.root, "/")...)
	}
	all = append(all, segments...)

	current := ""
	for _, seg := range all {
		next := Join(current, seg)

		found, err := d.lookup(ctx, next)
		if err != nil {
			return err
		}
		if !found {
			if err := d.createFolder(ctx, current, seg); err != nil {
				return err
			}
		}
		current = next
	}
	return nil
}

func (d *drive) Exists(ctx context.Context, key string) (bool, string, error) {
	if err := validateKey(key); err != nil {
		return false, "", err
	}

	target, err := d.itemURL(ctx, d.full(key), "")
	if err != nil {
		return false, "", err
	}

	var item driveItem
	status, err := d.doJSON(ctx, d.timeout, "exists", key, http.MethodGet, target, nil, &item)
	if err != nil {
		if status == http.StatusNotFound {
			return false, "", nil
		}
		return false, "", err
	}

	locator := item.WebURL
	if locator == "" {
		locator = d.Locator(key)
	}
	return true, locator, nil
}

func (d *drive) ListChildren(ctx context.Context, container string) ([]Entry, error) {
	if err := validateKey(container); err != nil {
		return nil, err
	}

	target, err := d.itemURL(ctx, d.full(container), "children")
	if err != nil {
		return nil, err
	}
	target += fmt.Sprintf("?$select=name,folder&$top=%d", childrenPageSize)

	children := make([]Entry, 0)
	for target != "" {
		var page childrenPage
		status, err := d.doJSON(ctx, d.timeout, "list", container, http.MethodGet, target, nil, &page)
		if err != nil {
			if status == http.StatusNotFound {
				return []Entry{}, nil
			}
			return nil, err
		}

		for _, item := range page.Value {
			children = append(children, Entry{Name: item.Name, Folder: item.Folder != nil})
		}
		target = page.NextLink
	}
	return children, nil
}

func (d *drive) Put(ctx context.Context, key string, data []byte) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}

	target, err := d.itemURL(ctx, d.full(key), "content")
	if err != nil {
		return "", err
	}

	var item driveItem
	if _, err := d.do(ctx, d.uploadTimeout, "put", key, http.MethodPut, target, "application/octet-stream", data, &item); err != nil {
		return "", err
	}

	d.logger.Debug("file uploaded", "path", key, "size", len(data))

	if item.WebURL != "" {
		return item.WebURL, nil
	}
	return d.Locator(key), nil
}

func (d *drive) Rename(ctx context.Context, container, oldName, newName string) error {
	if oldName == newName {
		return nil
	}
	if err := validateSegments([]string{oldName, newName}); err != nil {
		return err
	}

	target, err := d.itemURL(ctx, d.full(Join(container, oldName)), "")
	if err != nil {
		return err
	}

	body := map[string]any{"name": newName}
	_, err = d.doJSON(ctx, d.timeout, "rename", Join(container, oldName), http.MethodPatch, target, body, nil)
	return err
}

// Locator returns the drive-relative path; Graph only reveals web URLs
// through item metadata.
func (d *drive) Locator(key string) string {
	return d.full(key)
}

func (d *drive) lookup(ctx context.Context, fullPath string) (bool, error) {
	target, err := d.itemURL(ctx, fullPath, "")
	if err != nil {
		return false, err
	}

	status, err := d.doJSON(ctx, d.timeout, "lookup", fullPath, http.MethodGet, target, nil, nil)
	if err != nil {
		if status == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (d *drive) createFolder(ctx context.Context, parent, name string) error {
	target, err := d.itemURL(ctx, parent, "children")
	if err != nil {
		return err
	}

	body := map[string]any{
		"name":              name,
		"folder":            map[string]any{},
		conflictBehaviorKey: "fail",
	}

	_, err = d.doJSON(ctx, d.timeout, "create folder", Join(parent, name), http.MethodPost, target, body, nil)
	if errors.Is(err, ErrConflict) {
		d.logger.Debug("folder created concurrently", "path", Join(parent, name))
		return nil
	}
	return err
}

func (d *drive) full(key string) string {
	return Join(d.root, key)
}

// itemURL builds the path-addressed URL for fullPath with an optional
// trailing action (children, content).
func (d *drive) itemURL(ctx context.Context, fullPath, action string) (string, error) {
	id, err := d.resolveDriveID(ctx)
	if err != nil {
		return "", err
	}

	base := fmt.Sprintf("%s/drives/%s/root", d.baseURL, url.PathEscape(id))
	if fullPath == "" {
		if action == "" {
			return base, nil
		}
		return base + "/" + action, nil
	}

	escaped := escapePath(fullPath)
	if action == "" {
		return base + ":/" + escaped, nil
	}
	return base + ":/" + escaped + ":/" + action, nil
}

func (d *drive) resolveDriveID(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.driveID != "" {
		return d.driveID, nil
	}

	var me struct {
		ID string `json:"id"`
	}
	if _, err := d.doJSON(ctx, d.timeout, "resolve drive", "me/drive", http.MethodGet, d.baseURL+"/me/drive", nil, &me); err != nil {
		return "", err
	}
	if me.ID == "" {
		return "", fmt.Errorf("%w: resolve drive: empty drive id", ErrRemote)
	}

	d.driveID = me.ID
	d.logger.Info("drive resolved", "drive_id", me.ID)
	return me.ID, nil
}

func (d *drive) doJSON(
	ctx context.Context,
	timeout time.Duration,
	op, key, method, target string,
	body any,
	out any,
) (int, error) {
	var data []byte
	contentType := ""
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode %s request: %w", op, err)
		}
		data = b
		contentType = "application/json"
	}
	return d.do(ctx, timeout, op, key, method, target, contentType, data, out)
}

// do sends a request with bounded timeout, retrying throttling and server
// errors. It returns the final HTTP status alongside any error.
func (d *drive) do(
	ctx context.Context,
	timeout time.Duration,
	op, key, method, target, contentType string,
	data []byte,
	out any,
) (int, error) {
	token, err := d.tokens(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire token: %w", err)
	}

	for attempt := 0; ; attempt++ {
		status, retryAfter, err := d.attempt(ctx, timeout, op, key, method, target, token, contentType, data, out)
		if err == nil || !retryable(status) || attempt >= d.maxRetries {
			return status, err
		}

		delay := d.backoff(attempt, retryAfter)
		d.logger.Warn("retrying drive request", "op", op, "path", key, "status", status, "attempt", attempt+1, "delay", delay)

		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (d *drive) attempt(
	ctx context.Context,
	timeout time.Duration,
	op, key, method, target, token, contentType string,
	data []byte,
	out any,
) (int, time.Duration, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, target, body)
	if err != nil {
		return 0, 0, fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s %s: %w", ErrRemote, op, key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, parseRetryAfter(resp.Header.Get("Retry-After")), &RemoteError{
			Op:     op,
			Path:   key,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(snippet)),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return resp.StatusCode, 0, fmt.Errorf("%w: decode %s response: %w", ErrRemote, op, err)
		}
	}
	return resp.StatusCode, 0, nil
}

func (d *drive) backoff(attempt int, retryAfter time.Duration) time.Duration {
	delay := retryAfter
	if delay <= 0 {
		delay = baseRetryDelay << attempt
	}
	if d.maxDelay > 0 && delay > d.maxDelay {
		delay = d.maxDelay
	}
	return delay
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
