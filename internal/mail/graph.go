package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const fileAttachmentType = "#microsoft.graph.fileAttachment"

type graph struct {
	baseURL         string
	folder          string
	pageSize        int
	timeout         time.Duration
	downloadTimeout time.Duration
	tokens          TokenSource
	http            *http.Client
	logger          *slog.Logger
}

type graphMessage struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	From    struct {
		EmailAddress struct {
			Name    string `json:"name"`
			Address string `json:"address"`
		} `json:"emailAddress"`
	} `json:"from"`
	ReceivedDateTime time.Time `json:"receivedDateTime"`
	BodyPreview      string    `json:"bodyPreview"`
}

type graphAttachment struct {
	ODataType   string `json:"@odata.type"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	IsInline    bool   `json:"isInline"`
}

type page[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}

func newGraph(cfg *Config, tokens TokenSource, client *http.Client, logger *slog.Logger) *graph {
	if client == nil {
		client = &http.Client{}
	}
	return &graph{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		folder:          cfg.Folder,
		pageSize:        cfg.PageSize,
		timeout:         cfg.TimeoutDuration(),
		downloadTimeout: cfg.DownloadTimeoutDuration(),
		tokens:          tokens,
		http:            client,
		logger:          logger,
	}
}

// NewGraph creates a Graph store over an explicit HTTP client.
func NewGraph(cfg *Config, tokens TokenSource, client *http.Client, logger *slog.Logger) Store {
	return newGraph(cfg, tokens, client, logger.With("system", "mail", "backend", BackendGraph))
}

func (g *graph) Messages(ctx context.Context) iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		next := fmt.Sprintf(
			"%s/me/mailFolders/%s/messages?$top=%d&$select=subject,from,receivedDateTime,bodyPreview&$orderby=%s",
			g.baseURL,
			url.PathEscape(g.folder),
			g.pageSize,
			url.PathEscape("receivedDateTime desc"),
		)

		pages := 0
		for next != "" {
			var p page[graphMessage]
			if err := g.getJSON(ctx, next, &p); err != nil {
				yield(Message{}, fmt.Errorf("list messages: %w", err))
				return
			}
			pages++
			g.logger.Debug("message page fetched", "page", pages, "count", len(p.Value))

			for _, m := range p.Value {
				msg := Message{
					ID:          m.ID,
					Subject:     m.Subject,
					FromName:    m.From.EmailAddress.Name,
					FromAddress: m.From.EmailAddress.Address,
					ReceivedAt:  m.ReceivedDateTime,
					Preview:     m.BodyPreview,
				}
				if !yield(msg, nil) {
					return
				}
			}
			next = p.NextLink
		}
	}
}

func (g *graph) Attachments(ctx context.Context, messageID string) ([]Attachment, error) {
	next := fmt.Sprintf(
		"%s/me/messages/%s/attachments?$select=id,name,contentType,size,isInline",
		g.baseURL,
		url.PathEscape(messageID),
	)

	var attachments []Attachment
	for next != "" {
		var p page[graphAttachment]
		if err := g.getJSON(ctx, next, &p); err != nil {
			return nil, fmt.Errorf("list attachments for %s: %w", messageID, err)
		}
		for _, a := range p.Value {
			attachments = append(attachments, Attachment{
				ID:          a.ID,
				Name:        a.Name,
				ContentType: a.ContentType,
				Size:        a.Size,
				Inline:      a.IsInline,
				File:        a.ODataType == "" || a.ODataType == fileAttachmentType,
			})
		}
		next = p.NextLink
	}
	return attachments, nil
}

func (g *graph) Download(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	target := fmt.Sprintf(
		"%s/me/messages/%s/attachments/%s/$value",
		g.baseURL,
		url.PathEscape(messageID),
		url.PathEscape(attachmentID),
	)

	resp, cancel, err := g.get(ctx, g.downloadTimeout, target)
	if err != nil {
		return nil, fmt.Errorf("download attachment %s: %w", attachmentID, err)
	}
	defer cancel()
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read attachment %s: %w", ErrRemote, attachmentID, err)
	}
	return data, nil
}

func (g *graph) getJSON(ctx context.Context, target string, out any) error {
	resp, cancel, err := g.get(ctx, g.timeout, target)
	if err != nil {
		return err
	}
	defer cancel()
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrRemote, err)
	}
	return nil
}

// get issues an authorized GET bounded by timeout. On success the caller
// owns the response body and must call cancel after reading it.
func (g *graph) get(ctx context.Context, timeout time.Duration, target string) (*http.Response, context.CancelFunc, error) {
	token, err := g.tokens(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("acquire token: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.http.Do(req)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("%w: %w", ErrRemote, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		cancel()

		sentinel := ErrRemote
		if resp.StatusCode == http.StatusNotFound {
			sentinel = ErrNotFound
		}
		return nil, nil, fmt.Errorf("%w: status %d: %s", sentinel, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	return resp, cancel, nil
}
