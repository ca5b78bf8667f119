package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/lysyi3m/blog-comb/app/feed"
)

var ErrNotFound = errors.New("resource not found")

type Resource string

const (
	ResourcePosts      Resource = "posts"
	ResourceAuthors    Resource = "authors"
	ResourceCategories Resource = "categories"
)

var Resources = []Resource{ResourcePosts, ResourceAuthors, ResourceCategories}

// Client talks to the upstream blog API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

func NewClient(baseURL string, httpClient *http.Client, userAgent string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + "/",
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

// FetchCollection returns the raw JSON body of a collection endpoint.
func (c *Client) FetchCollection(ctx context.Context, resource Resource) ([]byte, error) {
	return c.get(ctx, string(resource)+"/")
}

func (c *Client) FetchPosts(ctx context.Context) ([]feed.RawPost, error) {
	var posts []feed.RawPost
	if err := c.getJSON(ctx, string(ResourcePosts)+"/", &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) FetchAuthors(ctx context.Context) ([]feed.RawAuthor, error) {
	var authors []feed.RawAuthor
	if err := c.getJSON(ctx, string(ResourceAuthors)+"/", &authors); err != nil {
		return nil, err
	}
	return authors, nil
}

func (c *Client) FetchCategories(ctx context.Context) ([]feed.RawCategory, error) {
	var categories []feed.RawCategory
	if err := c.getJSON(ctx, string(ResourceCategories)+"/", &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *Client) FetchPost(ctx context.Context, id feed.ID) (feed.RawPost, error) {
	var post feed.RawPost
	err := c.getJSON(ctx, entityPath(ResourcePosts, id), &post)
	return post, err
}

func (c *Client) FetchAuthor(ctx context.Context, id feed.ID) (feed.RawAuthor, error) {
	var author feed.RawAuthor
	err := c.getJSON(ctx, entityPath(ResourceAuthors, id), &author)
	return author, err
}

func (c *Client) FetchCategory(ctx context.Context, id feed.ID) (feed.RawCategory, error) {
	var category feed.RawCategory
	err := c.getJSON(ctx, entityPath(ResourceCategories, id), &category)
	return category, err
}

func entityPath(resource Resource, id feed.ID) string {
	return string(resource) + "/" + url.PathEscape(string(id))
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	data, err := c.get(ctx, path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
