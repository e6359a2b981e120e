package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const substackLoginURL = "https://substack.com/api/v1/email-login"

// SubstackPublisher creates, schedules, and publishes newsletter posts
// through the endpoints the Substack web app uses. Substack has no
// official API, so these may shift under us.
type SubstackPublisher struct {
	pubURL   string
	email    string
	password string
	loginURL string
	http     *http.Client
	loggedIn bool
	markdown goldmark.Markdown
}

// SubstackOption adjusts a SubstackPublisher at construction time.
type SubstackOption func(*SubstackPublisher)

// WithSubstackLoginURL redirects the login endpoint, used by tests.
func WithSubstackLoginURL(url string) SubstackOption {
	return func(p *SubstackPublisher) { p.loginURL = url }
}

// NewSubstackPublisher returns a publisher for the given publication URL,
// for example "https://espressocharts.substack.com".
func NewSubstackPublisher(publicationURL, email, password string, opts ...SubstackOption) *SubstackPublisher {
	jar, _ := cookiejar.New(nil)
	p := &SubstackPublisher{
		pubURL:   strings.TrimSuffix(publicationURL, "/"),
		email:    email,
		password: password,
		loginURL: substackLoginURL,
		http:     &http.Client{Timeout: 60 * time.Second, Jar: jar},
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Post is the subset of the Substack post object we use.
type Post struct {
	ID   int    `json:"id"`
	Slug string `json:"slug"`
}

// PostDraft converts the markdown body to HTML and saves it as an
// unpublished draft.
func (p *SubstackPublisher) PostDraft(ctx context.Context, title, subtitle, body string) (Post, error) {
	html, err := p.renderHTML(body)
	if err != nil {
		return Post{}, err
	}
	return p.createPost(ctx, title, subtitle, html)
}

// PostScheduled creates a draft and schedules it for publishAt, which is
// interpreted as UTC.
func (p *SubstackPublisher) PostScheduled(ctx context.Context, title, subtitle, body string, publishAt time.Time) (Post, error) {
	post, err := p.PostDraft(ctx, title, subtitle, body)
	if err != nil {
		return Post{}, err
	}
	payload := map[string]string{
		"post_date": publishAt.UTC().Format("2006-01-02T15:04:05") + "Z",
	}
	url := fmt.Sprintf("%s/api/v1/posts/%d/schedule", p.pubURL, post.ID)
	if err := p.postJSON(ctx, url, payload, nil); err != nil {
		return Post{}, fmt.Errorf("publish: schedule post %d: %w", post.ID, err)
	}
	return post, nil
}

// PostNow creates a draft and publishes it immediately.
func (p *SubstackPublisher) PostNow(ctx context.Context, title, subtitle, body string) (Post, error) {
	post, err := p.PostDraft(ctx, title, subtitle, body)
	if err != nil {
		return Post{}, err
	}
	url := fmt.Sprintf("%s/api/v1/posts/%d/publish", p.pubURL, post.ID)
	if err := p.postJSON(ctx, url, map[string]any{}, nil); err != nil {
		return Post{}, fmt.Errorf("publish: publish post %d: %w", post.ID, err)
	}
	return post, nil
}

func (p *SubstackPublisher) createPost(ctx context.Context, title, subtitle, bodyHTML string) (Post, error) {
	if err := p.login(ctx); err != nil {
		return Post{}, err
	}
	payload := map[string]string{
		"type":           "newsletter",
		"draft_title":    title,
		"draft_subtitle": subtitle,
		"draft_body":     bodyHTML,
		"audience":       "everyone",
	}
	var post Post
	if err := p.postJSON(ctx, p.pubURL+"/api/v1/posts", payload, &post); err != nil {
		return Post{}, fmt.Errorf("publish: create post %q: %w", title, err)
	}
	return post, nil
}

func (p *SubstackPublisher) login(ctx context.Context) error {
	if p.loggedIn {
		return nil
	}
	payload := map[string]any{
		"email":            p.email,
		"password":         p.password,
		"captcha_response": nil,
	}
	if err := p.postJSON(ctx, p.loginURL, payload, nil); err != nil {
		return fmt.Errorf("publish: substack login: %w", err)
	}
	p.loggedIn = true
	return nil
}

func (p *SubstackPublisher) postJSON(ctx context.Context, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("substack returned %d: %s", resp.StatusCode, readSnippet(resp.Body))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (p *SubstackPublisher) renderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := p.markdown.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("publish: render markdown: %w", err)
	}
	return buf.String(), nil
}
