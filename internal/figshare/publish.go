package figshare

import (
	"context"
	"fmt"
	"strings"
)

// Normalize fills defaults and checks that the article can be published.
func (a *Article) Normalize() error {
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidArticle)
	}
	if a.DefinedType == "" {
		a.DefinedType = DefaultDefinedType
	}
	return nil
}

// Publish creates a draft for a, uploads its file, attaches its links and
// tags, and reads the article back. The sequence stops at the first error; the
// returned Report then holds what was done so far.
func Publish(ctx context.Context, u *Uploader, a Article) (*Report, error) {
	if err := a.Normalize(); err != nil {
		return nil, err
	}

	report := &Report{}

	created, err := u.CreateArticle(ctx, a.Title, a.Description, a.DefinedType)
	if created != nil {
		report.Responses = append(report.Responses, created)
	}
	if err != nil {
		return report, fmt.Errorf("create article: %w", err)
	}
	report.ArticleID, _ = u.ArticleID()

	uploaded, err := u.UploadFile(ctx, a.Title, a.Description)
	if uploaded != nil {
		report.Responses = append(report.Responses, uploaded)
	}
	if err != nil {
		return report, fmt.Errorf("upload file: %w", err)
	}

	links, err := u.AddLinks(ctx, a.Links)
	report.Responses = append(report.Responses, links...)
	if err != nil {
		return report, fmt.Errorf("add links: %w", err)
	}

	tags, err := u.AddTags(ctx, a.Tags)
	report.Responses = append(report.Responses, tags...)
	if err != nil {
		return report, fmt.Errorf("add tags: %w", err)
	}

	info, err := u.ArticleInfo(ctx, 0)
	if err != nil {
		return report, fmt.Errorf("article info: %w", err)
	}
	report.Responses = append(report.Responses, info)
	report.Article = info.Body

	return report, nil
}
