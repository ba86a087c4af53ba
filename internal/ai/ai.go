// Package ai wraps the generative AI calls used by the editor and the
// image utilities.
//
// Every call is single shot: no retries and no streaming. Callers turn
// errors into the user facing messages below.
package ai

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"google.golang.org/genai"
)

const (
	ImageModel = "gemini-2.5-flash-image"
	FastModel  = "gemini-2.5-flash"
	ProModel   = "gemini-2.5-pro"
)

// User facing messages for failed calls.
const (
	MsgBackgroundFailed  = "Could not make the image transparent. Please try another image."
	MsgExplanationFailed = "Could not generate explanation. Please try again."
	MsgRenameFailed      = "Could not generate name suggestion."
	MsgImageFailed       = "Error: Could not process the image. The content might be too complex or unreadable."
	MsgPageFailed        = "Error: Could not process the document page. The content might be too complex or unreadable."
)

var (
	ErrUnavailable = errors.New("generative AI is not configured")
	ErrNoImage     = errors.New("no image data in response")
	ErrEmptyInput  = errors.New("empty image")
)

// Service is the set of AI operations the HTTP layer exposes.
type Service interface {
	ExtractText(ctx context.Context, img []byte, mime, language string) (string, error)
	RemoveBackground(ctx context.Context, img []byte, mime string) ([]byte, error)
	SuggestFilename(ctx context.Context, img []byte, mime string) (string, error)
	ExtractTableCSV(ctx context.Context, img []byte, mime string) (string, error)
	ExtractMarkdown(ctx context.Context, img []byte, mime string) (string, error)
	ExplainCompression(ctx context.Context, fileType, level string) (string, error)
}

// generator is the part of the genai client used here.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini implements Service with the Gemini API.
type Gemini struct {
	models generator
}

// NewGemini returns a Gemini service authenticated with apiKey.
func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrUnavailable
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &Gemini{models: client.Models}, nil
}

func imageContent(img []byte, mime, prompt string) []*genai.Content {
	parts := []*genai.Part{
		genai.NewPartFromBytes(img, mime),
		genai.NewPartFromText(prompt),
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

func (g *Gemini) askText(ctx context.Context, model string, contents []*genai.Content) (string, error) {
	resp, err := g.models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", model, err)
	}
	return resp.Text(), nil
}

func (g *Gemini) askImage(ctx context.Context, img []byte, mime, prompt string) (string, error) {
	if len(img) == 0 {
		return "", ErrEmptyInput
	}
	return g.askText(ctx, ProModel, imageContent(img, mime, prompt))
}

func (g *Gemini) ExtractText(ctx context.Context, img []byte, mime, language string) (string, error) {
	prompt := fmt.Sprintf("Perform OCR on this image. The language of the text is %s. Extract all text content as accurately as possible. Preserve original line breaks and formatting. If no text is found, return the message 'No text found in the image.'", language)
	return g.askImage(ctx, img, mime, prompt)
}

func (g *Gemini) ExtractTableCSV(ctx context.Context, img []byte, mime string) (string, error) {
	const prompt = "Analyze the image of this document page. Extract any tabular data present and format it strictly as CSV (Comma Separated Values). Each row of the table should be a new line, and columns should be separated by commas. Do not include any explanatory text, just the raw CSV data. If no table is found, return the message 'No table data found on this page.'."
	return g.askImage(ctx, img, mime, prompt)
}

func (g *Gemini) ExtractMarkdown(ctx context.Context, img []byte, mime string) (string, error) {
	const prompt = "Perform OCR on this document image. Extract all text content. Preserve the original structure and formatting, including headings, paragraphs, lists, and tables, by converting it to Markdown. Respond only with the Markdown content. If no text is found, return the message 'No text content found on this page.'."
	return g.askImage(ctx, img, mime, prompt)
}

var whitespace = regexp.MustCompile(`\s+`)

func (g *Gemini) SuggestFilename(ctx context.Context, img []byte, mime string) (string, error) {
	if len(img) == 0 {
		return "", ErrEmptyInput
	}
	const prompt = "Based on the content of this image, suggest a concise, descriptive, SEO-friendly filename. Exclude the file extension. Use hyphens instead of spaces."
	text, err := g.askText(ctx, FastModel, imageContent(img, mime, prompt))
	if err != nil {
		return "", err
	}
	return whitespace.ReplaceAllString(strings.TrimSpace(text), "-"), nil
}

func (g *Gemini) ExplainCompression(ctx context.Context, fileType, level string) (string, error) {
	prompt := fmt.Sprintf("Explain in a simple, user-friendly way what happens when a %s file is compressed at a '%s' level. Focus on the trade-offs between file size and quality. Format the response in Markdown.", fileType, level)
	return g.askText(ctx, FastModel, genai.Text(prompt))
}

func (g *Gemini) RemoveBackground(ctx context.Context, img []byte, mime string) ([]byte, error) {
	if len(img) == 0 {
		return nil, ErrEmptyInput
	}
	const prompt = "Remove the background from this image, making it completely transparent. The main subject, which is likely a signature or a stamp, should be preserved with clean edges. Return only the resulting image."
	resp, err := g.models.GenerateContent(ctx, ImageModel, imageContent(img, mime, prompt), &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE"},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ImageModel, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrNoImage
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData.Data, nil
		}
	}
	return nil, ErrNoImage
}

// Unavailable is the Service used when no API key is configured.
type Unavailable struct{}

func (Unavailable) ExtractText(context.Context, []byte, string, string) (string, error) {
	return "", ErrUnavailable
}

func (Unavailable) RemoveBackground(context.Context, []byte, string) ([]byte, error) {
	return nil, ErrUnavailable
}

func (Unavailable) SuggestFilename(context.Context, []byte, string) (string, error) {
	return "", ErrUnavailable
}

func (Unavailable) ExtractTableCSV(context.Context, []byte, string) (string, error) {
	return "", ErrUnavailable
}

func (Unavailable) ExtractMarkdown(context.Context, []byte, string) (string, error) {
	return "", ErrUnavailable
}

func (Unavailable) ExplainCompression(context.Context, string, string) (string, error) {
	return "", ErrUnavailable
}

// LevelName names a compression percentage the way the compressor UI does.
func LevelName(percent int) string {
	switch {
	case percent < 33:
		return "Low"
	case percent < 66:
		return "Medium"
	default:
		return "High"
	}
}
