package ports

import "context"

// OutputKind tells whether an export produced an image or fell back to text
type OutputKind int

const (
	OutputText OutputKind = iota
	OutputImage
)

// RenderedOutput is the result of exporting a DOT description
type RenderedOutput struct {
	Kind        OutputKind
	Data        []byte
	ContentType string
}

// TextOutput wraps DOT text as a fallback output
func TextOutput(dot string) RenderedOutput {
	return RenderedOutput{
		Kind:        OutputText,
		Data:        []byte(dot),
		ContentType: "text/plain; charset=utf-8",
	}
}

// ImageOutput wraps rendered image bytes
func ImageOutput(data []byte, contentType string) RenderedOutput {
	return RenderedOutput{Kind: OutputImage, Data: data, ContentType: contentType}
}

// IsImage reports whether the output is an image
func (o RenderedOutput) IsImage() bool {
	return o.Kind == OutputImage
}

// GraphExporter converts a DOT description into an image.
// Implementations never fail: any problem yields TextOutput(dot).
type GraphExporter interface {
	Export(ctx context.Context, dot string) RenderedOutput
}
