package preview

import (
	"fmt"
	"strings"

	"github.com/GriffinCanCode/PenBox/backend/internal/domain/relay"
	"github.com/GriffinCanCode/PenBox/backend/internal/shared/id"
	"github.com/GriffinCanCode/PenBox/backend/internal/shared/utils"
	"golang.org/x/net/html"
)

// SandboxPolicy is the only permission a preview context gets: it may run
// scripts, and nothing else (no same-origin, navigation, forms or popups).
const SandboxPolicy = "allow-scripts"

// ContentSecurityPolicy is sent with every served preview document
const ContentSecurityPolicy = "sandbox " + SandboxPolicy

// SourceBundle is the three user-edited fragments of a pen
type SourceBundle struct {
	Markup string `json:"markup"`
	Styles string `json:"styles"`
	Script string `json:"script"`
}

// Fingerprint identifies the bundle's content
func (b SourceBundle) Fingerprint() string {
	return utils.DefaultHasher().HashOrdered(b.Markup, b.Styles, b.Script)
}

// Validate enforces size limits only; fragment content is never inspected.
func (b SourceBundle) Validate() error {
	if err := utils.ValidateSource(b.Markup, "markup"); err != nil {
		return err
	}
	if err := utils.ValidateSource(b.Styles, "styles"); err != nil {
		return err
	}
	return utils.ValidateSource(b.Script, "script")
}

// Document is an assembled preview for one mount generation
type Document struct {
	Generation  id.MountID `json:"generation"`
	HTML        string     `json:"html"`
	Fingerprint string     `json:"fingerprint"`
}

type assembleOptions struct {
	title string
}

// AssembleOption customizes document assembly
type AssembleOption func(*assembleOptions)

// WithTitle sets the document title. It is HTML-escaped.
func WithTitle(title string) AssembleOption {
	return func(o *assembleOptions) { o.title = title }
}

// Assemble builds the preview document. Fragments are copied verbatim; the
// instrumentation script is placed before the user script so it observes
// the first statement.
func Assemble(gen id.MountID, bundle SourceBundle, instrumentation string, opts ...AssembleOption) Document {
	o := assembleOptions{title: "Preview"}
	for _, opt := range opts {
		opt(&o)
	}

	var b strings.Builder
	b.Grow(len(bundle.Markup) + len(bundle.Styles) + len(bundle.Script) + len(instrumentation) + 256)

	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	b.WriteString("<title>")
	b.WriteString(html.EscapeString(o.title))
	b.WriteString("</title>\n<style>")
	b.WriteString(bundle.Styles)
	b.WriteString("</style>\n</head>\n<body>\n")
	b.WriteString(bundle.Markup)
	b.WriteString("\n<script>")
	b.WriteString(instrumentation)
	b.WriteString("</script>\n<script>")
	b.WriteString(bundle.Script)
	b.WriteString("</script>\n</body>\n</html>\n")

	return Document{
		Generation:  gen,
		HTML:        b.String(),
		Fingerprint: bundle.Fingerprint(),
	}
}

// Render assembles a standalone document whose generation is never
// registered with a relay. Used for read-only views and embeds, where
// console output stays inside the frame.
func Render(bundle SourceBundle, opts ...AssembleOption) (Document, error) {
	src := relay.Source{Generation: id.NewMountID(), Token: id.NewToken()}
	script, err := relay.Instrument(src)
	if err != nil {
		return Document{}, fmt.Errorf("instrument preview: %w", err)
	}
	return Assemble(src.Generation, bundle, script, opts...), nil
}
