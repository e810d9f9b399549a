package services

import (
	"context"

	"lingotext/internal/config"
	"lingotext/internal/observability"
	"lingotext/internal/serviceinterfaces"
	contextutils "lingotext/internal/utils"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel/attribute"
)

// A4 paper dimensions in inches
const (
	a4WidthInches  = 8.27
	a4HeightInches = 11.69
)

// ChromeRasterizer renders HTML to PDF bytes through a headless Chrome
// instance. The browser is started per render and torn down before the call
// returns, so a crashed render never leaks a browser process.
type ChromeRasterizer struct {
	logger *observability.Logger
}

var _ serviceinterfaces.HTMLRasterizer = (*ChromeRasterizer)(nil)

// NewChromeRasterizer creates a new headless Chrome rasterizer
func NewChromeRasterizer(logger *observability.Logger) *ChromeRasterizer {
	return &ChromeRasterizer{logger: logger}
}

// RenderHTML renders an HTML document to A4 PDF bytes
func (r *ChromeRasterizer) RenderHTML(ctx context.Context, html string) (result0 []byte, err error) {
	ctx, span := observability.TracePDFFunction(ctx, "render_html",
		attribute.Int("html.length", len(html)),
	)
	defer observability.FinishSpan(span, &err)

	renderCtx, cancel := context.WithTimeout(ctx, config.PDFRenderTimeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(renderCtx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.NoSandbox,
			chromedp.Flag("disable-gpu", true),
		)...,
	)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var pdf []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(a4WidthInches).
				WithPaperHeight(a4HeightInches).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrPDFRenderFailed, "headless render failed: %w", err)
	}

	if len(pdf) == 0 {
		return nil, contextutils.WrapError(contextutils.ErrPDFRenderFailed, "headless render produced no output")
	}

	span.SetAttributes(attribute.Int("pdf.size_bytes", len(pdf)))
	return pdf, nil
}
