package converter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// defaultStrategies builds the pandoc → weasyprint → native chain.
func defaultStrategies(opts Options) []Strategy {
	env := func() []string { return searchPathEnv(os.Environ(), opts.SearchPaths) }
	run := func(ctx context.Context, name string, args ...string) error {
		return opts.Run(ctx, env(), name, args...)
	}

	return []Strategy{
		{
			Name: StrategyPdflatex,
			Run: func(ctx context.Context, src, dst string) error {
				return run(ctx, opts.Pandoc, src, "-o", dst, "--pdf-engine=pdflatex")
			},
		},
		{
			Name: StrategyPandoc,
			Run: func(ctx context.Context, src, dst string) error {
				return run(ctx, opts.Pandoc, src, "-o", dst)
			},
		},
		{
			Name: StrategyViaHTML,
			Run: func(ctx context.Context, src, dst string) error {
				return viaHTML(ctx, run, opts.Pandoc, src, dst, func(html string) error {
					return run(ctx, opts.Pandoc, html, "-o", dst)
				})
			},
		},
		{
			Name: StrategyWeasy,
			Run: func(ctx context.Context, src, dst string) error {
				return viaHTML(ctx, run, opts.Pandoc, src, dst, func(html string) error {
					return run(ctx, opts.Weasyprint, html, dst)
				})
			},
		},
		{
			Name: StrategyNative,
			Run:  nativeStrategy,
		},
	}
}

// viaHTML renders src to a standalone HTML file next to dst, hands it to
// render and removes it afterwards.
func viaHTML(ctx context.Context, run func(context.Context, string, ...string) error,
	pandoc, src, dst string, render func(html string) error) error {
	html := filepath.Join(filepath.Dir(dst), "temp.html")
	defer func() { _ = os.Remove(html) }()

	if err := run(ctx, pandoc, src, "-s", "-t", "html", "-o", html); err != nil {
		return fmt.Errorf("html step: %w", err)
	}
	return render(html)
}

func nativeStrategy(_ context.Context, src, dst string) error {
	if strings.ToLower(filepath.Ext(src)) != ".docx" {
		return fmt.Errorf("native renderer supports only .docx")
	}
	blocks, err := readDOCX(src)
	if err != nil {
		return err
	}
	return renderPDF(blocks, dst)
}
