package portfoliolive

import (
	"log"
	"os"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"
)

// Refresh rebuilds dist from ui-src.
func Refresh() error {
	log.Printf("transpiling & copying: %v, %v", staticFilesToCopy(), esbuildEntrypoints())
	if err := transpile(); err != nil {
		return err
	}
	return copyStatic()
}

func copyStatic() error {
	for _, f := range staticFilesToCopy() {
		text, err := os.ReadFile(filepath.Join(uiSrc, f))
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dist, f), text, 0644); err != nil {
			return err
		}
	}
	return nil
}

func transpile() error {
	result := api.Build(api.BuildOptions{
		EntryPoints:      esbuildEntrypoints(),
		Bundle:           true,
		Outdir:           dist,
		MinifySyntax:     false,
		MinifyWhitespace: false,

		MinifyIdentifiers: false,
		Sourcemap:         api.SourceMapInline,
		Engines: []api.Engine{
			{Name: api.EngineChrome, Version: "58"},
			{Name: api.EngineFirefox, Version: "57"},
			{Name: api.EngineSafari, Version: "11"},
			{Name: api.EngineEdge, Version: "16"},
		},
		Write: true,
	})
	return buildErrors(result.Errors)
}

func staticFilesToCopy() []string {
	return []string{
		"index.html",
		"index.css",
	}
}

func esbuildEntrypoints() []string {
	return []string{
		filepath.Join(uiSrc, "index.ts"),
	}
}
