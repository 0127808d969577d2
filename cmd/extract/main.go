// Command extract runs the product extractors over a saved HTML page and
// prints the result as JSON.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/maltedev/price-tracker/internal/logger"
	"github.com/maltedev/price-tracker/internal/models"
	"github.com/maltedev/price-tracker/internal/parser"
	"github.com/maltedev/price-tracker/internal/shopping"
)

func main() {
	var (
		file     = flag.String("file", "", "HTML file to read (default stdin)")
		platform = flag.String("platform", "", "platform name (default detected from -url)")
		pageURL  = flag.String("url", "", "URL the page was fetched from (required for search and deals)")
		mode     = flag.String("mode", "detail", "what to extract: detail, search or deals")
		logLevel = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	log := logger.NewWithWriter(os.Stderr, *logLevel, "text")

	baseURL, err := pageOrigin(*mode, *pageURL)
	if err != nil {
		log.Error("invalid arguments", "mode", *mode, "url", *pageURL, "error", err)
		flag.Usage()
		os.Exit(2)
	}

	html, err := readInput(*file)
	if err != nil {
		log.Error("failed to read html", "error", err)
		os.Exit(1)
	}

	p := models.ParsePlatform(*platform)
	if *platform == "" {
		p = models.DetectPlatform(*pageURL)
	}

	scraper := parser.NewScraper()

	var result interface{}
	switch *mode {
	case "detail":
		detail, err := scraper.ParseProductDetails(html, p, baseURL)
		if err != nil {
			log.Error("extraction failed", "platform", p, "error", err)
			os.Exit(1)
		}
		if *pageURL != "" {
			detail.URL = *pageURL
		}
		result = detail
	case "search":
		result = scraper.ParseSearchResults(html, p, baseURL)
	case "deals":
		result = scraper.ParseDeals(html, p, baseURL)
	}

	log.Debug("extracted", "platform", p, "mode", *mode, "bytes", len(html))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode result: %v\n", err)
		os.Exit(1)
	}
}

var errURLRequired = errors.New("-url is required for search and deals so result links are absolute")

// pageOrigin checks mode and returns the origin links are resolved against.
// Listing pages link with relative hrefs, so they need the page URL.
func pageOrigin(mode, pageURL string) (string, error) {
	switch mode {
	case "detail":
		if pageURL == "" {
			return "", nil
		}
	case "search", "deals":
		if pageURL == "" {
			return "", errURLRequired
		}
	default:
		return "", fmt.Errorf("unknown mode %q", mode)
	}
	return shopping.Origin(pageURL)
}

func readInput(path string) (string, error) {
	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
