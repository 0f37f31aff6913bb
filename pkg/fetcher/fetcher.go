// Package fetcher downloads remote images.
package fetcher

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

const maxRedirects = 5

type IFetcher interface {
	Fetch(url string) ([]byte, error)
}

type fetcher struct {
	timeout time.Duration
}

func New(timeout time.Duration) IFetcher {
	return &fetcher{timeout: timeout}
}

// Fetch GETs url and fails on transport errors and non-2xx statuses.
func (f *fetcher) Fetch(url string) ([]byte, error) {
	agent := fiber.Get(url)
	if f.timeout > 0 {
		agent.Timeout(f.timeout)
	}
	agent.MaxRedirectsCount(maxRedirects)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if code < 200 || code > 299 {
		return nil, fmt.Errorf("%d %s for url: %s", code, utils.StatusMessage(code), url)
	}

	return body, nil
}
