// Package samples provides placeholder tools with fixed mock responses,
// to be replaced with real integrations.
package samples

import (
	"github.com/effective-security/toolbelt/tools"
)

// Tools returns the placeholder tools.
func Tools() []*tools.Descriptor {
	return []*tools.Descriptor{
		tools.MustNew(GitHubRepo, tools.WithName("github_repo")),
		tools.MustNew(InvoiceParser, tools.WithName("invoice_parser")),
		tools.MustNew(WeatherData, tools.WithName("weather_data")),
	}
}

// Register registers the placeholder tools.
func Register(r *tools.Registry) error {
	for _, d := range Tools() {
		if err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}
