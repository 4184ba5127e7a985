package samples

import (
	"context"
)

// InvoiceParserInput is the input of the invoice_parser tool.
type InvoiceParserInput struct {
	InvoiceData string `json:"invoice_data" jsonschema:"description=The invoice data to parse"`
}

// Description returns the default description of the invoice_parser tool.
func (InvoiceParserInput) Description() string {
	return "Parse invoice information from text or image data."
}

// Invoice is a parsed invoice.
type Invoice struct {
	InvoiceNumber string        `json:"invoiceNumber"`
	Date          string        `json:"date"`
	DueDate       string        `json:"dueDate"`
	Amount        float64       `json:"amount"`
	Currency      string        `json:"currency"`
	Status        string        `json:"status"`
	Vendor        string        `json:"vendor"`
	Items         []InvoiceItem `json:"items"`
}

// InvoiceItem is a line of the invoice.
type InvoiceItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Total       float64 `json:"total"`
}

// InvoiceParser returns a mock parsed invoice, the input is not used.
func InvoiceParser(_ context.Context, _ *InvoiceParserInput) (*Invoice, error) {
	return &Invoice{
		InvoiceNumber: "INV-2024-001",
		Date:          "2024-01-15",
		DueDate:       "2024-02-15",
		Amount:        1250.00,
		Currency:      "USD",
		Status:        "pending",
		Vendor:        "Example Vendor Inc.",
		Items: []InvoiceItem{
			{
				Description: "Consulting Services",
				Quantity:    10,
				UnitPrice:   100.00,
				Total:       1000.00,
			},
			{
				Description: "Software License",
				Quantity:    1,
				UnitPrice:   250.00,
				Total:       250.00,
			},
		},
	}, nil
}
