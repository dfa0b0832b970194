package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is one billed line. The sheet tags drive export; sheetcol drives
// import of the same layout.
type Invoice struct {
	ID       int64           `json:"id" sheet:"-"`
	Number   string          `json:"number" sheet:"Invoice #" sheetcol:"1"`
	Customer string          `json:"customer" sheetcol:"2"`
	IssuedOn time.Time       `json:"issued_on" sheet:"Issued On,format=d" sheetcol:"3"`
	Quantity int             `json:"quantity" sheetcol:"4"`
	Total    decimal.Decimal `json:"total" sheet:",format=c,formula=SUM" sheetcol:"5"`
	Notes    *string         `json:"notes,omitempty" sheet:",width=40" sheetcol:"6"`
}

type InvoiceFilter struct {
	Customer string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

type InvoiceRepository interface {
	List(ctx context.Context, filter InvoiceFilter) ([]Invoice, error)
	BulkInsert(ctx context.Context, invoices []Invoice) (int64, error)
}
