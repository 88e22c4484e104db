package receipt

import (
	"fmt"
	"time"

	"github.com/gosimple/slug"
)

const fallbackSlug = "cliente"

// FileName returns <client_slug>_<YYYYMMDD>_<HHMMSS>_<invoice_id>.pdf using
// date as given. The invoice id keeps names unique within one second.
func FileName(client string, date time.Time, invoiceID uint) string {
	s := slug.Make(client)
	if s == "" {
		s = fallbackSlug
	}
	return fmt.Sprintf("%s_%s_%d.pdf", s, date.Format("20060102_150405"), invoiceID)
}
