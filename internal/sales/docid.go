package sales

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// PrefixQuotation prefixes quotation document numbers.
	PrefixQuotation = "Q"
	// PrefixInvoice prefixes invoice document numbers.
	PrefixInvoice = "INV"

	fallbackSlug = "client"
	maxSlugLen   = 12
)

// NewDocNumber produces a document number of the form
// "<PREFIX>-<slug>-<token>". The slug is derived from the client name; the
// token combines a date stamp, a high-resolution timestamp and a random
// suffix so that near-simultaneous same-client creations still get distinct
// numbers.
func NewDocNumber(prefix, clientName string, now time.Time) string {
	slug := slugify(clientName)
	token := now.Format("20060102") + "-" + now.Format("150405") + "-" + uuid.NewString()[:8]
	return prefix + "-" + slug + "-" + token
}

func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() >= maxSlugLen {
				break
			}
		}
	}
	if b.Len() == 0 {
		return fallbackSlug
	}
	return b.String()
}
