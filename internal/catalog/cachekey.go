package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/domain"
)

// FoldKeywords canonicalizes a keyword for comparison: NFKC, case folded,
// whitespace collapsed.
func FoldKeywords(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}

// CacheKey identifies the provider response for req. Requests that differ
// only in keyword case or spacing share a key.
func CacheKey(req domain.SearchRequest) string {
	canonical := fmt.Sprintf("op=%s|q=%s|cat=%s|p=%d|n=%d|cur=%s|lang=%s",
		SearchOperation(req),
		FoldKeywords(req.Keywords),
		req.CategoryID,
		req.Page,
		req.PageSize,
		strings.ToUpper(req.TargetCurrency),
		strings.ToUpper(req.TargetLanguage),
	)
	sum := sha256.Sum256([]byte(canonical))
	return "catalog:search:" + hex.EncodeToString(sum[:16])
}
