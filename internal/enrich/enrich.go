// Package enrich resolves company and personal-name metadata for
// external attendees via a language-model oracle. Every oracle call
// is best-effort: a failure or an unusable response degrades to a
// deterministic local fallback and never blocks the row.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const companySystemPrompt = "You are a helpful assistant that extracts a human-readable company name from a domain. " +
	"Provide only the short company name, with normal spacing, no punctuation or extra text.\n" +
	"Examples:\n" +
	"'water.ventures' -> 'Water Ventures'\n" +
	"'alaskacapital.com' -> 'Alaska Capital'"

const nameSystemPrompt = "You are a helpful assistant that extracts names from email addresses. " +
	"Return exactly three values separated by '|': first_name|last_name|full_name\n" +
	"Use 'NA' when a component cannot be determined with confidence.\n" +
	"Examples:\n" +
	"jeff@xadvisors.com -> Jeff|NA|NA\n" +
	"sam.altman@openai.com -> Sam|Altman|Sam Altman\n"

// Unknown is the sentinel written when a name component cannot be
// determined.
const Unknown = "NA"

// Completer is the oracle boundary: one system-prompted, bounded,
// deterministic-leaning chat completion per call.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

// Enrichment is the metadata resolved for one email address.
type Enrichment struct {
	FirstName   string
	LastName    string
	FullName    string
	CompanyName string
	Website     string
}

// Enricher turns an email address into an Enrichment using two oracle
// calls, one per concern, with independent fallbacks.
type Enricher struct {
	completer Completer
	logger    *slog.Logger
}

// New creates an Enricher backed by the given oracle.
func New(logger *slog.Logger, completer Completer) *Enricher {
	return &Enricher{completer: completer, logger: logger}
}

// Enrich resolves metadata for a lowercased email address. The domain
// is everything after the last "@". Oracle failures degrade to the
// documented fallbacks; Enrich itself never fails.
func (e *Enricher) Enrich(ctx context.Context, email string) *Enrichment {
	domain := Domain(email)
	first, last, full := e.nameFromEmail(ctx, email)
	return &Enrichment{
		FirstName:   first,
		LastName:    last,
		FullName:    full,
		CompanyName: e.companyFromDomain(ctx, domain),
		Website:     WebsiteURL(domain),
	}
}

// companyFromDomain asks the oracle for a readable company name.
// Empty output or any error falls back to the local heuristic.
func (e *Enricher) companyFromDomain(ctx context.Context, domain string) string {
	answer, err := e.completer.Complete(ctx, companySystemPrompt, domain, 40)
	if err != nil {
		e.logger.Debug("Company inference failed, using fallback.", "domain", domain, "error", err)
		return FallbackCompanyName(domain)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return FallbackCompanyName(domain)
	}
	return answer
}

// nameFromEmail asks the oracle for first|last|full. Any error, or a
// response that does not split into exactly three parts, yields the
// Unknown sentinel for all three fields.
func (e *Enricher) nameFromEmail(ctx context.Context, email string) (string, string, string) {
	answer, err := e.completer.Complete(ctx, nameSystemPrompt, email, 60)
	if err != nil {
		e.logger.Debug("Name inference failed, using fallback.", "email", email, "error", err)
		return Unknown, Unknown, Unknown
	}
	return SplitNameParts(answer)
}

// SplitNameParts parses the oracle's pipe-separated name answer. A
// malformed answer (wrong field count) yields the Unknown sentinel
// for all three fields.
func SplitNameParts(answer string) (first, last, full string) {
	parts := strings.Split(strings.TrimSpace(answer), "|")
	if len(parts) != 3 {
		return Unknown, Unknown, Unknown
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2])
}

// FallbackCompanyName title-cases the domain label before the first
// dot: "alaskacapital.com" becomes "Alaskacapital".
func FallbackCompanyName(domain string) string {
	label, _, _ := strings.Cut(domain, ".")
	if label == "" {
		return label
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

// WebsiteURL derives the website from the raw domain. It is always
// computed locally, never taken from the oracle.
func WebsiteURL(domain string) string {
	return fmt.Sprintf("https://%s/", domain)
}

// Domain returns the part of the email after the last "@".
func Domain(email string) string {
	if i := strings.LastIndex(email, "@"); i >= 0 {
		return email[i+1:]
	}
	return email
}
