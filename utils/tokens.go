package utils

import (
	"html"
	"strings"

	"outreachflow/models"
)

// SegmentKind tags one entry of the structured body document
type SegmentKind string

const (
	SegmentText  SegmentKind = "text"
	SegmentToken SegmentKind = "token"
)

// Segment is one piece of a step body: literal text or an atomic token
// chip addressed by its scope.key value. Substitution and serialization
// work on this document model, never on scraped markup.
type Segment struct {
	Kind  SegmentKind `json:"kind"`
	Value string      `json:"value"`
}

// AccountLookup is a best-effort accounts-by-id cache. Misses are normal.
type AccountLookup interface {
	AccountByID(id uint) (*models.Account, bool)
}

// Snapshot is the contact+account state a render resolves against.
// Resolution is pure given a snapshot.
type Snapshot struct {
	Contact    models.Contact
	Account    *models.Account
	SenderName string
	Accounts   AccountLookup
}

// ParseBody splits a body containing {{scope.key}} placeholders into the
// structured document model.
func ParseBody(body string) []Segment {
	var doc []Segment
	for len(body) > 0 {
		open := strings.Index(body, "{{")
		if open == -1 {
			doc = append(doc, Segment{Kind: SegmentText, Value: body})
			break
		}
		end := strings.Index(body[open:], "}}")
		if end == -1 {
			doc = append(doc, Segment{Kind: SegmentText, Value: body})
			break
		}
		if open > 0 {
			doc = append(doc, Segment{Kind: SegmentText, Value: body[:open]})
		}
		token := strings.TrimSpace(body[open+2 : open+end])
		doc = append(doc, Segment{Kind: SegmentToken, Value: token})
		body = body[open+end+2:]
	}
	return doc
}

// SerializeBody writes the document model back to placeholder syntax
func SerializeBody(doc []Segment) string {
	var b strings.Builder
	for _, seg := range doc {
		if seg.Kind == SegmentToken {
			b.WriteString("{{")
			b.WriteString(seg.Value)
			b.WriteString("}}")
		} else {
			b.WriteString(seg.Value)
		}
	}
	return b.String()
}

// RenderPreview renders the document against a snapshot for HTML preview.
// Resolved values are escaped; unresolved tokens become empty strings and
// never fail the render.
func RenderPreview(doc []Segment, snap Snapshot) string {
	var b strings.Builder
	for _, seg := range doc {
		if seg.Kind == SegmentToken {
			value, _ := ResolveToken(seg.Value, snap)
			b.WriteString(html.EscapeString(value))
		} else {
			b.WriteString(seg.Value)
		}
	}
	return b.String()
}

// RenderSubject resolves {{scope.key}} placeholders in plain subject text
// without escaping.
func RenderSubject(subject string, snap Snapshot) string {
	var b strings.Builder
	for _, seg := range ParseBody(subject) {
		if seg.Kind == SegmentToken {
			value, _ := ResolveToken(seg.Value, snap)
			b.WriteString(value)
		} else {
			b.WriteString(seg.Value)
		}
	}
	return b.String()
}

// ResolveToken resolves a scope.key token against the snapshot. The second
// return reports whether a non-empty value was found.
func ResolveToken(token string, snap Snapshot) (string, bool) {
	scope, key, found := strings.Cut(token, ".")
	if !found {
		return "", false
	}

	var value string
	switch scope {
	case "contact":
		switch key {
		case "first_name":
			value = snap.Contact.FirstName
		case "last_name":
			value = snap.Contact.LastName
		case "full_name":
			value = strings.TrimSpace(snap.Contact.FirstName + " " + snap.Contact.LastName)
		case "email":
			value = snap.Contact.Email
		case "company":
			value = CompanyName(snap)
		case "title", "position":
			value = snap.Contact.Position
		case "phone":
			value = snap.Contact.Phone
		case "website":
			value = snap.Contact.Website
		}
	case "account":
		account := resolveAccount(snap)
		if account != nil {
			switch key {
			case "name":
				value = account.Name
			case "domain":
				value = account.Domain
			case "industry":
				value = account.Industry
			}
		}
	case "sender":
		if key == "name" {
			value = snap.SenderName
		}
	}
	return value, value != ""
}

// TokenLabel returns the friendly chip label for a scope.key token
func TokenLabel(token string) string {
	_, key, found := strings.Cut(token, ".")
	if !found {
		key = token
	}
	words := strings.Split(key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// CompanyName resolves the contact's company through the fixed fallback
// chain: direct company fields first, then the nested account object, then
// the cached accounts-by-id lookup.
func CompanyName(snap Snapshot) string {
	if snap.Contact.Company != "" {
		return snap.Contact.Company
	}
	if snap.Contact.CompanyName != "" {
		return snap.Contact.CompanyName
	}
	if snap.Contact.AccountName != "" {
		return snap.Contact.AccountName
	}
	if account := resolveAccount(snap); account != nil && account.Name != "" {
		return account.Name
	}
	return ""
}

func resolveAccount(snap Snapshot) *models.Account {
	if snap.Contact.Account != nil {
		return snap.Contact.Account
	}
	if snap.Account != nil {
		return snap.Account
	}
	if snap.Contact.AccountID != nil && snap.Accounts != nil {
		if account, ok := snap.Accounts.AccountByID(*snap.Contact.AccountID); ok {
			return account
		}
	}
	return nil
}

// bracketTokens maps the prompt-only bracket syntax to a resolver and the
// labeled placeholder used when resolution comes up empty. Prompts must
// never contain an unresolved empty slot.
var bracketTokens = []struct {
	token       string
	placeholder string
	resolve     func(Snapshot) string
}{
	{"[contact_first_name]", "[First Name]", func(s Snapshot) string { return s.Contact.FirstName }},
	{"[contact_last_name]", "[Last Name]", func(s Snapshot) string { return s.Contact.LastName }},
	{"[contact_company]", "[Company Name]", CompanyName},
	{"[contact_title]", "[Job Title]", func(s Snapshot) string { return s.Contact.Position }},
	{"[contact_email]", "[Email Address]", func(s Snapshot) string { return s.Contact.Email }},
	{"[account_name]", "[Company Name]", func(s Snapshot) string {
		if a := resolveAccount(s); a != nil {
			return a.Name
		}
		return ""
	}},
	{"[sender_name]", "[Your Name]", func(s Snapshot) string { return s.SenderName }},
}

// SubstitutePrompt replaces bracket tokens in AI prompt text by direct
// string replacement. Values are not escaped; unresolved tokens become
// their labeled placeholder, never an empty string.
func SubstitutePrompt(prompt string, snap Snapshot) string {
	for _, bt := range bracketTokens {
		if !strings.Contains(prompt, bt.token) {
			continue
		}
		value := bt.resolve(snap)
		if value == "" {
			value = bt.placeholder
		}
		prompt = strings.ReplaceAll(prompt, bt.token, value)
	}
	return prompt
}
