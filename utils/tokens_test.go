package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"outreachflow/models"
)

type stubAccounts map[uint]*models.Account

func (s stubAccounts) AccountByID(id uint) (*models.Account, bool) {
	account, ok := s[id]
	return account, ok
}

func snapshotFor(contact models.Contact) Snapshot {
	return Snapshot{Contact: contact, SenderName: "Dana"}
}

func TestParseBodyRoundTrip(t *testing.T) {
	body := "Hi {{contact.first_name}}, greetings from {{sender.name}}!"

	doc := ParseBody(body)
	require.Len(t, doc, 5)
	assert.Equal(t, Segment{Kind: SegmentText, Value: "Hi "}, doc[0])
	assert.Equal(t, Segment{Kind: SegmentToken, Value: "contact.first_name"}, doc[1])
	assert.Equal(t, Segment{Kind: SegmentToken, Value: "sender.name"}, doc[3])

	assert.Equal(t, body, SerializeBody(doc))
}

func TestParseBodyUnterminatedToken(t *testing.T) {
	doc := ParseBody("Hello {{contact.first_name")
	require.Len(t, doc, 1)
	assert.Equal(t, SegmentText, doc[0].Kind)
}

func TestRenderPreviewResolvesAndEscapes(t *testing.T) {
	snap := snapshotFor(models.Contact{FirstName: "Ada", Company: "Tyrell <Corp>"})

	got := RenderPreview(ParseBody("Hi {{contact.first_name}} at {{contact.company}}"), snap)
	assert.Equal(t, "Hi Ada at Tyrell &lt;Corp&gt;", got)
}

func TestRenderPreviewUnresolvedTokenIsEmpty(t *testing.T) {
	snap := snapshotFor(models.Contact{})

	got := RenderPreview(ParseBody("Hi {{contact.first_name}}, bye"), snap)
	assert.Equal(t, "Hi , bye", got)
}

func TestRenderSubjectDoesNotEscape(t *testing.T) {
	snap := snapshotFor(models.Contact{Company: "A&B"})

	got := RenderSubject("Intro to {{contact.company}}", snap)
	assert.Equal(t, "Intro to A&B", got)
}

func TestResolveTokenScopes(t *testing.T) {
	contact := models.Contact{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Position:  "VP Engineering",
		Account:   &models.Account{Name: "Babbage Inc", Domain: "babbage.io", Industry: "Computing"},
	}
	snap := snapshotFor(contact)

	tests := []struct {
		token string
		want  string
	}{
		{"contact.first_name", "Ada"},
		{"contact.full_name", "Ada Lovelace"},
		{"contact.email", "ada@example.com"},
		{"contact.title", "VP Engineering"},
		{"contact.company", "Babbage Inc"},
		{"account.name", "Babbage Inc"},
		{"account.domain", "babbage.io"},
		{"account.industry", "Computing"},
		{"sender.name", "Dana"},
	}
	for _, tt := range tests {
		value, ok := ResolveToken(tt.token, snap)
		assert.True(t, ok, tt.token)
		assert.Equal(t, tt.want, value, tt.token)
	}

	_, ok := ResolveToken("contact.shoe_size", snap)
	assert.False(t, ok)
	_, ok = ResolveToken("noscope", snap)
	assert.False(t, ok)
}

func TestCompanyNameFallbackChain(t *testing.T) {
	accountID := uint(7)
	cache := stubAccounts{7: {Model: gorm.Model{ID: 7}, Name: "Cached Co"}}

	tests := []struct {
		name    string
		contact models.Contact
		want    string
	}{
		{"company field wins", models.Contact{Company: "Direct", CompanyName: "Second"}, "Direct"},
		{"company_name next", models.Contact{CompanyName: "Second", AccountName: "Third"}, "Second"},
		{"account_name next", models.Contact{AccountName: "Third"}, "Third"},
		{"nested account next", models.Contact{Account: &models.Account{Name: "Nested"}}, "Nested"},
		{"cache lookup last", models.Contact{AccountID: &accountID}, "Cached Co"},
		{"all empty", models.Contact{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := Snapshot{Contact: tt.contact, Accounts: cache}
			assert.Equal(t, tt.want, CompanyName(snap))
		})
	}
}

func TestTokenLabel(t *testing.T) {
	assert.Equal(t, "First Name", TokenLabel("contact.first_name"))
	assert.Equal(t, "Name", TokenLabel("account.name"))
	assert.Equal(t, "Company", TokenLabel("company"))
}

func TestSubstitutePrompt(t *testing.T) {
	snap := Snapshot{
		Contact:    models.Contact{FirstName: "Ada", Company: "Babbage Inc"},
		SenderName: "Dana",
	}

	got := SubstitutePrompt("Write to [contact_first_name] at [contact_company] from [sender_name]", snap)
	assert.Equal(t, "Write to Ada at Babbage Inc from Dana", got)
}

func TestSubstitutePromptResolvesCompanyThroughCache(t *testing.T) {
	accountID := uint(7)
	contact := models.Contact{FirstName: "Ada", AccountID: &accountID}
	cache := stubAccounts{7: {Model: gorm.Model{ID: 7}, Name: "Cached Co"}}

	got := SubstitutePrompt("Write to [contact_first_name] at [contact_company]",
		Snapshot{Contact: contact, Accounts: cache})
	assert.Equal(t, "Write to Ada at Cached Co", got)

	// Without the lookup attached the slot degrades to its placeholder
	bare := SubstitutePrompt("Write to [contact_first_name] at [contact_company]",
		Snapshot{Contact: contact})
	assert.Equal(t, "Write to Ada at [Company Name]", bare)
}

func TestSubstitutePromptPlaceholdersOnMiss(t *testing.T) {
	got := SubstitutePrompt("Write to [contact_first_name] about [contact_title]", Snapshot{})
	assert.Equal(t, "Write to [First Name] about [Job Title]", got)
}
