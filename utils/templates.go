package utils

import (
	"fmt"
	"math/rand"
	"strings"
)

// Template names in the fixed prompt catalogue
const (
	TemplateFirstEmailIntro    = "first-email-intro"
	TemplateFollowUpValue      = "follow-up-value"
	TemplateFollowUpCuriosity  = "follow-up-curiosity"
	TemplateNurtureValue       = "nurture-value"
	TemplatePostConvoRecap     = "post-convo-recap"
	TemplateInfoRequestBill    = "info-request-bill"
	TemplateFinalAskClose      = "final-ask-close"
	TemplateObjectionPrice     = "objection-response-price"
	TemplateObjectionTiming    = "objection-response-timing"
	TemplateObjectionComp      = "objection-response-competitor"
	TemplateBreakupEmail       = "breakup-email"
)

// CTA is one call-to-action candidate, tagged for the role it targets
type CTA struct {
	Text string
	Tag  string
}

// ctaPool holds the call-to-action candidates. Entries tagged "all" apply
// to every contact; role-tagged entries only join the draw when the
// inferred role matches.
var ctaPool = []CTA{
	{Text: "Would a quick 15-minute call next week make sense?", Tag: "all"},
	{Text: "Open to comparing notes for 10 minutes this week?", Tag: "all"},
	{Text: "Worth a short conversation, or should I close the loop?", Tag: "all"},
	{Text: "Happy to send over a two-line summary first if that's easier.", Tag: "all"},
	{Text: "Could I send a one-page breakdown of the cost impact for your review?", Tag: "finance"},
	{Text: "Would a 15-minute walkthrough of the ROI model be useful?", Tag: "finance"},
	{Text: "Want me to share the integration docs so your team can kick the tires?", Tag: "engineering"},
	{Text: "Could I set up a sandbox so you can try it against real data?", Tag: "engineering"},
	{Text: "Would a side-by-side against your current pipeline numbers be helpful?", Tag: "sales"},
	{Text: "Is this something you'd want a direct report to evaluate first?", Tag: "executive"},
}

// roleKeywords is the explicit role-inference policy: lowered job titles
// are matched against each row in order, first hit wins, no hit means
// "all". The table is a var so a deployment can swap it.
var roleKeywords = []struct {
	Role     string
	Keywords []string
}{
	{Role: "finance", Keywords: []string{"cfo", "finance", "financial", "controller", "accounting", "treasurer", "billing"}},
	{Role: "engineering", Keywords: []string{"cto", "engineer", "developer", "architect", "devops", "technical", "technology"}},
	{Role: "sales", Keywords: []string{"sales", "revenue", "account executive", "business development", "cro"}},
	{Role: "executive", Keywords: []string{"ceo", "founder", "president", "owner", "managing director", "coo"}},
}

// InferRole maps a job title to a CTA role, defaulting to "all" when the
// title matches nothing.
func InferRole(title string) string {
	lower := strings.ToLower(title)
	if lower == "" {
		return "all"
	}
	for _, row := range roleKeywords {
		for _, kw := range row.Keywords {
			if strings.Contains(lower, kw) {
				return row.Role
			}
		}
	}
	return "all"
}

// FilterCTAs returns the pool entries eligible for a role
func FilterCTAs(role string) []CTA {
	var out []CTA
	for _, cta := range ctaPool {
		if cta.Tag == "all" || cta.Tag == role {
			out = append(out, cta)
		}
	}
	return out
}

// PickCTA draws one eligible call-to-action uniformly at random
func PickCTA(rng *rand.Rand, role string) string {
	candidates := FilterCTAs(role)
	if len(candidates) == 0 {
		return ""
	}
	return candidates[rng.Intn(len(candidates))].Text
}

// promptTemplates is the fixed catalogue. Each template is a pure function
// of (ctaLine, role); bracket tokens are substituted later against the
// previewed contact. An empty ctaLine means the template's CTA slot was
// disabled or the template takes none.
var promptTemplates = map[string]func(ctaLine string) string{
	TemplateFirstEmailIntro: func(cta string) string {
		return withCTA(`Write a short cold introduction email to [contact_first_name], who is [contact_title] at [contact_company]. Introduce [sender_name] in one sentence, name one concrete pain point a company like [contact_company] likely has, and keep the whole email under 120 words. No buzzwords.`, cta)
	},
	TemplateFollowUpValue: func(cta string) string {
		return withCTA(`Write a follow-up email to [contact_first_name] at [contact_company] referencing my previous note. Lead with one specific, quantified piece of value we could deliver for a company like theirs. Two short paragraphs maximum.`, cta)
	},
	TemplateFollowUpCuriosity: func(string) string {
		return `Write a brief, curiosity-driven follow-up to [contact_first_name]. Ask one genuine question about how [contact_company] currently handles outbound outreach. Do not pitch. Under 80 words.`
	},
	TemplateNurtureValue: func(string) string {
		return `Write a no-ask nurture email to [contact_first_name] at [contact_company]. Share one useful, specific insight relevant to a [contact_title], with no call to action and no links. Friendly, under 100 words.`
	},
	TemplatePostConvoRecap: func(string) string {
		return `Write a recap email to [contact_first_name] after our recent conversation. Thank them, summarize the two main points discussed in bullet form, and confirm the agreed next step. Professional but warm.`
	},
	TemplateInfoRequestBill: func(string) string {
		return `Write a short email to [contact_first_name] at [contact_company] asking whether they could share a recent bill or usage summary so we can put together a concrete savings estimate. Reassure them about confidentiality in one sentence.`
	},
	TemplateFinalAskClose: func(cta string) string {
		return withCTA(`Write a final direct email to [contact_first_name] at [contact_company]. Acknowledge I have reached out a few times, restate the single strongest reason this is worth their time, and make one clear ask. Under 90 words.`, cta)
	},
	TemplateObjectionPrice: func(string) string {
		return `Write a reply to [contact_first_name] who said our offering is too expensive. Acknowledge the concern without discounting, reframe around total cost versus their current approach at [contact_company], and offer a smaller starting scope.`
	},
	TemplateObjectionTiming: func(string) string {
		return `Write a reply to [contact_first_name] who said now is not the right time. Agree gracefully, plant one reason timing may matter more than it seems for [contact_company], and propose a specific month to reconnect.`
	},
	TemplateObjectionComp: func(string) string {
		return `Write a reply to [contact_first_name] who said they already use a competitor. Do not disparage the competitor. Ask one pointed question about a known gap, and offer a low-effort comparison for [contact_company].`
	},
	TemplateBreakupEmail: func(string) string {
		return `Write a polite breakup email to [contact_first_name] at [contact_company]. Say this is my last note, leave the door open in one sentence, and wish them well. Under 70 words, no guilt-tripping.`
	},
}

// ctaTemplates names the templates that inject a randomized CTA line
var ctaTemplates = map[string]bool{
	TemplateFirstEmailIntro: true,
	TemplateFollowUpValue:   true,
	TemplateFinalAskClose:   true,
}

func withCTA(prompt, cta string) string {
	if cta == "" {
		return prompt
	}
	return prompt + fmt.Sprintf(` End the email with this exact call to action: %q`, cta)
}

// TemplateNames lists the catalogue in a stable order
func TemplateNames() []string {
	return []string{
		TemplateFirstEmailIntro,
		TemplateFollowUpValue,
		TemplateFollowUpCuriosity,
		TemplateNurtureValue,
		TemplatePostConvoRecap,
		TemplateInfoRequestBill,
		TemplateFinalAskClose,
		TemplateObjectionPrice,
		TemplateObjectionTiming,
		TemplateObjectionComp,
		TemplateBreakupEmail,
	}
}

// HasTemplate reports whether a name is part of the catalogue
func HasTemplate(name string) bool {
	_, ok := promptTemplates[name]
	return ok
}

// BuildPrompt resolves a catalogue template into prompt text. Templates
// with a CTA slot get one line drawn from the pool filtered by role when
// ctaEnabled is set.
func BuildPrompt(name string, ctaEnabled bool, role string, rng *rand.Rand) (string, error) {
	tmpl, ok := promptTemplates[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt template %q", name)
	}
	cta := ""
	if ctaEnabled && ctaTemplates[name] {
		cta = PickCTA(rng, role)
	}
	return tmpl(cta), nil
}
