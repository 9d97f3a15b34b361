package prompt

import (
	"fmt"
	"strings"

	"github.com/smritlabs/matchbox/pkg/models"
)

// SummarizeOpts carries the optional context blocks composed into the
// final-answer prompt.
type SummarizeOpts struct {
	HasResults bool
	Persona    *models.PersonaConfig
	Summary    *models.SessionSummary
	Profile    *models.UserProfile
}

const shortAnswerConstraint = `LENGTH CONSTRAINT (ABSOLUTE)
Keep the response short: one to three natural sentences. Never produce
lists, headings, or multiple options.`

// SummarizePrompt builds the final-answer prompt for the given decision.
func SummarizePrompt(decision models.Decision, opts SummarizeOpts) string {
	var b strings.Builder

	switch decision {
	case models.DecisionTool:
		if opts.HasResults {
			b.WriteString(summarizeWithResults)
		} else {
			b.WriteString(summarizeNoResults)
		}
	case models.DecisionAskClarification:
		b.WriteString(summarizeClarify)
	case models.DecisionInappropriateBlock:
		b.WriteString(summarizeBlock)
	case models.DecisionGibberish:
		b.WriteString(summarizeGibberish)
	default:
		b.WriteString(summarizeNoTool)
	}

	if block := PersonaBlock(opts.Persona); block != "" {
		b.WriteString("\n\n" + block)
	}
	if opts.Summary != nil && (len(opts.Summary.ImportantPoints) > 0 || len(opts.Summary.UserDetails) > 0) {
		b.WriteString("\n\nSESSION MEMORY")
		if len(opts.Summary.ImportantPoints) > 0 {
			b.WriteString("\nImportant Points: " + strings.Join(opts.Summary.ImportantPoints, "; "))
		}
		if len(opts.Summary.UserDetails) > 0 {
			b.WriteString("\nUser Details: " + strings.Join(opts.Summary.UserDetails, "; "))
		}
	}
	if block := profileBlock(opts.Profile); block != "" {
		b.WriteString("\n\n" + block)
	}

	b.WriteString("\n\n" + shortAnswerConstraint)
	b.WriteString("\n\n" + languageConstraint(opts.Persona))
	return b.String()
}

const summarizeWithResults = `You are a friendly, conversational matchmaker chatting in real time.

The profile search found MATCHES (provided as tool_result).

HOW TO RESPOND
- React naturally and positively
- Speak at a high level — matchmaker style
- DO NOT list profiles, attributes, counts, or stats
- Invite refinement casually (location, vibe, preferences)

ABSOLUTE RULES
- Sound like a natural chat — NOT an email, report, or numbered list
- No formal language, no greetings, no sign-offs
- NEVER mention tools, databases, filters, queries, or data
- NEVER hallucinate people, matches, or details`

const summarizeNoResults = `You are a friendly, conversational matchmaker chatting in real time.

The profile search came back EMPTY.

HOW TO RESPOND
- Say it gently and casually
- NEVER blame data, systems, databases, or filters
- Stay optimistic and encouraging
- Suggest relaxing or tweaking criteria naturally
- Ask one simple follow-up question

ABSOLUTE RULES
- Sound like a natural chat — NOT an email, report, or numbered list
- No formal language, no greetings, no sign-offs
- NEVER say "no data found" or similar
- NEVER sound apologetic or final`

const summarizeNoTool = `You are a friendly, conversational matchmaker chatting in real time.

The user is NOT searching right now; respond like normal conversation.

HOW TO RESPOND
- Stay friendly, warm, and engaged
- Use short, simple, conversational sentences
- One single flowing response — NEVER multiple options or variations

ABSOLUTE RULES
- Sound like a natural chat — NOT an email, report, or numbered list
- No formal language, no greetings, no sign-offs
- NEVER mention tools, databases, filters, queries, or data`

const summarizeClarify = `You are a friendly, conversational matchmaker chatting in real time.

The user's request is too vague to search on.

HOW TO RESPOND
- DO NOT guess or assume
- Ask exactly ONE short, natural clarification question
- Keep it conversational, not interrogative

ABSOLUTE RULES
- One question only, nothing else
- NEVER mention tools, databases, filters, queries, or data`

const summarizeBlock = `You are a matchmaking assistant.

The user's request is inappropriate and must be declined.

HOW TO RESPOND
- Decline in one or two calm sentences
- Do not lecture, do not engage with the content
- Do not ask a follow-up question
- Do not suggest alternatives`

const summarizeGibberish = `You are a friendly, conversational matchmaker chatting in real time.

The user's message could not be understood.

HOW TO RESPOND
- Say so lightly in a single sentence and invite them to rephrase
- Do not guess at intent`

// PersonaBlock renders the persona configuration as prompt text. Only
// the populated sections appear; an empty persona yields "".
func PersonaBlock(p *models.PersonaConfig) string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("PERSONA\nYou are role-playing the following person. Stay in character.")

	if id := p.Identity; id != nil {
		if id.FullName != "" {
			fmt.Fprintf(&b, "\nName: %s", id.FullName)
		}
		if id.Age > 0 {
			fmt.Fprintf(&b, "\nAge: %d", id.Age)
		}
		if id.Location != "" {
			fmt.Fprintf(&b, "\nLocation: %s", id.Location)
		}
		if id.PhysicalDescription != "" {
			fmt.Fprintf(&b, "\nAppearance: %s", id.PhysicalDescription)
		}
	}
	if pr := p.Professional; pr != nil {
		if pr.CurrentRole != "" {
			role := pr.CurrentRole
			if pr.Company != "" {
				role += " at " + pr.Company
			}
			fmt.Fprintf(&b, "\nWork: %s", role)
		}
		if len(pr.AreasOfExpertise) > 0 {
			fmt.Fprintf(&b, "\nExpertise: %s", strings.Join(pr.AreasOfExpertise, ", "))
		}
	}
	if ac := p.Academics; ac != nil && len(ac.University) > 0 {
		fmt.Fprintf(&b, "\nEducation: %s", strings.Join(ac.University, ", "))
	}
	if fa := p.Family; fa != nil && fa.MaritalStatus != "" {
		fmt.Fprintf(&b, "\nMarital status: %s", fa.MaritalStatus)
	}
	if ls := p.Lifestyle; ls != nil {
		if len(ls.Hobbies) > 0 {
			fmt.Fprintf(&b, "\nHobbies: %s", strings.Join(ls.Hobbies, ", "))
		}
		if len(ls.PersonalInterests) > 0 {
			fmt.Fprintf(&b, "\nInterests: %s", strings.Join(ls.PersonalInterests, ", "))
		}
		if ls.LifestyleDescription != "" {
			fmt.Fprintf(&b, "\nLifestyle: %s", ls.LifestyleDescription)
		}
	}
	if st := p.Strengths; st != nil {
		if len(st.Strengths) > 0 {
			fmt.Fprintf(&b, "\nStrengths: %s", strings.Join(st.Strengths, ", "))
		}
		if len(st.Weaknesses) > 0 {
			fmt.Fprintf(&b, "\nWeaknesses: %s", strings.Join(st.Weaknesses, ", "))
		}
	}
	if len(p.Expertise) > 0 {
		fmt.Fprintf(&b, "\nTopics you know well: %s", strings.Join(p.Expertise, ", "))
	}
	if p.Humor != "" {
		fmt.Fprintf(&b, "\nHumor: %s", p.Humor)
	}

	out := b.String()
	if !strings.Contains(out, "\nName:") && !strings.Contains(out, "\nWork:") &&
		strings.Count(out, "\n") < 2 {
		// Nothing beyond the header was populated.
		return ""
	}
	return out
}

func profileBlock(p *models.UserProfile) string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("CONNECTED USER\nYou are talking with this person:")
	if p.Name != "" {
		fmt.Fprintf(&b, "\nName: %s", p.Name)
	}
	if p.Age > 0 {
		fmt.Fprintf(&b, "\nAge: %d", p.Age)
	}
	if p.Gender != "" {
		fmt.Fprintf(&b, "\nGender: %s", p.Gender)
	}
	if p.Country != "" {
		fmt.Fprintf(&b, "\nLocation: %s", p.Country)
	}
	if len(p.Interests) > 0 {
		fmt.Fprintf(&b, "\nInterests: %s", strings.Join(p.Interests, ", "))
	}
	return b.String()
}

func languageConstraint(p *models.PersonaConfig) string {
	lang := "English"
	switch {
	case p != nil && p.Language != "":
		lang = p.Language
	case p != nil && p.Identity != nil && len(p.Identity.Languages) > 0:
		lang = strings.Join(p.Identity.Languages, " or ")
	}
	return "LANGUAGE\nRespond in " + lang + "."
}
