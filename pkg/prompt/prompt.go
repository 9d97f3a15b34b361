// Package prompt assembles the system prompts for every pipeline step.
// All functions are pure: same inputs, same text.
package prompt

import (
	"fmt"
	"strings"

	"github.com/smritlabs/matchbox/pkg/models"
)

// ToolDescriptor is the slice of a tool catalog entry the selection
// prompt needs.
type ToolDescriptor struct {
	Name        string
	Description string
}

const noHistory = "No user history available."

// formatHistory renders the bounded history as one line per entry,
// oldest first.
func formatHistory(history []models.HistoryEntry) string {
	if len(history) == 0 {
		return noHistory
	}
	var b strings.Builder
	for _, entry := range history {
		switch entry.Role {
		case models.RoleTool:
			fmt.Fprintf(&b, "tool: called %s with %v\n", entry.ToolName, entry.ToolArgs)
		default:
			fmt.Fprintf(&b, "%s: %s\n", entry.Role, entry.Content)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// DecisionPrompt builds the routing classifier prompt. The model must
// answer with one of the five decision values.
func DecisionPrompt(history []models.HistoryEntry) string {
	return `You are a routing decision engine for a matchmaking assistant.

YOUR JOB:
Classify the user's latest message into exactly ONE decision.

DECISIONS:
- "tool" — answering REQUIRES querying stored profile data: the user asks to
  find, show, list, filter, or search for people, mentions attributes like
  hair, face, age, gender, location, or refines a previous search
  (e.g. "only females", "next page").
- "no_tool" — greeting, small talk, general knowledge, or questions about
  how the assistant works. Nothing needs stored data.
- "ask_clarification" — the request is about people but too vague or
  ambiguous to search (e.g. a bare region name with no attributes).
- "inappropriate_block" — explicit sexual solicitation or other requests
  the assistant must refuse.
- "gibberish" — the message is noise: random characters, no recoverable
  intent in any language.

OVERRIDE RULE:
If the request CANNOT be answered without querying profile data and it is
clear enough to search, the decision MUST be "tool".

User Conversation History (for context only):
` + formatHistory(history) + `

EXAMPLES:
User: "girls with curly hair"        → {"decision": "tool"}
User: "find males aged 25"           → {"decision": "tool"}
User: "hello"                        → {"decision": "no_tool"}
User: "what is curly hair?"          → {"decision": "no_tool"}
User: "North India"                  → {"decision": "ask_clarification"}
User: "asdkjh qwe zzz"               → {"decision": "gibberish"}

OUTPUT:
Return JSON ONLY:
{
"decision": "tool | no_tool | ask_clarification | inappropriate_block | gibberish"
}`
}

// SelectToolPrompt builds the tool selection prompt from the cleaned
// catalog.
func SelectToolPrompt(catalog []ToolDescriptor, history []models.HistoryEntry) string {
	var tools strings.Builder
	for i, t := range catalog {
		desc := t.Description
		if desc == "" {
			desc = "(no description)"
		}
		fmt.Fprintf(&tools, "%d. %s — %s\n", i+1, t.Name, desc)
	}

	return `You are a STRICT tool selector for a matchmaking assistant.

A TOOL CALL IS REQUIRED.

VALID TOOLS (DO NOT INVENT TOOLS)
You MUST choose exactly ONE of the following tools:
` + strings.TrimRight(tools.String(), "\n") + `

NAME PRIORITY RULE (VERY IMPORTANT)
- If the user mentions a specific person name (e.g. "Adithi", "Rahul",
  "John"), you MUST use search_person_by_name, even if the user also asks
  for details, photos, or more information.
- If the user intent is about appearance, gender, age, location, or
  filters, use search_profiles.
- If the user asks for suggestions or recommendations without giving
  filters, use get_profile_recommendations.
- If the user asks to find people who look like someone in an image
  across locations, use cross_location_visual_search.

User Conversation History (for intent only):
` + formatHistory(history) + `

OUTPUT:
Return JSON ONLY:
{
"selected_tool": "<one tool name from the list>"
}`
}

// ToolArgsPrompt builds the argument extraction prompt for the selected
// tool. schemaJSON is the cleaned input schema; baseline is the persisted
// argument state rendered as JSON ("{}" when absent).
func ToolArgsPrompt(tool, schemaJSON string, history []models.HistoryEntry, baseline string) string {
	if baseline == "" {
		baseline = "{}"
	}

	var b strings.Builder
	b.WriteString(`You are a STRICT MCP tool argument extractor.

A TOOL CALL IS REQUIRED. The tool has already been selected:

SELECTED TOOL: ` + tool + `

TOOL INPUT SCHEMA:
` + schemaJSON + `

YOUR ROLE:
Produce a MINIMAL, SPARSE, and CORRECT argument object for this tool.

SOURCES OF TRUTH (VERY IMPORTANT)
1. current_tool_args is the BASELINE.
2. The LATEST user message MODIFIES or ADDS constraints.
3. Conversation history is for INTENT ONLY — not for re-extracting filters.

MERGING RULES (CRITICAL)
1. START with current_tool_args.
2. If the user mentions a NEW attribute → ADD it.
3. If the user CHANGES an attribute → OVERWRITE that field.
4. If the user explicitly removes an attribute → set it to null.
5. KEEP context across turns.
Example:
- "girls with curly hair"
- "in Bangalore"
→ gender=female AND hair_style=curly AND location=Bangalore

ATTRIBUTE EXTRACTION RULES (CRITICAL)
- ONLY extract attributes that exist in the tool's input schema.
- If a concept DOES NOT EXIST in the schema (e.g. "good looking",
  "beautiful", "attractive"), IGNORE IT COMPLETELY.
- DO NOT convert unsupported concepts into query strings.
- DO NOT invent new fields.
`)

	if guide, ok := toolGuides[tool]; ok {
		b.WriteString("\n" + guide + "\n")
	}

	b.WriteString(`
STRICT OUTPUT RULES (VERY IMPORTANT)
- ALWAYS return JSON ONLY.
- tool_args MUST be a JSON OBJECT (dictionary).
- NEVER return tool_args as a list, a string, or key=value pairs.
- DO NOT include empty or undefined values.
- DO NOT hallucinate default values.

current_tool_args (BASELINE):

` + baseline + `

User Conversation History (for intent only):
` + formatHistory(history) + `

OUTPUT FORMAT (JSON ONLY)
{
"tool_args": {
    "key": "value"
    }
}`)
	return b.String()
}

// toolGuides holds per-tool extraction rules appended to the argument
// prompt when the tool is known.
var toolGuides = map[string]string{
	"search_profiles": `SEARCH_PROFILES GUIDE
- Gender normalization:
  "girl", "girls", "woman", "women", "lady", "ladies" → gender="female"
  "man", "men", "guy", "guys", "boy", "boys" → gender="male"
- Ages: "aged 25" → min_age=25, max_age=25. "in their twenties" →
  min_age=20, max_age=29. "above 30" → min_age=30 only.
- Pagination: "next page", "more", "show me more", "others" →
  {"page": <current page>} and NOTHING ELSE. Do not repeat filters.
- New unrelated search: the user clearly abandons the previous search →
  add "_reset": true alongside the new filters.
- Mixing: never put a person's name into this tool; names belong to
  search_person_by_name.`,
	"search_person_by_name": `SEARCH_PERSON_BY_NAME GUIDE
- Extract the person's name EXACTLY as the user wrote it into "name".
- Do not add appearance or location filters to this tool.
- "more about Adithi", "photos of Rahul" → name only.`,
	"get_profile_recommendations": `GET_PROFILE_RECOMMENDATIONS GUIDE
- This tool takes no filters from the message; pass pagination only.
- "more suggestions", "anyone else" → {"page": <current page>}.`,
	"cross_location_visual_search": `CROSS_LOCATION_VISUAL_SEARCH GUIDE
- Use the image reference from the request, never a textual description.
- "location" is the place to search in, not where the person in the
  image is from.
- Pagination tokens behave as in search_profiles.`,
}

// SummaryUpdatePrompt is the system prompt for the background memory
// updater job.
func SummaryUpdatePrompt() string {
	return `You are a background memory updater for a chat session.
This is a SYSTEM MAINTENANCE TASK — NOT a conversation.

IMPORTANT:
- Be factual, concise, and deterministic
- Do NOT use conversational language
- Do NOT add explanations or commentary
- Do NOT invent or infer information

INPUTS PROVIDED:
1. Current Session Summary (JSON)
2. Last Assistant Answer (for context only)
3. New Tool Args (may be empty or partial)

YOUR TASK:
Update and return the Session Summary JSON.

HOW TO UPDATE EACH FIELD:

1. important_points:
- Store ONLY stable, long-term user preferences or constraints
- Examples: preferred gender, age range, location preference
- Remove any points that directly contradict new information
- Do NOT add transient or conversational statements
- Keep this list short and meaningful

2. user_details:
- Store only facts about the user (e.g. name, self-declared info)
- Do NOT store preferences here
- Do NOT store inferred or speculative data

OUTPUT RULES:
- Return ONLY valid JSON
- Do NOT wrap in markdown
- Do NOT add text before or after the JSON
- Return the updated Summary JSON`
}
