package analysis

// Prompts sent to the vision backends. Each analysis mode pairs one of
// these with the matching normalizer tier: the classify prompt demands
// a single fixed-format line, the signals prompt demands a strict JSON
// object, and the describe prompt allows free text.

// ClassifyPrompt asks for exactly one "STATUS: reason" line. Backends
// without schema enforcement rely on this format instruction alone.
const ClassifyPrompt = "Classify attention from the image.\n" +
	"Rules: DISTRACTED if phone visible, looking away, eyes closed/asleep, or person not visible. " +
	"If image is dark/blank/covered or unsure, choose DISTRACTED.\n" +
	"Output exactly one line in this format:\n" +
	"FOCUSED: focused\n" +
	"or\n" +
	"DISTRACTED: phone\n" +
	"DISTRACTED: away\n" +
	"DISTRACTED: no_person\n" +
	"Choose exactly ONE reason token from: phone, away, no_person, focused.\n" +
	"Do not add extra words or separators.\n" +
	"No other text."

// SignalsSystemPrompt accompanies SignalsPrompt on backends that accept
// a system message.
const SignalsSystemPrompt = "Only respond in JSON."

// SignalsPrompt asks for three boolean observations instead of a final
// label. The distraction rule is applied locally so the model only has
// to report what it sees.
const SignalsPrompt = "Classify attention from this webcam image.\n" +
	"Rules (be conservative):\n" +
	"- person_present=true ONLY if a person is clearly visible.\n" +
	"- looking_at_camera=true ONLY if eyes are clearly visible and directed at the camera lens.\n" +
	"- phone_visible=true ONLY if a phone/smartphone is clearly visible.\n" +
	"- Do NOT count monitors, laptops, remotes, reflections, or hands as phones.\n" +
	"- If person_present=false, set looking_at_camera=false and phone_visible=false.\n" +
	"- If unsure about any field, set it to false.\n" +
	"DISTRACTED if phone_visible=true OR person_present=false OR looking_at_camera=false.\n" +
	"Otherwise FOCUSED.\n" +
	"Return JSON only in this schema:\n" +
	"{\"person_present\":true|false,\"looking_at_camera\":true|false,\"phone_visible\":true|false}\n" +
	"No extra text."

// SignalsSchemaName names the schema in structured-output requests.
const SignalsSchemaName = "focus_signals"

// SignalsSchema is the strict JSON schema enforced on backends that
// support constrained decoding.
const SignalsSchema = `{
  "type": "object",
  "properties": {
    "person_present": {"type": "boolean"},
    "looking_at_camera": {"type": "boolean"},
    "phone_visible": {"type": "boolean"}
  },
  "required": ["person_present", "looking_at_camera", "phone_visible"],
  "additionalProperties": false
}`

// StatePrompt asks for a {state, reason} JSON object. Used with
// backends that take a response format but not a full schema payload.
const StatePrompt = "Classify attention from the image.\n" +
	"Rules: DISTRACTED if phone visible, looking away, eyes closed/asleep, or person not visible. " +
	"If image is dark/blank/covered or unsure, choose DISTRACTED.\n" +
	"Return JSON only. Keys: state, reason.\n" +
	"state must be FOCUSED or DISTRACTED.\n" +
	"reason must be one of: phone, away, no_person, focused."

// StateSchema constrains the {state, reason} reply.
const StateSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "state": {"type": "string", "enum": ["FOCUSED", "DISTRACTED"]},
    "reason": {"type": "string", "enum": ["phone", "away", "no_person", "focused"]}
  },
  "required": ["state", "reason"]
}`

// DescribeSystemPrompt accompanies DescribePrompt.
const DescribeSystemPrompt = "You are a concise vision assistant. Reply with one short sentence."

// DescribePrompt asks for a one-sentence scene description. Replies are
// surfaced as SEEING verdicts without classification.
const DescribePrompt = "Describe what you see in the image in a single short sentence. " +
	"If the image is unclear, say so briefly."
