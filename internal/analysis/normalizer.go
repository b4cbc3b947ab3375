// Package analysis contains the focus-detection core: the prompts sent
// to vision backends, the normalizer that maps their replies onto
// canonical verdicts, the single-flight gate that serializes inference,
// and the service that ties them together.
package analysis

import (
	"encoding/json"
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/codexvision/focusd/internal/domain"
)

// Normalizer maps arbitrary backend output, structured JSON or loosely
// formatted text, onto a canonical Verdict. It never fails: unparseable
// or contradictory output resolves to DISTRACTED, never to FOCUSED.
type Normalizer struct {
	vocab domain.Vocabulary
	caser cases.Caser
}

// NewNormalizer creates a Normalizer with the given reason vocabulary.
func NewNormalizer(vocab domain.Vocabulary) *Normalizer {
	return &Normalizer{
		vocab: vocab,
		caser: cases.Fold(),
	}
}

// Normalize parses raw backend output into a Verdict. Structured JSON
// replies are tried first; anything that fails the structured tier is
// handed to the text tier, which always produces a result.
func (n *Normalizer) Normalize(raw string) domain.Verdict {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return domain.Verdict{
			Label:      domain.LabelDistracted,
			Distracted: true,
			Reason:     domain.ReasonUnknown,
			Detail:     n.vocab.Detail(domain.ReasonUnknown),
			Raw:        raw,
		}
	}

	if fields, ok := extractJSON(trimmed); ok {
		if v, ok := n.normalizeSignals(fields, raw); ok {
			return v
		}
		if v, ok := n.normalizeState(fields, raw); ok {
			return v
		}
	}

	return n.normalizeText(trimmed, raw)
}

// NormalizeDescription wraps a free-text scene description in a SEEING
// verdict. No classification is attempted.
func (n *Normalizer) NormalizeDescription(raw string) domain.Verdict {
	detail := strings.TrimSpace(raw)
	if detail == "" {
		detail = "No response."
	}
	return domain.Verdict{
		Label:  domain.LabelSeeing,
		Reason: domain.ReasonScene,
		Detail: domain.Truncate(detail),
		Raw:    raw,
	}
}

// normalizeSignals handles the three-boolean structured reply. All
// three fields must coerce cleanly; otherwise the caller falls through
// to the next tier.
func (n *Normalizer) normalizeSignals(fields map[string]any, raw string) (domain.Verdict, bool) {
	person, ok := coerceBool(fields["person_present"])
	if !ok {
		return domain.Verdict{}, false
	}
	looking, ok := coerceBool(fields["looking_at_camera"])
	if !ok {
		return domain.Verdict{}, false
	}
	phone, ok := coerceBool(fields["phone_visible"])
	if !ok {
		return domain.Verdict{}, false
	}

	// An absent person cannot be looking or holding a phone.
	if !person {
		looking = false
		phone = false
	}

	distracted := !person || !looking || phone

	reason := domain.ReasonFocused
	switch {
	case phone:
		reason = domain.ReasonPhone
	case !person:
		reason = domain.ReasonNoPerson
	case !looking:
		reason = domain.ReasonNotLooking
	}

	label := domain.LabelFocused
	if distracted {
		label = domain.LabelDistracted
	}

	return domain.Verdict{
		Label:      label,
		Distracted: distracted,
		Reason:     reason,
		Detail:     n.vocab.Detail(reason),
		Signals: &domain.Signals{
			PersonPresent:   person,
			LookingAtCamera: looking,
			PhoneVisible:    phone,
		},
		Raw: raw,
	}, true
}

// normalizeState handles the {state, reason} structured reply by
// rewriting it as a "STATE: reason" line for the text tier.
func (n *Normalizer) normalizeState(fields map[string]any, raw string) (domain.Verdict, bool) {
	state, ok := fields["state"].(string)
	if !ok || strings.TrimSpace(state) == "" {
		return domain.Verdict{}, false
	}
	reason, _ := fields["reason"].(string)
	return n.normalizeText(state+": "+reason, raw), true
}

// normalizeText is the fallback tier: first non-empty line, split on
// the first colon, status resolved by prefix match. Unrecognized status
// defaults to DISTRACTED.
func (n *Normalizer) normalizeText(text, raw string) domain.Verdict {
	line := firstLine(text)

	status := line
	token := ""
	if i := strings.Index(line, ":"); i >= 0 {
		status = line[:i]
		token = line[i+1:]
	}

	statusFold := n.caser.String(strings.TrimSpace(status))
	if strings.HasPrefix(statusFold, "focus") {
		return domain.Verdict{
			Label:  domain.LabelFocused,
			Reason: domain.ReasonFocused,
			Detail: n.vocab.Detail(domain.ReasonFocused),
			Raw:    raw,
		}
	}

	reason := n.canonicalReason(token)
	return domain.Verdict{
		Label:      domain.LabelDistracted,
		Distracted: true,
		Reason:     reason,
		Detail:     n.vocab.Detail(reason),
		Raw:        raw,
	}
}

// canonicalReason folds a reason token, applies synonym remaps, and
// tests vocabulary membership. Tokens within edit distance 1 of a
// known token are remapped onto it to absorb single-character model
// typos. Anything else resolves to "unknown".
func (n *Normalizer) canonicalReason(token string) string {
	tok := n.caser.String(strings.TrimSpace(token))
	tok = strings.Trim(tok, ".!?\"'")
	tok = strings.NewReplacer(" ", "_", "-", "_").Replace(tok)
	if tok == "" {
		return domain.ReasonUnknown
	}

	if mapped, ok := n.vocab.Synonyms[tok]; ok {
		return mapped
	}
	if n.vocab.Allows(tok) {
		return tok
	}

	for _, r := range n.vocab.Reasons {
		if levenshtein.ComputeDistance(tok, r) <= 1 {
			return r
		}
	}
	for k, mapped := range n.vocab.Synonyms {
		if levenshtein.ComputeDistance(tok, k) <= 1 {
			return mapped
		}
	}

	return domain.ReasonUnknown
}

// extractJSON locates a JSON object inside text, tolerating markdown
// code fences and surrounding prose, and decodes it into a map.
func extractJSON(text string) (map[string]any, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, false
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &fields); err != nil {
		return nil, false
	}
	return fields, true
}

// coerceBool accepts the boolean spellings models actually produce.
// Anything unrecognized is reported as unknown so the caller can fall
// through to the text tier.
func coerceBool(v any) (value, ok bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "yes":
			return true, true
		case "false", "0", "no":
			return false, true
		}
	case float64:
		if t == 1 {
			return true, true
		}
		if t == 0 {
			return false, true
		}
	}
	return false, false
}

// firstLine returns the first non-empty line of text, trimmed.
func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
