package domain

// Vocabulary is the set of reason tokens a deployment accepts, plus the
// synonym remaps applied before the membership test and the detail
// string rendered for each token. The token sets used by different
// model prompts never fully agreed (some prompts include eyes_closed,
// others do not), so the vocabulary is configuration, not a universal
// enum.
type Vocabulary struct {
	// Reasons lists the accepted tokens in addition to ReasonFocused.
	Reasons []string `yaml:"reasons"`

	// Synonyms maps model phrasings onto canonical tokens, e.g.
	// "looking_away" -> "not_looking".
	Synonyms map[string]string `yaml:"synonyms"`

	// Details maps tokens to the human-readable detail string.
	Details map[string]string `yaml:"details"`
}

// DefaultVocabulary matches the classification prompts: four canonical
// reasons plus the synonym remaps the models were observed to emit.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Reasons: []string{ReasonPhone, ReasonNotLooking, ReasonNoPerson, ReasonFocused},
		Synonyms: map[string]string{
			"away":         ReasonNotLooking,
			"looking":      ReasonNotLooking,
			"looking_away": ReasonNotLooking,
			"nobody":       ReasonNoPerson,
			"attentive":    ReasonFocused,
		},
		Details: map[string]string{
			ReasonPhone:      "phone visible",
			ReasonNotLooking: "not looking at camera",
			ReasonNoPerson:   "no person in frame",
			ReasonFocused:    "focused",
			ReasonUnknown:    "unclear, treating as distracted",
		},
	}
}

// Allows reports whether reason is an accepted token.
func (v Vocabulary) Allows(reason string) bool {
	for _, r := range v.Reasons {
		if r == reason {
			return true
		}
	}
	return false
}

// Detail returns the display string for reason, falling back to the
// token itself for deployment-specific additions without one.
func (v Vocabulary) Detail(reason string) string {
	if d, ok := v.Details[reason]; ok {
		return d
	}
	return reason
}

// Merge overlays o onto v: extra reasons are appended, synonym and
// detail entries override. Used to apply a deployment vocabulary file
// on top of the defaults.
func (v Vocabulary) Merge(o Vocabulary) Vocabulary {
	out := v
	for _, r := range o.Reasons {
		if !out.Allows(r) {
			out.Reasons = append(out.Reasons, r)
		}
	}
	if len(o.Synonyms) > 0 {
		merged := make(map[string]string, len(v.Synonyms)+len(o.Synonyms))
		for k, val := range v.Synonyms {
			merged[k] = val
		}
		for k, val := range o.Synonyms {
			merged[k] = val
		}
		out.Synonyms = merged
	}
	if len(o.Details) > 0 {
		merged := make(map[string]string, len(v.Details)+len(o.Details))
		for k, val := range v.Details {
			merged[k] = val
		}
		for k, val := range o.Details {
			merged[k] = val
		}
		out.Details = merged
	}
	return out
}
