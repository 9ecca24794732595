package domain

// Conditions is the loosely typed per-trigger configuration bag
// values arrive as decoded JSON, so numbers are float64
type Conditions map[string]any

// Float reads a numeric condition, 0 when absent or mistyped
func (c Conditions) Float(key string) float64 {
	switch v := c[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// String reads a string condition, empty when absent or mistyped
func (c Conditions) String(key string) string {
	s, _ := c[key].(string)
	return s
}

// Strings reads a string list condition
func (c Conditions) Strings(key string) []string {
	raw, ok := c[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Condition keys by trigger type
const (
	CondDropPct     = "drop_pct"     // score_drop
	CondRisePct     = "rise_pct"     // score_rise
	CondThreshold   = "threshold"    // score_threshold
	CondDirection   = "direction"    // score_threshold
	CondDays        = "days"         // window for score_drop/score_rise, quiet spell for engagement_drop/account_inactive
	CondSourceTypes = "source_types" // new_hot_signal
)
