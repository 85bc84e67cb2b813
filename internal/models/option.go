package models

// Option is a dropdown choice. Plain strings are normalized to an Option
// whose value and label are equal, so callers never branch on shape.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// OptionsFromStrings normalizes plain string choices.
func OptionsFromStrings(values ...string) []Option {
	out := make([]Option, len(values))
	for i, v := range values {
		out[i] = Option{Value: v, Label: v}
	}
	return out
}
