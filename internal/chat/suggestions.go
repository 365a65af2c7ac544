package chat

// Suggestion is a canned helper action offered next to the chat box.
type Suggestion struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Reply string `json:"reply"`
}

var suggestions = []Suggestion{
	{
		ID:    "profile-data",
		Label: "Show profile data",
		Reply: "Here is the profile data for the selected float. You can see the detailed measurements in the table below.",
	},
	{
		ID:    "suggest-float",
		Label: "Suggest a float",
		Reply: "Based on your search criteria, I suggest looking at Float 67890 in the Pacific Ocean or Float 11111 in the Indian Ocean. Would you like to explore either of these?",
	},
	{
		ID:    "define-parameters",
		Label: "Define parameters",
		Reply: "You can define search parameters using the filters on the right sidebar. Select region, time period, float type, and specific measurements you're interested in.",
	},
}

// Suggestions returns the helper actions in display order.
func Suggestions() []Suggestion {
	out := make([]Suggestion, len(suggestions))
	copy(out, suggestions)
	return out
}

// FindSuggestion looks a helper action up by id.
func FindSuggestion(id string) (Suggestion, bool) {
	for _, s := range suggestions {
		if s.ID == id {
			return s, true
		}
	}
	return Suggestion{}, false
}
