// Package classify maps free text onto the fixed memory taxonomy.
//
// The rules are deterministic and side-effect-free so the exact same
// function tags memories at write time and derives category filters at
// read time.
package classify

import (
	"strings"

	"github.com/hearthside/keeper/core"
)

type rule struct {
	category core.Category
	keywords []string
}

// Rules are checked in priority order; the first keyword hit wins.
var rules = []rule{
	{core.CategoryMedication, []string{
		"pill", "medication", "medicine", "aspirin", "panadol", "antibiotic",
		"tablet", "capsule", "vitamin", "dose", "drug", "prescription",
	}},
	{core.CategoryMeal, []string{
		"eat", "ate", "food", "lunch", "dinner", "breakfast", "meal",
		"drink", "drank",
	}},
	{core.CategoryCall, []string{
		"call", "phone", "talk", "spoke", "visit", "met", "daughter", "son",
		"friend", "family",
	}},
	{core.CategoryAppointment, []string{
		"doctor", "hospital", "clinic", "dentist", "appointment", "checkup",
		"therapy", "nurse",
	}},
	{core.CategoryActivity, []string{
		"walk", "exercise", "read", "watch", "tv", "sleep", "nap", "woke",
		"shower", "bath", "garden",
	}},
}

// Text classifies free text into a category. Unmatched text falls through
// to the general category.
func Text(text string) core.Category {
	lower := strings.ToLower(text)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.category
			}
		}
	}
	return core.CategoryGeneral
}
