package dispatch

import "github.com/sakif/grindboard/internal/model"

// FilterEligible returns the users who should be messaged in this slot:
// not admins, onboarding completed, and a grind time inside the slot.
// The output keeps the input order.
func FilterEligible(users []model.User, slot Slot) []model.User {
	eligible := make([]model.User, 0, len(users))
	for _, u := range users {
		if u.IsAdmin() || !u.OnboardingCompleted {
			continue
		}
		if !InSlot(u.DailyGrindTime, slot) {
			continue
		}
		eligible = append(eligible, u)
	}
	return eligible
}

// GroupByIntensity partitions users by roast tier. All three tiers are
// present in the result, possibly empty; unknown or missing tiers count as
// medium.
func GroupByIntensity(users []model.User) map[model.Intensity][]model.User {
	groups := make(map[model.Intensity][]model.User, len(model.Intensities))
	for _, i := range model.Intensities {
		groups[i] = []model.User{}
	}
	for _, u := range users {
		i := u.Intensity()
		groups[i] = append(groups[i], u)
	}
	return groups
}
