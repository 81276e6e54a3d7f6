package comment

import "slices"

// SortChronological orders comments oldest first. Comments without a
// creation time sort as the Unix epoch; ties keep their input order.
func SortChronological(comments []Comment) {
	slices.SortStableFunc(comments, func(a, b Comment) int {
		return a.EffectiveTime().Compare(b.EffectiveTime())
	})
}
