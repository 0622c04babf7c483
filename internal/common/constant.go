package common

const (
	// AllGroups is the group filter value that disables group filtering.
	AllGroups = "__all__"

	// Ungrouped is the group filter value that selects notes without a group.
	Ungrouped = "__none__"

	// MaxSearchResults caps how many search hits are delivered back.
	MaxSearchResults = 30

	// BatchSize is the chunk size used for bulk note delivery.
	BatchSize = 8

	// MaxNameLength bounds usernames and keywords.
	MaxNameLength = 50

	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 4
)

// IsAllGroups reports whether the filter selects every group.
func IsAllGroups(group string) bool {
	return group == "" || group == AllGroups
}
