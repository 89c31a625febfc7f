package domain

import "strings"

// SourceType classifies a catalog entry by the platform it lives on.
type SourceType string

const (
	SourceAcademicJournal SourceType = "academic-journal"
	SourceVideoChannel    SourceType = "video-channel"
	SourceForumCommunity  SourceType = "forum-community"
	SourceNewsletter      SourceType = "newsletter"
	SourcePodcast         SourceType = "podcast"
	SourceGenericBlog     SourceType = "generic-blog"
	SourceUnknown         SourceType = "unknown"
)

var allSourceTypes = []SourceType{
	SourceAcademicJournal,
	SourceVideoChannel,
	SourceForumCommunity,
	SourceNewsletter,
	SourcePodcast,
	SourceGenericBlog,
	SourceUnknown,
}

var sourceTypeSet = func() map[SourceType]struct{} {
	set := make(map[SourceType]struct{}, len(allSourceTypes))
	for _, st := range allSourceTypes {
		set[st] = struct{}{}
	}
	return set
}()

// AllSourceTypes returns the ordered list of known source types.
func AllSourceTypes() []SourceType {
	cp := make([]SourceType, len(allSourceTypes))
	copy(cp, allSourceTypes)
	return cp
}

// ParseSourceType converts a string into a known SourceType.
func ParseSourceType(value string) (SourceType, bool) {
	normalized := SourceType(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := sourceTypeSet[normalized]
	return normalized, ok
}
