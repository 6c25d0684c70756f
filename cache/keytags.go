package cache

// keyTags is the reverse index of tagIndex: the tags each key was stored
// with at its last Set.
type keyTags struct {
	tags map[string][]string
}

func newKeyTags() *keyTags {
	return &keyTags{tags: make(map[string][]string)}
}

// tagsOf returns the tags recorded for key. The slice must not be modified.
func (m *keyTags) tagsOf(key string) []string {
	return m.tags[key]
}

// setTags replaces the tag set for key. An empty set removes the slot.
func (m *keyTags) setTags(key string, tags []string) {
	if len(tags) == 0 {
		delete(m.tags, key)
		return
	}
	m.tags[key] = tags
}

func (m *keyTags) deleteTags(key string) {
	delete(m.tags, key)
}

func (m *keyTags) clear() {
	m.tags = make(map[string][]string)
}

// dedupeTags returns tags without duplicates, preserving first occurrence.
func dedupeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
