package cache

// tagIndex maps a tag to the set of keys currently registered under it.
// Empty sets are never kept.
type tagIndex struct {
	tags map[string]map[string]struct{}
}

func newTagIndex() *tagIndex {
	return &tagIndex{tags: make(map[string]map[string]struct{})}
}

// keysOf returns a snapshot of the keys under tag.
func (t *tagIndex) keysOf(tag string) []string {
	members, ok := t.tags[tag]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(members))
	for k := range members {
		keys = append(keys, k)
	}
	return keys
}

func (t *tagIndex) addMembership(tag, key string) {
	members, ok := t.tags[tag]
	if !ok {
		members = make(map[string]struct{})
		t.tags[tag] = members
	}
	members[key] = struct{}{}
}

func (t *tagIndex) removeMembership(tag, key string) {
	members, ok := t.tags[tag]
	if !ok {
		return
	}
	delete(members, key)
	if len(members) == 0 {
		delete(t.tags, tag)
	}
}

func (t *tagIndex) dropTag(tag string) {
	delete(t.tags, tag)
}

func (t *tagIndex) clear() {
	t.tags = make(map[string]map[string]struct{})
}

func (t *tagIndex) len() int {
	return len(t.tags)
}
