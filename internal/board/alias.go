package board

import (
	"strings"
	"studyd/internal/providers"
	"studyd/internal/store"
	"studyd/internal/structures"
)

// AliasResolver folds configured alias groups into canonical identities so
// one person studying under several accounts ranks as a single entry.
// Resolution is pure after construction; config changes need a restart.
type AliasResolver struct {
	canonical map[int64]int64
	labels    map[int64]string
}

// NewAliasResolver builds the fold table from config alias groups keyed by
// display label. Member usernames resolve through the persistent user cache;
// unknown usernames are logged and skipped, never fatal.
func NewAliasResolver(conf *structures.Config, logger providers.Logger, ledger store.AccumulationStoreInterface) (*AliasResolver, error) {
	seen, err := ledger.Usernames()
	if err != nil {
		return nil, err
	}
	usernames := make(map[string]int64, len(seen))
	for name, id := range seen {
		usernames[strings.ToLower(name)] = id
	}

	r := &AliasResolver{
		canonical: make(map[int64]int64),
		labels:    make(map[int64]string),
	}

	for label, members := range conf.Board.Aliases {
		var group []int64
		for _, member := range members {
			name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(member), "@"))
			if name == "" {
				continue
			}
			id, ok := usernames[name]
			if !ok {
				logger.Warnf(providers.TypeBoard, "Alias group %q member @%s not seen yet, skipping", label, name)
				continue
			}
			group = append(group, id)
		}
		if len(group) == 0 {
			continue
		}
		// First resolvable member is canonical for the whole group.
		head := group[0]
		for _, id := range group {
			r.canonical[id] = head
		}
		r.labels[head] = label
	}

	return r, nil
}

// Canonical maps an identity to its alias-group head, or itself.
func (r *AliasResolver) Canonical(id int64) int64 {
	if head, ok := r.canonical[id]; ok {
		return head
	}
	return id
}

// Label returns the configured group label for a canonical identity.
func (r *AliasResolver) Label(id int64) (string, bool) {
	label, ok := r.labels[id]
	return label, ok
}
