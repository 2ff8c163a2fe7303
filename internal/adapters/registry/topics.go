package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/okian/meritor/internal/domain/model"
)

// topicNode is one entry in the topic hierarchy. Parent is fixed at
// registration, so the hierarchy is acyclic by construction.
type topicNode struct {
	parent model.TopicID
	active bool
}

// Topics is the hierarchical topic registry. A topic counts as active only
// when it and its whole ancestor chain are active, so deactivating a branch
// stops evidence collection for everything underneath it.
type Topics struct {
	mu    sync.RWMutex
	nodes map[model.TopicID]*topicNode
}

// NewTopics creates an empty topic registry.
func NewTopics() *Topics {
	return &Topics{nodes: make(map[model.TopicID]*topicNode)}
}

// Register adds a topic under parent. An empty parent makes it a root.
// New topics start active.
func (t *Topics) Register(ctx context.Context, id, parent model.TopicID) error {
	if id == "" {
		return ErrEmptyID
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.nodes[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTopic, id)
	}
	if parent != "" {
		if _, ok := t.nodes[parent]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownParent, parent)
		}
	}
	t.nodes[id] = &topicNode{parent: parent, active: true}
	return nil
}

// Activate marks a topic active. Ancestors are left as they are.
func (t *Topics) Activate(ctx context.Context, id model.TopicID) error {
	return t.setActive(id, true)
}

// Deactivate marks a topic inactive, which also deactivates its whole
// subtree for IsTopicActive purposes.
func (t *Topics) Deactivate(ctx context.Context, id model.TopicID) error {
	return t.setActive(id, false)
}

func (t *Topics) setActive(id model.TopicID, active bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	node, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTopic, id)
	}
	node.active = active
	return nil
}

// IsTopicActive reports whether id and all of its ancestors are active.
// Unknown topics are never active.
func (t *Topics) IsTopicActive(ctx context.Context, id model.TopicID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for id != "" {
		node, ok := t.nodes[id]
		if !ok || !node.active {
			return false
		}
		id = node.parent
	}
	return true
}

// Exists reports whether the topic is registered, active or not.
func (t *Topics) Exists(ctx context.Context, id model.TopicID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.nodes[id]
	return ok
}

// Parent returns the topic's parent, empty for roots and unknown topics.
func (t *Topics) Parent(ctx context.Context, id model.TopicID) model.TopicID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	node, ok := t.nodes[id]
	if !ok {
		return ""
	}
	return node.parent
}

// Children returns the direct children of id in lexical order. An empty id
// lists the roots.
func (t *Topics) Children(ctx context.Context, id model.TopicID) []model.TopicID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]model.TopicID, 0)
	for child, node := range t.nodes {
		if node.parent == id {
			out = append(out, child)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// List returns all registered topics in lexical order.
func (t *Topics) List(ctx context.Context) []model.TopicID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := lo.Keys(t.nodes)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Count returns the number of registered topics.
func (t *Topics) Count(ctx context.Context) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.nodes)
}
