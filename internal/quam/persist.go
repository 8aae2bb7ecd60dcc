package quam

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/squidquam/internal/ctxlog"
	"github.com/vk/squidquam/internal/statestore"
)

// DefaultStateFile receives every top-level attribute not claimed by a
// content mapping.
const DefaultStateFile = "state.json"

// ContentMapping routes top-level attributes to their own document:
// file name -> attribute name.
type ContentMapping map[string]string

// Save writes the tree below root to store. Attributes named in ignore are
// left out.
func Save(ctx context.Context, root Component, store statestore.Store, mapping ContentMapping, ignore ...string) error {
	logger := ctxlog.FromContext(ctx)

	raw, err := json.Marshal(root)
	if err != nil {
		return fmt.Errorf("failed to encode %T: %w", root, err)
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return fmt.Errorf("failed to split %T into documents: %w", root, err)
	}
	for _, attr := range ignore {
		delete(top, attr)
	}
	if name := ClassName(root); name != "" {
		top[ClassKey], _ = json.Marshal(name)
	}

	docs := make(map[string]map[string]json.RawMessage)
	if single, ok := store.(statestore.SingleDocument); !ok || !single.SingleDocument() {
		for file, attr := range mapping {
			v, ok := top[attr]
			if !ok {
				continue
			}
			docs[file] = map[string]json.RawMessage{attr: v}
			delete(top, attr)
		}
	}
	docs[DefaultStateFile] = top

	names := make([]string, 0, len(docs))
	for name := range docs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		b, err := json.MarshalIndent(docs[name], "", "    ")
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", name, err)
		}
		if err := store.Put(ctx, name, b); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		logger.Debug("Saved state document.", "document", name, "bytes", len(b))
	}
	return nil
}

// Load merges every JSON document in store and decodes the result into
// root, which should come from the class's constructor so that attributes
// missing from the documents keep their defaults. Attributes present in more
// than one document are rejected.
func Load(ctx context.Context, root Component, store statestore.Store) error {
	logger := ctxlog.FromContext(ctx)

	names, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list state documents: %w", err)
	}
	if len(names) == 0 {
		return fmt.Errorf("%w: no state documents", statestore.ErrNotFound)
	}

	merged := make(map[string]json.RawMessage)
	origin := make(map[string]string)
	for _, name := range names {
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		b, err := store.Get(ctx, name)
		if err != nil {
			return err
		}
		var doc map[string]json.RawMessage
		if err := json.Unmarshal(b, &doc); err != nil {
			return fmt.Errorf("failed to parse %s: %w", name, err)
		}
		for k, v := range doc {
			if k == ClassKey {
				logger.Debug("State document declares class.", "document", name, "class", string(v))
				continue
			}
			if prev, dup := origin[k]; dup {
				return fmt.Errorf("attribute %q is defined in both %s and %s", k, prev, name)
			}
			merged[k] = v
			origin[k] = name
		}
		logger.Debug("Loaded state document.", "document", name, "attributes", len(doc))
	}

	b, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, root); err != nil {
		return fmt.Errorf("failed to decode %T: %w", root, err)
	}
	Adopt(root)
	return nil
}
