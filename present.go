/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitycache

// PresentItems overlays a page onto canonical entities. Items held in ref
// are replaced by the canonical entity, tombstoned items are dropped and the
// rest pass through. Order and page metadata are kept. A nil page stays nil.
func PresentItems(ref map[string]Entity, page *Page[Entity], deleted KeySet, primaryKey string) *Page[Entity] {
	if page == nil {
		return nil
	}
	out := &Page[Entity]{
		Content:    make([]Entity, 0, len(page.Content)),
		Page:       page.Page,
		TotalPages: page.TotalPages,
		TotalSize:  page.TotalSize,
	}
	for _, item := range page.Content {
		key, ok := item.Key(primaryKey)
		if !ok {
			out.Content = append(out.Content, item)
			continue
		}
		if canonical, ok := ref[key]; ok {
			out.Content = append(out.Content, canonical)
			continue
		}
		if deleted.Has(key) {
			continue
		}
		out.Content = append(out.Content, item)
	}
	return out
}
