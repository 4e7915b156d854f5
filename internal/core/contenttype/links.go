package contenttype

import (
	"github.com/example/pnp/internal/core/effects"
	"github.com/example/pnp/internal/core/guid"
	"github.com/example/pnp/internal/models"
)

// LinkPlan is the field-link delta for one content type.
type LinkPlan struct {
	Effects []effects.Effect
	Added   []string // field ids linked
	Updated []string // field ids whose flags changed
	Missing []string // declared field ids absent from the site catalog
}

// Changed reports whether the plan needs a commit.
func (p LinkPlan) Changed() bool {
	return len(p.Effects) > 0
}

// PlanFieldLinks computes the link delta between declared field references
// and the live links of content type ctID.
//
// Declared fields without a link are added with their declared flags. Linked
// fields get their Required/Hidden flags aligned. Links are never removed.
// When anything was added, the links are reordered: declared fields first, by
// the internal name the site catalog knows them under, the remaining live
// links after them in their current order.
func PlanFieldLinks(ctID string, refs []models.FieldRef, links []LiveLink, catalog []SiteField) LinkPlan {
	var plan LinkPlan
	var added []LiveLink

	for _, ref := range refs {
		if link := findLink(ref.ID, links); link != nil {
			if link.Required != ref.Required || link.Hidden != ref.Hidden {
				plan.Effects = append(plan.Effects, effects.FieldLinkEffect{
					Operation:     effects.OpUpdate,
					ContentTypeID: ctID,
					FieldID:       link.FieldID,
					Required:      ref.Required,
					Hidden:        ref.Hidden,
				})
				plan.Updated = append(plan.Updated, link.FieldID)
			}
			continue
		}
		if findLink(ref.ID, added) != nil {
			continue
		}

		sf := findSiteField(ref.ID, catalog)
		if sf == nil {
			plan.Missing = append(plan.Missing, ref.ID)
			continue
		}
		plan.Effects = append(plan.Effects, effects.FieldLinkEffect{
			Operation:     effects.OpAdd,
			ContentTypeID: ctID,
			FieldID:       sf.ID,
			Required:      ref.Required,
			Hidden:        ref.Hidden,
		})
		plan.Added = append(plan.Added, sf.ID)
		added = append(added, LiveLink{FieldID: sf.ID, Name: sf.InternalName})
	}

	if len(plan.Added) > 0 {
		plan.Effects = append(plan.Effects, effects.FieldLinkEffect{
			Operation:     effects.OpReorder,
			ContentTypeID: ctID,
			Order:         linkOrder(refs, append(append([]LiveLink(nil), links...), added...)),
		})
	}
	return plan
}

// linkOrder lists the internal names of all links: declared ones in template
// order, then the others in their existing order.
func linkOrder(refs []models.FieldRef, links []LiveLink) []string {
	seen := make(map[string]bool)
	var order []string
	push := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}

	for _, ref := range refs {
		l := findLink(ref.ID, links)
		if l == nil {
			continue
		}
		if l.Name != "" {
			push(l.Name)
		} else {
			push(ref.Name)
		}
	}
	for _, l := range links {
		push(l.Name)
	}
	return order
}

func findLink(id string, links []LiveLink) *LiveLink {
	for i := range links {
		if guid.Equal(links[i].FieldID, id) {
			return &links[i]
		}
	}
	return nil
}

func findSiteField(id string, catalog []SiteField) *SiteField {
	for i := range catalog {
		if guid.Equal(catalog[i].ID, id) {
			return &catalog[i]
		}
	}
	return nil
}
