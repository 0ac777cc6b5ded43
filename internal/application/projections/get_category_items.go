package projections

import (
	"context"
	"fmt"
	"time"

	contentStore "society/internal/adapters/storage/content"
	"society/internal/adapters/storage/member"
	"society/internal/application/listutil"
	"society/internal/domain/content"
	domainMember "society/internal/domain/member"
)

// CategoryContentStore lists content items.
type CategoryContentStore interface {
	List(ctx context.Context, filter contentStore.ListFilter) ([]content.Item, error)
	CountByCategory(ctx context.Context) (map[string]int, error)
}

// CategoryMemberStore lists members.
type CategoryMemberStore interface {
	List(ctx context.Context, filter member.ListFilter) ([]domainMember.Member, error)
	Count(ctx context.Context, filter member.ListFilter) (int, error)
}

// GetCategoryItemsQuery carries input for the category drill-down.
type GetCategoryItemsQuery struct {
	Category string
	Page     listutil.PageParams
}

// GetCategoryItemsDeps holds dependencies for the category drill-down.
type GetCategoryItemsDeps struct {
	ContentStore CategoryContentStore
	MemberStore  CategoryMemberStore
}

// CategoryItem is one row behind a dashboard wedge.
type CategoryItem struct {
	Title   string
	Summary string
	Date    time.Time
}

// GetCategoryItemsResult carries one page of a category's counted items.
type GetCategoryItemsResult struct {
	Category string
	Label    string
	Items    []CategoryItem
	Page     listutil.PageInfo
}

// QueryGetCategoryItems lists the items counted in one dashboard category.
// PRE: query.Category is a declared category
// POST: Returns one page of published items, or active members for "users"
func QueryGetCategoryItems(ctx context.Context, query GetCategoryItemsQuery, deps GetCategoryItemsDeps) (GetCategoryItemsResult, error) {
	if !content.IsCategory(query.Category) {
		return GetCategoryItemsResult{}, fmt.Errorf("%w: %q", content.ErrInvalidCategory, query.Category)
	}
	result := GetCategoryItemsResult{Category: query.Category, Label: content.Label(query.Category)}

	if query.Category == content.CategoryUsers {
		filter := member.ListFilter{Status: domainMember.StatusActive}
		total, err := deps.MemberStore.Count(ctx, filter)
		if err != nil {
			return result, err
		}
		result.Page = listutil.NewPageInfo(query.Page.Page, query.Page.PerPage, total)
		filter.Limit, filter.Offset = result.Page.PerPage, result.Page.Offset()
		members, err := deps.MemberStore.List(ctx, filter)
		if err != nil {
			return result, err
		}
		for _, m := range members {
			result.Items = append(result.Items, CategoryItem{Title: m.Name, Summary: m.Role, Date: m.JoinedAt})
		}
		return result, nil
	}

	counts, err := deps.ContentStore.CountByCategory(ctx)
	if err != nil {
		return result, err
	}
	result.Page = listutil.NewPageInfo(query.Page.Page, query.Page.PerPage, counts[query.Category])
	items, err := deps.ContentStore.List(ctx, contentStore.ListFilter{
		Category: query.Category,
		Status:   content.StatusPublished,
		Limit:    result.Page.PerPage,
		Offset:   result.Page.Offset(),
	})
	if err != nil {
		return result, err
	}
	for _, it := range items {
		result.Items = append(result.Items, CategoryItem{Title: it.Title, Summary: it.Summary, Date: it.CreatedAt})
	}
	return result, nil
}
