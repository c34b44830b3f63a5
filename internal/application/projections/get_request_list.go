package projections

import (
	"context"
	"strings"
	"time"

	absenceStore "campus/internal/adapters/storage/absence"
	"campus/internal/application/listutil"
	"campus/internal/domain/absence"
	"campus/internal/domain/calendar"
)

// RequestSortColumns are the sort keys accepted by the request list.
var RequestSortColumns = []string{"start_date", "created_at", "working_days", "status"}

// RequestFilterKeys are the filter keys accepted by the request list.
var RequestFilterKeys = []string{"status", "kind", "from", "to", "section", "student"}

// GetRequestListQuery carries query parameters.
type GetRequestListQuery struct {
	Actor  absence.Actor
	Params listutil.ListParams
}

// GetRequestListResult carries the query result.
type GetRequestListResult struct {
	Requests []RequestView    `json:"requests"`
	Page     listutil.PageInfo `json:"page"`
}

// GetRequestListDeps holds dependencies for GetRequestList.
type GetRequestListDeps struct {
	RequestStore RequestStore
	StudentStore StudentStore
}

// QueryGetRequestList lists the requests visible to the actor.
// PRE: Actor comes from the authenticated session
// POST: Students see their own requests, tutors their sections, admins everything
// INVARIANT: Section and student filters can only narrow the actor's scope
func QueryGetRequestList(ctx context.Context, query GetRequestListQuery, deps GetRequestListDeps) (GetRequestListResult, error) {
	p := query.Params
	if p.PerPage < 1 {
		p.PageParams = listutil.PageParams{Page: 1, PerPage: listutil.DefaultPerPage}
	}

	filter, ok := scopeFilter(query.Actor, p)
	if !ok {
		return GetRequestListResult{Requests: []RequestView{}, Page: listutil.NewPageInfo(p.Page, p.PerPage, 0)}, nil
	}
	for _, s := range p.Filters["status"] {
		if absence.IsValidStatus(s) {
			filter.Statuses = append(filter.Statuses, s)
		} else {
			return GetRequestListResult{}, absence.Validationf("invalid_status", "unknown status %q", s)
		}
	}
	if kind := p.First("kind"); kind != "" {
		if kind != absence.KindLeave && kind != absence.KindOnDuty {
			return GetRequestListResult{}, absence.Validationf("invalid_kind", "kind must be one of: leave, on_duty")
		}
		filter.Kind = kind
	}
	var err error
	if filter.From, err = optionalDate(p.First("from")); err != nil {
		return GetRequestListResult{}, err
	}
	if filter.To, err = optionalDate(p.First("to")); err != nil {
		return GetRequestListResult{}, err
	}
	filter.Sort = p.Sort
	filter.Desc = p.Desc
	filter.Limit = p.PerPage
	filter.Offset = p.Offset()

	list, total, err := deps.RequestStore.List(ctx, filter)
	if err != nil {
		return GetRequestListResult{}, err
	}

	names := newNameCache(deps.StudentStore)
	views := make([]RequestView, 0, len(list))
	for _, r := range list {
		v := NewRequestView(r)
		v.StudentName = names.lookup(ctx, r.RequesterID)
		views = append(views, v)
	}
	return GetRequestListResult{Requests: views, Page: listutil.NewPageInfo(p.Page, p.PerPage, total)}, nil
}

// scopeFilter maps the actor to the rows they may see. It reports false when
// the narrowing filters leave nothing visible.
func scopeFilter(actor absence.Actor, p listutil.ListParams) (absenceStore.Filter, bool) {
	var f absenceStore.Filter
	switch actor.Role {
	case absence.RoleStudent:
		f.RequesterID = actor.ID
		return f, true
	case absence.RoleTutor:
		for _, sec := range p.Filters["section"] {
			if actor.InSection(sec) {
				f.Sections = append(f.Sections, strings.ToUpper(sec))
			}
		}
		if len(p.Filters["section"]) == 0 {
			for _, sec := range actor.Sections {
				f.Sections = append(f.Sections, strings.ToUpper(sec))
			}
		}
		if len(f.Sections) == 0 {
			return f, false
		}
	case absence.RoleAdmin:
		for _, sec := range p.Filters["section"] {
			f.Sections = append(f.Sections, strings.ToUpper(sec))
		}
	default:
		return f, false
	}
	f.RequesterID = p.First("student")
	return f, true
}

func optionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := calendar.ParseDate(s)
	if err != nil {
		return time.Time{}, absence.Validationf("invalid_date", "%q is not a YYYY-MM-DD date", s)
	}
	return d, nil
}
