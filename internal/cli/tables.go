package cli

import (
	"slices"
	"strconv"
	"time"

	"github.com/samber/lo"

	"github.com/roach88/ewm/internal/participation"
)

// requestTable renders participation requests one per row.
type requestTable []participation.Request

func (t requestTable) Header() []string {
	return []string{"ID", "Event", "Requester", "Created", "Status"}
}

func (t requestTable) Rows() [][]string {
	return lo.Map(t, func(r participation.Request, _ int) []string {
		return []string{
			strconv.FormatInt(int64(r.ID), 10),
			strconv.FormatInt(int64(r.EventID), 10),
			strconv.FormatInt(int64(r.RequesterID), 10),
			r.CreatedAt.UTC().Format(time.RFC3339),
			string(r.Status),
		}
	})
}

// batchView is the payload of event moderate. Empty sides encode as [].
type batchView participation.BatchResult

func newBatchView(res participation.BatchResult) batchView {
	return batchView{
		Confirmed: lo.Ternary(res.Confirmed == nil, []participation.Request{}, res.Confirmed),
		Rejected:  lo.Ternary(res.Rejected == nil, []participation.Request{}, res.Rejected),
	}
}

func (b batchView) Header() []string {
	return requestTable(nil).Header()
}

func (b batchView) Rows() [][]string {
	return requestTable(slices.Concat(b.Confirmed, b.Rejected)).Rows()
}

// availabilityRow is one event's remaining capacity.
type availabilityRow struct {
	EventID participation.EventID `json:"event"`
	participation.Availability
	Available bool `json:"available"`
}

type availabilityTable []availabilityRow

func (t availabilityTable) Header() []string {
	return []string{"Event", "Limit", "Confirmed", "Remaining", "Available"}
}

func (t availabilityTable) Rows() [][]string {
	return lo.Map(t, func(a availabilityRow, _ int) []string {
		limit, remaining := strconv.Itoa(a.Limit), strconv.Itoa(a.Remaining)
		if a.Unlimited {
			limit, remaining = "unlimited", "-"
		}
		return []string{
			strconv.FormatInt(int64(a.EventID), 10),
			limit,
			strconv.Itoa(a.Confirmed),
			remaining,
			strconv.FormatBool(a.Available),
		}
	})
}

// countRow is the confirmed count of one event.
type countRow struct {
	EventID   participation.EventID `json:"event"`
	Confirmed int                   `json:"confirmed"`
}

type countTable []countRow

func (t countTable) Header() []string {
	return []string{"Event", "Confirmed"}
}

func (t countTable) Rows() [][]string {
	return lo.Map(t, func(c countRow, _ int) []string {
		return []string{strconv.FormatInt(int64(c.EventID), 10), strconv.Itoa(c.Confirmed)}
	})
}
