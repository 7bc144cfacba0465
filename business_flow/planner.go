package businessflow

import (
	"sort"
	"time"

	"github.com/coldwire/dialplan/app/dto"
	"github.com/coldwire/dialplan/models"
	"github.com/coldwire/dialplan/repository"
	"github.com/coldwire/dialplan/utils"
)

type dayOccupancy struct {
	total    int
	newLeads int
}

// capacityPlanner assigns contacts to the earliest business day with room
// under the daily target and, for new leads, the new-lead sub-quota. The
// window bounds the preferred horizon only; search extends to a hard ceiling
// past which a contact is reported unplaceable.
type capacityPlanner struct {
	targetPerDay   int
	newQuotaPerDay int
	today          time.Time
	ceiling        time.Time
	occupancy      map[time.Time]*dayOccupancy
}

// lookaheadBusinessDays is the search horizon in business days past today.
func lookaheadBusinessDays(windowDays int) int {
	n := utils.LookaheadWindowMultiple * windowDays
	if n < utils.MinLookaheadBusinessDays {
		n = utils.MinLookaheadBusinessDays
	}
	return n
}

func newCapacityPlanner(targetPerDay, newQuotaPerDay, windowDays int, today time.Time, occ []repository.DateOccupancy) *capacityPlanner {
	p := &capacityPlanner{
		targetPerDay:   targetPerDay,
		newQuotaPerDay: newQuotaPerDay,
		today:          utils.StartOfDay(today),
		ceiling:        utils.AddBusinessDays(today, lookaheadBusinessDays(windowDays)),
		occupancy:      make(map[time.Time]*dayOccupancy, len(occ)),
	}
	for _, o := range occ {
		d := utils.StartOfDay(o.Date)
		p.occupancy[d] = &dayOccupancy{total: o.Total, newLeads: o.New}
	}
	return p
}

// place assigns the earliest admissible day for the contact and claims the
// slot in the in-memory occupancy. ok is false when no day up to the ceiling
// has room.
func (p *capacityPlanner) place(c *models.Contact) (time.Time, bool) {
	day := utils.NextBusinessDay(c.EarliestCallDate(p.today))
	isNew := c.IsNewLead()

	for !day.After(p.ceiling) {
		occ := p.occupancy[day]
		if occ == nil {
			occ = &dayOccupancy{}
			p.occupancy[day] = occ
		}
		if occ.total < p.targetPerDay && (!isNew || occ.newLeads < p.newQuotaPerDay) {
			occ.total++
			if isNew {
				occ.newLeads++
			}
			return day, true
		}
		day = utils.AddBusinessDays(day, 1)
	}
	return time.Time{}, false
}

// release returns a previously claimed slot, used when persistence of a
// planned batch fails.
func (p *capacityPlanner) release(day time.Time, isNew bool) {
	occ := p.occupancy[utils.StartOfDay(day)]
	if occ == nil {
		return
	}
	occ.total--
	if isNew {
		occ.newLeads--
	}
}

// toDistribution renders per-date assignment counts as an ascending list.
func toDistribution(counts map[time.Time]int) []dto.DistributionItem {
	dates := make([]time.Time, 0, len(counts))
	for d := range counts {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	items := make([]dto.DistributionItem, 0, len(dates))
	for _, d := range dates {
		items = append(items, dto.DistributionItem{Date: formatDate(d), Count: counts[d]})
	}
	return items
}

// mergeDistribution folds one batch's per-date counts into a running total.
func mergeDistribution(into map[time.Time]int, from map[time.Time]int) {
	for d, n := range from {
		into[d] += n
	}
}
