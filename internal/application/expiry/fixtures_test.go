package expiry

import (
	"time"

	"github.com/google/uuid"
	"github.com/vendfleet/backend/internal/domain/expiry"
)

var chicago = func() *time.Location {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		panic(err)
	}
	return loc
}()

// fixedNow is 08:00 on 2024-01-10 in Chicago
var fixedNow = time.Date(2024, 1, 10, 8, 0, 0, 0, chicago)

func fixedClock() time.Time { return fixedNow }

// at returns hh:00 Chicago time on the given January 2024 day
func at(day, hour int) time.Time {
	return time.Date(2024, 1, day, hour, 0, 0, 0, chicago)
}

type fleet struct {
	companyID uuid.UUID
	company   *expiry.Company
	location  *expiry.Location
}

func newFleet() *fleet {
	companyID := uuid.New()
	return &fleet{
		companyID: companyID,
		company:   &expiry.Company{ID: companyID, Name: "Acme Vending", TimeZone: "America/Chicago"},
		location:  &expiry.Location{ID: uuid.New(), Name: "Depot North"},
	}
}

func (f *fleet) coilItem(skuName, machineCode, coilCode string, expiryDays int) *expiry.CoilItem {
	return &expiry.CoilItem{
		ID: uuid.New(),
		Sku: &expiry.Sku{
			ID:         uuid.New(),
			Code:       "SKU-" + skuName,
			Name:       skuName,
			Type:       "food",
			ExpiryDays: expiryDays,
		},
		Coil: &expiry.Coil{
			ID:   uuid.New(),
			Code: coilCode,
			Machine: &expiry.Machine{
				ID:          uuid.New(),
				Code:        machineCode,
				Description: "Lobby " + machineCode,
				Location:    f.location,
			},
		},
	}
}

func (f *fleet) run(scheduled time.Time) *expiry.Run {
	return &expiry.Run{ID: uuid.New(), CompanyID: f.companyID, ScheduledFor: &scheduled}
}

func pickEntry(run *expiry.Run, item *expiry.CoilItem, planned int64) expiry.PickEntry {
	return expiry.PickEntry{
		ID:              uuid.New(),
		RunID:           run.ID,
		RunScheduledFor: *run.ScheduledFor,
		CoilItemID:      item.ID,
		CoilItem:        item,
		Count:           planned,
	}
}
