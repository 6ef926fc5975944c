package models

import (
	"log"

	"bitbucket.org/mmdatafocus/kpi_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&DailyObservation{}, &PeriodSummary{},
		&AdjustmentEvent{}, &EventDate{},
		&StoreGroup{}, &StoreGroupMember{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
