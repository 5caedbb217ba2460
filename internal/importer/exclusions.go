package importer

import (
	"time"

	"regsync/internal/importer/source"
	"regsync/internal/importer/strategy"
	"regsync/internal/records/models"
)

// Records issued before the site cutover at specific excluded sites were
// migrated by an earlier bulk load and must not be re-imported.
var siteCutover = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

var excludedSites = map[string]struct{}{
	"SITE-0001": {},
	"SITE-0042": {},
}

// applyExclusions drops source items the data source never imports:
// administrative fee-orders and pre-cutover records at excluded sites.
func applyExclusions(strat strategy.Strategy, items []source.Item) []source.Item {
	kept := make([]source.Item, 0, len(items))
	for _, item := range items {
		if strat.IsFeeOrder(&models.Record{RecordName: item.Name}) {
			continue
		}
		if excludedPreCutover(item) {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

func excludedPreCutover(item source.Item) bool {
	if _, excluded := excludedSites[item.SiteID]; !excluded {
		return false
	}
	return item.DateIssued != nil && item.DateIssued.Before(siteCutover)
}
