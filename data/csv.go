package data

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/tantralabs/zdte/logger"
	"github.com/tantralabs/zdte/models"
	"github.com/tantralabs/zdte/utils"
)

const dateLayout = "2006-01-02"

type spotRow struct {
	Timestamp int64   `csv:"timestamp"`
	Price     float64 `csv:"price"`
}

type chainRow struct {
	Timestamp  int64   `csv:"timestamp"`
	ContractID string  `csv:"contract_id"`
	Strike     float64 `csv:"strike"`
	Right      string  `csv:"right"`
	Bid        float64 `csv:"bid"`
	Ask        float64 `csv:"ask"`
	Delta      float64 `csv:"delta"`
	Volume     int     `csv:"volume"`
	IV         float64 `csv:"iv"`
	LastClose  float64 `csv:"last_close"`
}

// CSVProvider reads one pair of files per trading day from a directory:
// <date>_spot.csv and <date>_chain.csv, timestamps in epoch millis.
type CSVProvider struct {
	Dir    string
	Symbol string
}

func NewCSVProvider(dir string, symbol string) *CSVProvider {
	return &CSVProvider{Dir: dir, Symbol: symbol}
}

func (p *CSVProvider) TradingDates() []time.Time {
	matches, err := filepath.Glob(filepath.Join(p.Dir, "*_spot.csv"))
	if err != nil {
		logger.Errorf("Error scanning data dir %v: %v\n", p.Dir, err)
		return nil
	}
	var dates []time.Time
	for _, match := range matches {
		name := strings.TrimSuffix(filepath.Base(match), "_spot.csv")
		date, err := time.Parse(dateLayout, name)
		if err != nil {
			logger.Debugf("Skipping unparseable data file %v\n", match)
			continue
		}
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

func (p *CSVProvider) LoadEpisode(date time.Time) (*models.EpisodeContext, error) {
	day := date.Format(dateLayout)
	spotFile, err := os.Open(filepath.Join(p.Dir, day+"_spot.csv"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoData, day)
	}
	defer spotFile.Close()
	chainFile, err := os.Open(filepath.Join(p.Dir, day+"_chain.csv"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoData, day)
	}
	defer chainFile.Close()

	var spots []spotRow
	if err = gocsv.UnmarshalFile(spotFile, &spots); err != nil {
		return nil, fmt.Errorf("parsing %v_spot.csv: %v", day, err)
	}
	var rows []chainRow
	if err = gocsv.UnmarshalFile(chainFile, &rows); err != nil {
		return nil, fmt.Errorf("parsing %v_chain.csv: %v", day, err)
	}
	if len(spots) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrNoData, day)
	}

	episode := &models.EpisodeContext{
		Date:        date,
		SpotPrices:  make(map[time.Time]float64),
		ChainByTime: make(map[time.Time][]models.OptionContract),
	}
	for _, spot := range spots {
		ts := utils.TimestampToTime(int(spot.Timestamp))
		episode.Timestamps = append(episode.Timestamps, ts)
		episode.SpotPrices[ts] = spot.Price
	}
	sort.Slice(episode.Timestamps, func(i, j int) bool {
		return episode.Timestamps[i].Before(episode.Timestamps[j])
	})
	for _, row := range rows {
		ts := utils.TimestampToTime(int(row.Timestamp))
		episode.ChainByTime[ts] = append(episode.ChainByTime[ts], models.OptionContract{
			ID:        row.ContractID,
			Symbol:    p.Symbol,
			Strike:    row.Strike,
			Right:     row.Right,
			Bid:       row.Bid,
			Ask:       row.Ask,
			Delta:     row.Delta,
			Volume:    row.Volume,
			IV:        row.IV,
			LastClose: row.LastClose,
		})
	}
	logger.Infof("Loaded %v timestamps and %v chain rows for %v.\n", len(episode.Timestamps), len(rows), day)
	return episode, nil
}
