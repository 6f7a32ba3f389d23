package flowsim

import (
	"fmt"
	"math"
	"sort"
)

// DailyFlow is the total vehicle flow of one day.
type DailyFlow struct {
	Date  string `bson:"date"`
	Total int64  `bson:"total_flow"`
}

// Distribute splits the daily total into 24 integer hourly flows proportional
// to weights (uniform when empty) with the largest remainder method, so the
// buckets always sum to total. Ties go to the earlier hour.
func Distribute(total int64, weights []float64) ([HOURS]int64, error) {
	var res [HOURS]int64
	if total < 0 {
		return res, fmt.Errorf("%w: %d", ErrNegativeFlow, total)
	}
	w, err := normalizeWeights(weights)
	if err != nil {
		return res, err
	}
	sum := 0.0
	for _, x := range w {
		sum += x
	}
	type remainder struct {
		hour int
		frac float64
	}
	rems := make([]remainder, HOURS)
	assigned := int64(0)
	for h := 0; h < HOURS; h++ {
		exact := float64(total) * w[h] / sum
		floor := math.Floor(exact)
		res[h] = int64(floor)
		assigned += res[h]
		rems[h] = remainder{hour: h, frac: exact - floor}
	}
	sort.SliceStable(rems, func(i, j int) bool { return rems[i].frac > rems[j].frac })
	// 浮点误差可能使assigned略多于total，此时从余数最小的小时扣回
	for i := 0; assigned < total; i = (i + 1) % HOURS {
		res[rems[i].hour]++
		assigned++
	}
	for i := HOURS - 1; assigned > total; i = (i + HOURS - 1) % HOURS {
		if h := rems[i].hour; res[h] > 0 {
			res[h]--
			assigned--
		}
	}
	return res, nil
}

// FindDailyFlow returns the record of the given date.
func FindDailyFlow(records []DailyFlow, date string) (DailyFlow, error) {
	for _, r := range records {
		if r.Date == date {
			return r, nil
		}
	}
	return DailyFlow{}, fmt.Errorf("%w %s", ErrDateNotFound, date)
}
