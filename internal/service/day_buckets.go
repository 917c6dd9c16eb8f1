package service

import "time"

const dayKeyLayout = "2006-01-02"

// DayBucket 按 UTC 自然日累加的计数器。
type DayBucket struct {
	Date        string `json:"date"`
	Subscribers int    `json:"subscribers"`
	Clicks      int    `json:"clicks"`
}

// DayKey 将时间截断到 UTC 自然日并格式化为 YYYY-MM-DD。
func DayKey(t time.Time) string {
	return t.UTC().Format(dayKeyLayout)
}

func startOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// BuildDayBuckets 生成覆盖 [today-(days-1), today] 的连续日桶，按日期严格递增。
func BuildDayBuckets(now time.Time, days int) []DayBucket {
	if days <= 0 {
		return []DayBucket{}
	}

	today := startOfDay(now)
	buckets := make([]DayBucket, 0, days)
	for i := days - 1; i >= 0; i-- {
		buckets = append(buckets, DayBucket{Date: today.AddDate(0, 0, -i).Format(dayKeyLayout)})
	}
	return buckets
}

// foldDayBuckets 把订阅与点击时间戳累加到对应日桶；[since, now] 之外或找不到日桶的事件直接丢弃。
func foldDayBuckets(buckets []DayBucket, since, now time.Time, subscribers, clicks []time.Time) {
	index := make(map[string]int, len(buckets))
	for i := range buckets {
		index[buckets[i].Date] = i
	}

	inRange := func(t time.Time) (int, bool) {
		if t.Before(since) || t.After(now) {
			return 0, false
		}
		i, ok := index[DayKey(t)]
		return i, ok
	}

	for _, t := range subscribers {
		if i, ok := inRange(t); ok {
			buckets[i].Subscribers++
		}
	}
	for _, t := range clicks {
		if i, ok := inRange(t); ok {
			buckets[i].Clicks++
		}
	}
}
