package helper

import (
	"strings"
	"time"
)

// IsProviderOpen reports whether the provider's service hours cover the
// current wall-clock time. Providers without hours configured count as
// closed.
func IsProviderOpen(serviceStart, serviceEnd string) bool {
	return isOpenAt(time.Now(), serviceStart, serviceEnd)
}

func isOpenAt(now time.Time, serviceStart, serviceEnd string) bool {
	if serviceStart == "" || serviceEnd == "" {
		return false
	}

	loc := now.Location()
	layout := "15:04:05"

	// Stored format may be HH:mm or HH:mm:ss
	if strings.Count(serviceStart, ":") == 1 {
		serviceStart += ":00"
	}
	if strings.Count(serviceEnd, ":") == 1 {
		serviceEnd += ":00"
	}

	openTime, err := time.ParseInLocation(layout, serviceStart, loc)
	if err != nil {
		return false
	}
	closeTime, err := time.ParseInLocation(layout, serviceEnd, loc)
	if err != nil {
		return false
	}

	openTime = time.Date(
		now.Year(), now.Month(), now.Day(),
		openTime.Hour(), openTime.Minute(), openTime.Second(),
		0, loc,
	)
	closeTime = time.Date(
		now.Year(), now.Month(), now.Day(),
		closeTime.Hour(), closeTime.Minute(), closeTime.Second(),
		0, loc,
	)

	// Closing past midnight, e.g. open 22:00 close 02:00
	if closeTime.Before(openTime) {
		closeTime = closeTime.Add(24 * time.Hour)
		if now.Before(openTime) {
			openTime = openTime.Add(-24 * time.Hour)
		}
	}

	return now.After(openTime) && now.Before(closeTime)
}
