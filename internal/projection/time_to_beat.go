package projection

import (
	"fmt"

	"github.com/gamepile/gamepile-backend/internal/domain/catalog"
)

// ProjectTimeToBeat maps a game_time_to_beats record onto the stored
// shape. Buckets absent or zero stay nil.
func ProjectTimeToBeat(raw Record) catalog.TimeToBeat {
	ttb := catalog.TimeToBeat{}
	if count, ok := getInt(raw, "count"); ok {
		ttb.Count = count
	}
	ttb.Hastily = bucketFor(raw, "hastily")
	ttb.Normally = bucketFor(raw, "normally")
	ttb.Completely = bucketFor(raw, "completely")
	return ttb
}

func bucketFor(raw Record, key string) *catalog.TimeToBeatBucket {
	seconds, ok := getInt(raw, key)
	if !ok || seconds <= 0 {
		return nil
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	return &catalog.TimeToBeatBucket{
		Seconds:   seconds,
		Hours:     hours,
		Minutes:   minutes,
		Formatted: formatPlaytime(hours, minutes),
	}
}

func formatPlaytime(hours, minutes int) string {
	if hours == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	if minutes == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
