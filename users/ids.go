package users

import (
	"strconv"
	"time"
)

func formatMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
