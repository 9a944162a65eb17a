package redis

import "fmt"

const ns = "railgo:v1"

func KeyTrainSchedule(prn, travelDate string) string {
	return fmt.Sprintf("%s:train:%s:%s:schedule", ns, prn, travelDate)
}

func KeyTrainSeats(prn, travelDate string) string {
	return fmt.Sprintf("%s:train:%s:%s:seats", ns, prn, travelDate)
}

func KeyRateLimitPrefix(scope string) string {
	return fmt.Sprintf("%s:rl:%s", ns, scope)
}

func ChannelTrainsChanged() string {
	return ns + ":trains:changed"
}
