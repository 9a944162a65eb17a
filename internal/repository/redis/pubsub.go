package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// TrainsPubSub broadcasts seat-map and catalog changes so every train
// service instance can drop its cache entries for the touched
// (trainPrn, travelDate).
type TrainsPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewTrainsPubSub(rdb *redis.Client) *TrainsPubSub {
	return &TrainsPubSub{
		rdb:     rdb,
		channel: ChannelTrainsChanged(),
	}
}

type trainChangedMsg struct {
	Type       string `json:"type"`
	Prn        string `json:"prn"`
	TravelDate string `json:"travel_date"`
	TsUnix     int64  `json:"ts_unix"`
}

func (p *TrainsPubSub) PublishTrainChanged(ctx context.Context, prn, travelDate string) error {
	msg := trainChangedMsg{
		Type:       "train_changed",
		Prn:        prn,
		TravelDate: travelDate,
		TsUnix:     time.Now().Unix(),
	}

	b, _ := json.Marshal(msg)

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

func (p *TrainsPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, prn, travelDate string)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var ev trainChangedMsg
			if err := json.Unmarshal([]byte(m.Payload), &ev); err == nil &&
				ev.Prn != "" {
				handler(ctx, ev.Prn, ev.TravelDate)
			}
		}
	}
}
