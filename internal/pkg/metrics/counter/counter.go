package counter

import (
	"context"
	"strconv"

	"github.com/certbridge/certbridge/internal/pkg/cache"
)

const (
	receivedKey  = "webhook:counters:received"
	processedKey = "webhook:counters:processed"
	failedKey    = "webhook:counters:failed"
)

// AddReceived increments the per-domain counter of accepted deliveries.
func AddReceived(domain string) error {
	return cache.GetClient().HIncrBy(context.Background(), receivedKey, domain, 1).Err()
}

// AddProcessed increments the per-domain counter of issued certificates.
func AddProcessed(domain string) error {
	return cache.GetClient().HIncrBy(context.Background(), processedKey, domain, 1).Err()
}

// AddFailed increments the per-domain counter of failed pipeline runs.
func AddFailed(domain string) error {
	return cache.GetClient().HIncrBy(context.Background(), failedKey, domain, 1).Err()
}

// Totals are the live redis counters. The numbers are a fast approximation
// for the dashboard; the ledger in the database stays authoritative.
type Totals struct {
	Received  int64 `json:"received"`
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
}

func ReadTotals() (Totals, error) {
	ctx := context.Background()
	rdb := cache.GetClient()

	var totals Totals
	for _, kv := range []struct {
		key string
		dst *int64
	}{
		{key: receivedKey, dst: &totals.Received},
		{key: processedKey, dst: &totals.Processed},
		{key: failedKey, dst: &totals.Failed},
	} {
		data, err := rdb.HGetAll(ctx, kv.key).Result()
		if err != nil {
			return Totals{}, err
		}
		for _, v := range data {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				continue
			}
			*kv.dst += n
		}
	}
	return totals, nil
}
